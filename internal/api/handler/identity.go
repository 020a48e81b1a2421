package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/scorekeeper/internal/api/request"
	"github.com/mcoot/scorekeeper/internal/api/response"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
)

// IdentityHandler accepts the identity signal from the external auth provider
type IdentityHandler struct {
	tracker tracker.ControllerInterface
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(t tracker.ControllerInterface) *IdentityHandler {
	return &IdentityHandler{
		tracker: t,
	}
}

// Get handles GET /api/v1/identity
func (h *IdentityHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.IdentityFromModel(h.tracker.Identity(), ""))
}

// Set handles PUT /api/v1/identity
func (h *IdentityHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req request.IdentityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		WriteError(w, NewInvalidRequestError("user_id is required"))
		return
	}

	identity := &model.Identity{UserID: model.UserID(userID)}
	source, err := h.tracker.SetIdentity(r.Context(), identity)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity, source))
}

// Clear handles DELETE /api/v1/identity
func (h *IdentityHandler) Clear(w http.ResponseWriter, r *http.Request) {
	source, err := h.tracker.SetIdentity(r.Context(), nil)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.IdentityFromModel(nil, source))
}
