package handler

import (
	"net/http"

	"github.com/mcoot/scorekeeper/internal/api/response"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/notify"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
)

// SystemHandler serves health and the notification stream
type SystemHandler struct {
	tracker       tracker.ControllerInterface
	hub           *notify.Hub
	remoteEnabled bool
}

// NewSystemHandler creates a new system handler. hub may be nil, in which
// case the events endpoint is unavailable.
func NewSystemHandler(t tracker.ControllerInterface, hub *notify.Hub, remoteEnabled bool) *SystemHandler {
	return &SystemHandler{
		tracker:       t,
		hub:           hub,
		remoteEnabled: remoteEnabled,
	}
}

// Health handles GET /api/v1/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ready := h.tracker.Ready()
	status, code := "ok", http.StatusOK
	if !ready {
		status, code = "loading", http.StatusServiceUnavailable
	}
	response.JSON(w, code, response.Health{
		Status:        status,
		Ready:         ready,
		RemoteEnabled: h.remoteEnabled,
	})
}

// Events handles GET /api/v1/events. ?user_id= limits user-scoped
// notifications to one account.
func (h *SystemHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		WriteError(w, NewInternalError())
		return
	}
	notify.ServeSSE(w, r, h.hub, model.UserID(r.URL.Query().Get("user_id")))
}
