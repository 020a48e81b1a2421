package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/scorekeeper/internal/api/request"
	"github.com/mcoot/scorekeeper/internal/api/response"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	tracker tracker.ControllerInterface
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(t tracker.ControllerInterface) *PlayerHandler {
	return &PlayerHandler{
		tracker: t,
	}
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.PlayersFromModel(h.tracker.Players()))
}

// Create handles POST /api/v1/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.AddPlayerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	player, err := h.tracker.AddPlayer(r.Context(), req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	player, err := h.tracker.GetPlayer(playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// SetAvatar handles PUT /api/v1/players/{id}/avatar
func (h *PlayerHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req request.AvatarRequest
	if !decodeBody(w, r, &req) {
		return
	}

	avatar, err := model.NewAvatar(model.AvatarKind(req.Type), req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.tracker.UpdatePlayerAvatar(r.Context(), playerID(r), avatar)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// SetManualTotal handles PUT /api/v1/players/{id}/manual-total
func (h *PlayerHandler) SetManualTotal(w http.ResponseWriter, r *http.Request) {
	var req request.ManualTotalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	player, err := h.tracker.UpdatePlayerManualTotal(r.Context(), playerID(r), req.Total)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// SetMoney handles PUT /api/v1/players/{id}/money
func (h *PlayerHandler) SetMoney(w http.ResponseWriter, r *http.Request) {
	var req request.MoneyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	player, err := h.tracker.UpdatePlayerMoney(r.Context(), playerID(r), req.Money)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Rankings handles GET /api/v1/rankings
func (h *PlayerHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RankingsFromModel(h.tracker.Rankings()))
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}
