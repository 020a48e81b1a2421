package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/scorekeeper/internal/api/request"
	"github.com/mcoot/scorekeeper/internal/api/response"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/record"
	"github.com/mcoot/scorekeeper/internal/services/joincode"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
)

// GameHandler handles game and round endpoints
type GameHandler struct {
	tracker tracker.ControllerInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(t tracker.ControllerInterface) *GameHandler {
	return &GameHandler{
		tracker: t,
	}
}

// List handles GET /api/v1/games. ?sort=date orders newest first.
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games := h.tracker.Games()
	if r.URL.Query().Get("sort") == "date" {
		games = h.tracker.GamesByDate()
	}
	response.JSON(w, http.StatusOK, response.GamesFromModel(games))
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, ok := record.ParseDate(req.Date)
		if !ok {
			WriteError(w, NewInvalidRequestError("date is not a valid date"))
			return
		}
		date = parsed
	}

	gameType, err := model.ParseGameType(req.GameType)
	if err != nil {
		WriteError(w, err)
		return
	}

	players := make([]model.PlayerID, len(req.PlayerIDs))
	for i, id := range req.PlayerIDs {
		players[i] = model.PlayerID(id)
	}

	game, err := h.tracker.CreateGame(r.Context(), date, players, gameType)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(game))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	game, err := h.tracker.GetGame(gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(game))
}

// GetByCode handles GET /api/v1/games/by-code/{code}
func (h *GameHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !joincode.IsValidCode(code) {
		WriteError(w, model.ErrInvalidCode)
		return
	}

	game, err := h.tracker.GetGameByCode(code)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(game))
}

// Summary handles GET /api/v1/games/{id}/summary
func (h *GameHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracker.GameSummary(gameID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameSummaryFromModel(summary))
}

// Delete handles DELETE /api/v1/games/{id}
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteGame(r.Context(), gameID(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// DeleteMany handles POST /api/v1/games/delete
func (h *GameHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req request.DeleteGamesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		WriteError(w, NewInvalidRequestError("ids is required"))
		return
	}

	ids := make([]model.GameID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = model.GameID(id)
	}

	deleted, err := h.tracker.DeleteGames(r.Context(), ids)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.DeletedGamesFromModel(deleted))
}

// AddRound handles POST /api/v1/games/{id}/rounds
func (h *GameHandler) AddRound(w http.ResponseWriter, r *http.Request) {
	var req request.RoundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	round, err := h.tracker.AddRound(r.Context(), gameID(r), roundInput(req))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, h.roundResponse(gameID(r), round))
}

// UpdateRound handles PUT /api/v1/games/{id}/rounds/{rid}
func (h *GameHandler) UpdateRound(w http.ResponseWriter, r *http.Request) {
	var req request.RoundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	round, err := h.tracker.UpdateAllPlayerScores(r.Context(), gameID(r), roundID(r), roundInput(req))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.roundResponse(gameID(r), round))
}

// UpdateScore handles PUT /api/v1/games/{id}/rounds/{rid}/scores/{pid}
func (h *GameHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	var req request.ScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.PlayerID = mux.Vars(r)["pid"]

	round, err := h.tracker.UpdatePlayerScore(r.Context(), gameID(r), roundID(r), scoreFromRequest(req))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.roundResponse(gameID(r), round))
}

// DeleteRound handles DELETE /api/v1/games/{id}/rounds/{rid}
func (h *GameHandler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteRound(r.Context(), gameID(r), roundID(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// roundResponse numbers the round by its current position in the game
func (h *GameHandler) roundResponse(id model.GameID, round model.Round) response.Round {
	number := 0
	if game, err := h.tracker.GetGame(id); err == nil {
		number = game.RoundIndex(round.ID) + 1
	}
	return response.RoundFromModel(round, number)
}

func gameID(r *http.Request) model.GameID {
	return model.GameID(mux.Vars(r)["id"])
}

func roundID(r *http.Request) model.RoundID {
	return model.RoundID(mux.Vars(r)["rid"])
}

func scoreFromRequest(s request.ScoreRequest) model.PlayerScore {
	return model.PlayerScore{
		PlayerID:  model.PlayerID(s.PlayerID),
		Score:     s.Score,
		Phase:     s.Phase,
		Completed: s.Completed,
		IsWinner:  s.IsWinner,
	}
}

func roundInput(req request.RoundRequest) tracker.RoundInput {
	input := tracker.RoundInput{
		Scores:      make([]model.PlayerScore, len(req.Scores)),
		PotAmount:   req.PotAmount,
		WinningHand: req.WinningHand,
	}
	for i, s := range req.Scores {
		input.Scores[i] = scoreFromRequest(s)
	}
	if req.WinnerID != nil {
		winner := model.PlayerID(*req.WinnerID)
		input.WinnerID = &winner
	}
	return input
}
