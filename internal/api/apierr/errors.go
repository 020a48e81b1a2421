package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/transfer"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidName     = "INVALID_NAME"
	CodeInvalidAvatar   = "INVALID_AVATAR"
	CodeInvalidGameType = "INVALID_GAME_TYPE"
	CodeInvalidCode     = "INVALID_CODE"
	CodeInvalidPhase    = "INVALID_PHASE"
	CodeInvalidWinner   = "INVALID_WINNER"
	CodeInvalidHand     = "INVALID_HAND"
	CodeInvalidImport   = "INVALID_IMPORT"
	CodeNoPlayers       = "NO_PLAYERS"
	CodePlayerNotFound  = "PLAYER_NOT_FOUND"
	CodeGameNotFound    = "GAME_NOT_FOUND"
	CodeRoundNotFound   = "ROUND_NOT_FOUND"
	CodePlayerExists    = "PLAYER_EXISTS"
	CodeDuplicateScore  = "DUPLICATE_SCORE"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotReady        = "NOT_READY"
	CodeLocalSaveFailed = "LOCAL_SAVE_FAILED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}
	var fe *transfer.FormatError
	if errors.As(err, &fe) {
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeInvalidImport, fe.Error()}}
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrRoundNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoundNotFound, "Round not found"}}
	case errors.Is(err, model.ErrEmptyPlayerName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidName, "Player name cannot be empty"}}
	case errors.Is(err, model.ErrDuplicatePlayerName):
		return &httpError{http.StatusConflict, APIError{CodePlayerExists, "A player with that name already exists"}}
	case errors.Is(err, model.ErrInvalidAvatar):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAvatar, "Invalid avatar"}}
	case errors.Is(err, model.ErrNoPlayers):
		return &httpError{http.StatusBadRequest, APIError{CodeNoPlayers, "A game needs at least one known player"}}
	case errors.Is(err, model.ErrInvalidGameType):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGameType, "Game type must be Phase 10 or Poker"}}
	case errors.Is(err, model.ErrInvalidCode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCode, "Invalid game code"}}
	case errors.Is(err, model.ErrDuplicateScore):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateScore, "A player can only have one score per round"}}
	case errors.Is(err, model.ErrInvalidPhase):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPhase, "Phase must be between 1 and 10"}}
	case errors.Is(err, model.ErrWinnerMismatch):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidWinner, "Round winner must be one scored player"}}
	case errors.Is(err, model.ErrInvalidHand):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidHand, "Unknown poker hand"}}
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Sign in required"}}
	case errors.Is(err, model.ErrNotReady):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeNotReady, "Data is still loading"}}
	case errors.Is(err, model.ErrLocalSave):
		return &httpError{http.StatusInternalServerError, APIError{CodeLocalSaveFailed, "Change applied but could not be saved on this device"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
