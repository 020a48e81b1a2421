package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrEmptyPlayerName     = errors.New("player name cannot be empty")
	ErrDuplicatePlayerName = errors.New("player name already exists")
	ErrInvalidAvatar       = errors.New("invalid avatar")

	// Game errors
	ErrGameNotFound    = errors.New("game not found")
	ErrNoPlayers       = errors.New("game requires at least one player")
	ErrInvalidGameType = errors.New("invalid game type")
	ErrInvalidCode     = errors.New("invalid join code")

	// Round errors
	ErrRoundNotFound  = errors.New("round not found")
	ErrDuplicateScore = errors.New("player already has a score in this round")
	ErrInvalidPhase   = errors.New("phase must be between 1 and 10")
	ErrWinnerMismatch = errors.New("round winner is inconsistent with scores")
	ErrInvalidHand    = errors.New("unknown poker hand")

	// Identity errors
	ErrNotAuthenticated = errors.New("no authenticated identity")

	// Lifecycle errors
	ErrNotReady  = errors.New("state has not been loaded yet")
	ErrLocalSave = errors.New("failed to save locally")
)
