// Package remote mirrors tracker data to a relational backend owned per user.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrUnavailable marks a backend failure that is worth retrying
var ErrUnavailable = errors.New("remote store unavailable")

// ErrMissingParent is returned when a row references a game, round or player
// that the same user does not own
var ErrMissingParent = errors.New("parent row not owned by user")

// PlayerRow is a row of the players table
type PlayerRow struct {
	ID          string
	UserID      string
	Name        string
	Color       string
	Avatar      json.RawMessage
	ManualTotal *int
	Money       *float64
}

// GameRow is a row of the games table
type GameRow struct {
	ID         string
	UserID     string
	UniqueCode string
	Date       time.Time
	GameType   string
}

// GamePlayerRow links a player to a game. (UserID, GameID, PlayerID) is
// unique. Position keeps the game's player display order.
type GamePlayerRow struct {
	UserID   string
	GameID   string
	PlayerID string
	Position int
}

// RoundRow is a row of the rounds table. RoundNumber is the 1-based
// position of the round within its game.
type RoundRow struct {
	ID          string
	UserID      string
	GameID      string
	RoundNumber int
	PotAmount   *float64
	WinnerID    *string
	WinningHand *string
}

// ScoreRow is a row of the player_scores table
type ScoreRow struct {
	ID        string
	UserID    string
	RoundID   string
	PlayerID  string
	Score     int
	Phase     int
	Completed bool
	IsWinner  bool
}

// Repository is the row-level port to the relational store. Every row is
// keyed by (user_id, id), or by (user_id, game_id, player_id) for links, so
// two users saving the same ids get separate rows. Upserts are idempotent.
// A row whose parent the same user does not own is rejected. Reads and
// deletes only see rows owned by userID.
type Repository interface {
	UpsertPlayers(ctx context.Context, rows []PlayerRow) error
	UpsertGames(ctx context.Context, rows []GameRow) error
	UpsertGamePlayers(ctx context.Context, rows []GamePlayerRow) error
	UpsertRounds(ctx context.Context, rows []RoundRow) error
	UpsertScores(ctx context.Context, rows []ScoreRow) error

	ListPlayers(ctx context.Context, userID string) ([]PlayerRow, error)
	ListGames(ctx context.Context, userID string) ([]GameRow, error)
	// ListGamePlayers returns links ordered by game then position
	ListGamePlayers(ctx context.Context, userID string, gameIDs []string) ([]GamePlayerRow, error)
	// ListRounds returns rounds ordered by game then round_number
	ListRounds(ctx context.Context, userID string, gameIDs []string) ([]RoundRow, error)
	ListScores(ctx context.Context, userID string, roundIDs []string) ([]ScoreRow, error)

	DeleteScoresForGames(ctx context.Context, userID string, gameIDs []string) error
	DeleteRoundsForGames(ctx context.Context, userID string, gameIDs []string) error
	DeleteGamePlayers(ctx context.Context, userID string, gameIDs []string) error
	DeleteGames(ctx context.Context, userID string, gameIDs []string) error

	DeleteScoresForRounds(ctx context.Context, userID string, roundIDs []string) error
	DeleteRounds(ctx context.Context, userID string, roundIDs []string) error

	DeleteScores(ctx context.Context, userID string, scoreIDs []string) error
	// DeleteLinks removes the given (game_id, player_id) pairs
	DeleteLinks(ctx context.Context, userID string, links []GamePlayerRow) error
	DeletePlayers(ctx context.Context, userID string, playerIDs []string) error

	Close() error
}
