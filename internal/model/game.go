package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// GameID uniquely identifies a game
type GameID string

// RoundID uniquely identifies a round
type RoundID string

// ScoreID uniquely identifies a player score row
type ScoreID string

// GameType selects which round fields are meaningful
type GameType string

const (
	GameTypePhase10 GameType = "Phase 10"
	GameTypePoker   GameType = "Poker"
)

// MinPhase and MaxPhase bound a Phase 10 phase number
const (
	MinPhase = 1
	MaxPhase = 10
)

// PokerHands lists the recognised winning hands, weakest first
var PokerHands = []string{
	"High Card",
	"One Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
	"Royal Flush",
}

// IsPokerHand reports whether hand is one of PokerHands
func IsPokerHand(hand string) bool {
	return slices.Contains(PokerHands, hand)
}

// ParseGameType parses a wire or user supplied game type. Empty means Phase 10.
func ParseGameType(s string) (GameType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "phase 10", "phase10":
		return GameTypePhase10, nil
	case "poker":
		return GameTypePoker, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGameType, s)
	}
}

// Game is one session of play
type Game struct {
	ID         GameID
	UniqueCode string // three-word join code
	Date       time.Time
	GameType   GameType

	// Players holds foreign keys in display order
	Players []PlayerID

	// Rounds in play order; position+1 is the round number
	Rounds []Round
}

// Round is one scored play of a game
type Round struct {
	ID           RoundID
	PlayerScores []PlayerScore

	// Poker only
	PotAmount   *float64
	WinnerID    *PlayerID
	WinningHand string
}

// PlayerScore is one player's result in a round
type PlayerScore struct {
	ID        ScoreID
	PlayerID  PlayerID
	Score     int
	Phase     int
	Completed bool
	IsWinner  bool // Poker only, mirrors Round.WinnerID
}

// HasPlayer reports whether the player is listed in the game
func (g *Game) HasPlayer(id PlayerID) bool {
	return slices.Contains(g.Players, id)
}

// RoundIndex returns the position of a round, or -1
func (g *Game) RoundIndex(id RoundID) int {
	return slices.IndexFunc(g.Rounds, func(r Round) bool { return r.ID == id })
}

// Clone returns a deep copy of the game
func (g Game) Clone() Game {
	g.Players = slices.Clone(g.Players)
	rounds := make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		rounds[i] = r.Clone()
	}
	g.Rounds = rounds
	return g
}

// ScoreFor returns the score entry for a player, if present
func (r *Round) ScoreFor(id PlayerID) (PlayerScore, bool) {
	for _, ps := range r.PlayerScores {
		if ps.PlayerID == id {
			return ps, true
		}
	}
	return PlayerScore{}, false
}

// Clone returns a deep copy of the round
func (r Round) Clone() Round {
	r.PlayerScores = slices.Clone(r.PlayerScores)
	if r.PotAmount != nil {
		v := *r.PotAmount
		r.PotAmount = &v
	}
	if r.WinnerID != nil {
		v := *r.WinnerID
		r.WinnerID = &v
	}
	return r
}

// Validate checks per-round invariants: one score per player and phases in range
func (r *Round) Validate() error {
	seen := make(map[PlayerID]bool, len(r.PlayerScores))
	for _, ps := range r.PlayerScores {
		if ps.PlayerID == "" {
			return fmt.Errorf("%w: score without player id", ErrPlayerNotFound)
		}
		if seen[ps.PlayerID] {
			return fmt.Errorf("%w: player %s", ErrDuplicateScore, ps.PlayerID)
		}
		seen[ps.PlayerID] = true
		if ps.Phase < MinPhase || ps.Phase > MaxPhase {
			return fmt.Errorf("%w: %d", ErrInvalidPhase, ps.Phase)
		}
	}
	return nil
}

// NormalizeWinner makes the winner fields consistent for the game type.
// Phase 10 winners are derived, so stored winner data is cleared. For Poker a
// WinnerID wins over IsWinner flags; without one, a single flagged score is
// promoted. More than one flag, or a winner with no score, is an error.
func (r *Round) NormalizeWinner(gameType GameType) error {
	if gameType != GameTypePoker {
		r.WinnerID = nil
		r.WinningHand = ""
		r.PotAmount = nil
		for i := range r.PlayerScores {
			r.PlayerScores[i].IsWinner = false
		}
		return nil
	}

	if r.WinnerID == nil || *r.WinnerID == "" {
		r.WinnerID = nil
		var flagged []PlayerID
		for _, ps := range r.PlayerScores {
			if ps.IsWinner {
				flagged = append(flagged, ps.PlayerID)
			}
		}
		switch len(flagged) {
		case 0:
			return nil
		case 1:
			winner := flagged[0]
			r.WinnerID = &winner
		default:
			return fmt.Errorf("%w: %d scores flagged as winner", ErrWinnerMismatch, len(flagged))
		}
	}

	if _, ok := r.ScoreFor(*r.WinnerID); !ok {
		return fmt.Errorf("%w: winner %s has no score in round", ErrWinnerMismatch, *r.WinnerID)
	}
	for i := range r.PlayerScores {
		r.PlayerScores[i].IsWinner = r.PlayerScores[i].PlayerID == *r.WinnerID
	}
	return nil
}

// Check validates the round for gameType, including the Poker hand name,
// and normalizes its winner fields
func (r *Round) Check(gameType GameType) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if gameType == GameTypePoker && r.WinningHand != "" && !IsPokerHand(r.WinningHand) {
		return fmt.Errorf("%w: %q", ErrInvalidHand, r.WinningHand)
	}
	return r.NormalizeWinner(gameType)
}

// EnsureScoreIDs assigns ids to scores lacking one and reports how many were assigned
func (r *Round) EnsureScoreIDs(newID func() string) int {
	assigned := 0
	for i := range r.PlayerScores {
		if r.PlayerScores[i].ID == "" {
			r.PlayerScores[i].ID = ScoreID(newID())
			assigned++
		}
	}
	return assigned
}
