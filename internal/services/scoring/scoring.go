// Package scoring derives totals, phases, winners and rankings from games.
// All functions are pure and assume well-formed input.
package scoring

import (
	"cmp"
	"slices"

	"github.com/mcoot/scorekeeper/internal/model"
)

// UnknownPlayerName is shown for ids that do not resolve to a player
const UnknownPlayerName = "Unknown Player"

// PhaseResult is the phase a player attempted in a round and whether they completed it
type PhaseResult struct {
	Phase     int  `json:"phase"`
	Completed bool `json:"completed"`
}

// Ranking is a player's position in the overall standings
type Ranking struct {
	Player model.Player
	Total  int  // effective total used for ordering
	Manual bool // true when Total came from the player's manual override
	Rank   int  // 1-based
}

// CalculateTotalScore sums the player's scores across the game's rounds.
// Rounds without an entry for the player contribute 0.
func CalculateTotalScore(game *model.Game, playerID model.PlayerID) int {
	total := 0
	for i := range game.Rounds {
		if ps, ok := game.Rounds[i].ScoreFor(playerID); ok {
			total += ps.Score
		}
	}
	return total
}

// CalculateGrandTotal sums CalculateTotalScore over games that list the player.
// Stray scores in games the player is not listed in are ignored.
func CalculateGrandTotal(games []model.Game, playerID model.PlayerID) int {
	total := 0
	for i := range games {
		if !games[i].HasPlayer(playerID) {
			continue
		}
		total += CalculateTotalScore(&games[i], playerID)
	}
	return total
}

// GetCurrentPhase returns the phase the player is working on: one past the
// highest completed phase, capped at 10, or 1 when nothing is completed.
func GetCurrentPhase(game *model.Game, playerID model.PlayerID) int {
	highest := 0
	for i := range game.Rounds {
		ps, ok := game.Rounds[i].ScoreFor(playerID)
		if ok && ps.Completed && ps.Phase > highest {
			highest = ps.Phase
		}
	}
	if highest == 0 {
		return model.MinPhase
	}
	return min(model.MaxPhase, highest+1)
}

// GetLastPlayedPhase returns the phase entry from the most recent round the
// player has a score in.
func GetLastPlayedPhase(game *model.Game, playerID model.PlayerID) (PhaseResult, bool) {
	for i := len(game.Rounds) - 1; i >= 0; i-- {
		if ps, ok := game.Rounds[i].ScoreFor(playerID); ok {
			return PhaseResult{Phase: ps.Phase, Completed: ps.Completed}, true
		}
	}
	return PhaseResult{}, false
}

// GetPlayerRankings orders players by effective total, lowest first. Ties keep
// the input player order.
func GetPlayerRankings(games []model.Game, players []model.Player) []Ranking {
	rankings := make([]Ranking, len(players))
	for i, p := range players {
		r := Ranking{Player: p}
		if p.ManualTotal != nil {
			r.Total = *p.ManualTotal
			r.Manual = true
		} else {
			r.Total = CalculateGrandTotal(games, p.ID)
		}
		rankings[i] = r
	}

	slices.SortStableFunc(rankings, func(a, b Ranking) int {
		return cmp.Compare(a.Total, b.Total)
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings
}

// RoundWinner returns the winner of the round at index. Poker rounds use the
// stored winner. Phase 10 winners are derived: the lowest cumulative score up
// to and including the round, among players scored in that round.
func RoundWinner(game *model.Game, index int) (model.PlayerID, bool) {
	if index < 0 || index >= len(game.Rounds) {
		return "", false
	}
	round := &game.Rounds[index]

	if game.GameType == model.GameTypePoker {
		if round.WinnerID == nil {
			return "", false
		}
		return *round.WinnerID, true
	}

	var (
		winner model.PlayerID
		best   int
		found  bool
	)
	for _, ps := range round.PlayerScores {
		total := 0
		for j := 0; j <= index; j++ {
			if s, ok := game.Rounds[j].ScoreFor(ps.PlayerID); ok {
				total += s.Score
			}
		}
		if !found || total < best {
			winner, best, found = ps.PlayerID, total, true
		}
	}
	return winner, found
}

// SortGamesByDate returns a copy of games ordered newest first
func SortGamesByDate(games []model.Game) []model.Game {
	sorted := slices.Clone(games)
	slices.SortStableFunc(sorted, func(a, b model.Game) int {
		return b.Date.Compare(a.Date)
	})
	return sorted
}

// PlayerName resolves a player id to a display name
func PlayerName(players []model.Player, id model.PlayerID) string {
	for _, p := range players {
		if p.ID == id {
			return p.Name
		}
	}
	return UnknownPlayerName
}
