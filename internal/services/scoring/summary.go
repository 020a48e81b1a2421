package scoring

import "github.com/mcoot/scorekeeper/internal/model"

// PlayerStanding is one player's position within a single game
type PlayerStanding struct {
	PlayerID     model.PlayerID
	Name         string
	Total        int
	CurrentPhase int
	LastPlayed   *PhaseResult
}

// GameSummary aggregates per-player totals and phases for a game
type GameSummary struct {
	Game         model.Game
	Standings    []PlayerStanding
	RoundWinners []model.PlayerID // empty string when a round has no winner
}

// Summarize builds the summary for a game
func Summarize(game *model.Game, players []model.Player) GameSummary {
	summary := GameSummary{
		Game:         *game,
		Standings:    make([]PlayerStanding, 0, len(game.Players)),
		RoundWinners: make([]model.PlayerID, len(game.Rounds)),
	}

	for _, id := range game.Players {
		standing := PlayerStanding{
			PlayerID:     id,
			Name:         PlayerName(players, id),
			Total:        CalculateTotalScore(game, id),
			CurrentPhase: GetCurrentPhase(game, id),
		}
		if last, ok := GetLastPlayedPhase(game, id); ok {
			standing.LastPlayed = &last
		}
		summary.Standings = append(summary.Standings, standing)
	}

	for i := range game.Rounds {
		if winner, ok := RoundWinner(game, i); ok {
			summary.RoundWinners[i] = winner
		}
	}
	return summary
}
