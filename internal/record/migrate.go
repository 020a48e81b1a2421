package record

import (
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/appearance"
)

// UpgradeGames brings game records written at version up to CurrentVersion.
// Version 0 predates game types; every such game is Phase 10.
func UpgradeGames(version int, games []Game) []Game {
	if version < 1 {
		for i := range games {
			if games[i].GameType == "" {
				games[i].GameType = string(model.GameTypePhase10)
			}
		}
	}
	return games
}

// UpgradePlayers brings player records written at version up to CurrentVersion
func UpgradePlayers(_ int, players []Player) []Player {
	return FillColors(players)
}

// FillColors derives a color for every player that lacks one
func FillColors(players []Player) []Player {
	for i := range players {
		if players[i].Color == "" {
			players[i].Color = appearance.StringToColor(players[i].Name)
		}
	}
	return players
}
