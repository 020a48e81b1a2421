package transfer

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/record"
)

// document is the JSON export layout
type document struct {
	Games      []record.Game   `json:"games"`
	Players    []record.Player `json:"players"`
	ExportDate string          `json:"exportDate"`
}

// rawDocument defers decoding so missing and mistyped fields can be told apart
type rawDocument struct {
	Games   json.RawMessage `json:"games"`
	Players json.RawMessage `json:"players"`
}

// ExportJSON writes the snapshot as an indented JSON document stamped with now
func ExportJSON(snapshot model.Snapshot, now time.Time) ([]byte, error) {
	games, players := record.EncodeSnapshot(snapshot)
	return json.MarshalIndent(document{
		Games:      games,
		Players:    players,
		ExportDate: record.FormatDate(now),
	}, "", "  ")
}

// ExportJSON writes the snapshot stamped with the current time
func (s *Service) ExportJSON(snapshot model.Snapshot) ([]byte, error) {
	return ExportJSON(snapshot, s.clock.Now())
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// ImportJSON parses a JSON document into a replacement snapshot. Games
// whose players are not in the document, or with a round that fails
// validation, are dropped and reported; players are always kept.
func (s *Service) ImportJSON(data []byte) (model.Snapshot, ImportReport, error) {
	var report ImportReport

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Snapshot{}, report, &FormatError{Format: FormatJSON, Reason: "malformed document", Err: err}
	}
	if !isArray(raw.Games) {
		return model.Snapshot{}, report, &FormatError{Format: FormatJSON, Reason: `"games" must be an array`}
	}
	if !isArray(raw.Players) {
		return model.Snapshot{}, report, &FormatError{Format: FormatJSON, Reason: `"players" must be an array`}
	}

	var gameRecs []record.Game
	if err := json.Unmarshal(raw.Games, &gameRecs); err != nil {
		return model.Snapshot{}, report, &FormatError{Format: FormatJSON, Reason: "malformed games", Err: err}
	}
	var playerRecs []record.Player
	if err := json.Unmarshal(raw.Players, &playerRecs); err != nil {
		return model.Snapshot{}, report, &FormatError{Format: FormatJSON, Reason: "malformed players", Err: err}
	}

	for _, p := range playerRecs {
		if p.Color == "" {
			report.AssignedColors++
		}
	}
	players := record.DecodePlayers(record.FillColors(playerRecs))
	for i := range players {
		if players[i].Avatar == nil {
			players[i].Avatar = model.LetterAvatar{}
		}
	}

	decoded, repairs := record.DecodeGames(gameRecs, s.clock.Now())
	report.DateRepairs = repairs

	known := make(map[model.PlayerID]bool, len(players))
	for _, p := range players {
		known[p.ID] = true
	}

	games := make([]model.Game, 0, len(decoded))
	taken := make(map[string]bool, len(decoded))
	for _, g := range decoded {
		if missing := missingPlayers(g, known); len(missing) > 0 {
			report.Warnings = append(report.Warnings, ReferentialWarning{GameID: string(g.ID), MissingPlayerIDs: missing})
			continue
		}
		if rejected, ok := checkRounds(&g); !ok {
			report.Rejected = append(report.Rejected, rejected)
			continue
		}
		if g.UniqueCode != "" {
			taken[g.UniqueCode] = true
		}
		games = append(games, g)
	}

	for i := range games {
		if games[i].UniqueCode == "" {
			games[i].UniqueCode = s.joinCodes.GenerateUnique(func(c string) bool { return taken[c] })
			taken[games[i].UniqueCode] = true
			report.AssignedCodes++
		}
		for j := range games[i].Rounds {
			report.AssignedScoreIDs += games[i].Rounds[j].EnsureScoreIDs(s.ids.NewID)
		}
	}

	s.logRepairs(FormatJSON, report)
	s.logger.Info("json import parsed",
		slog.Int("game_count", len(games)),
		slog.Int("player_count", len(players)),
		slog.Int("dropped_games", len(report.Warnings)+len(report.Rejected)),
	)
	return model.Snapshot{Games: games, Players: players}, report, nil
}

// checkRounds validates every round of g in place, normalizing winner
// fields, and reports the first invalid one
func checkRounds(g *model.Game) (RejectedGame, bool) {
	for i := range g.Rounds {
		if err := g.Rounds[i].Check(g.GameType); err != nil {
			return RejectedGame{GameID: string(g.ID), RoundID: string(g.Rounds[i].ID), Reason: err.Error()}, false
		}
	}
	return RejectedGame{}, true
}

// missingPlayers lists ids the game references, directly or through its
// rounds, that are not known
func missingPlayers(g model.Game, known map[model.PlayerID]bool) []string {
	var missing []string
	note := func(id model.PlayerID) {
		if !known[id] && !slices.Contains(missing, string(id)) {
			missing = append(missing, string(id))
		}
	}
	for _, id := range g.Players {
		note(id)
	}
	for _, r := range g.Rounds {
		for _, ps := range r.PlayerScores {
			note(ps.PlayerID)
		}
		if r.WinnerID != nil {
			note(*r.WinnerID)
		}
	}
	return missing
}
