package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	"github.com/mcoot/scorekeeper/internal/services/transfer"
)

// ExportJSON serializes the current state
func (c *Controller) ExportJSON() ([]byte, error) {
	return c.transfer.ExportJSON(c.Snapshot())
}

// ExportCSV flattens the current state to one row per round
func (c *Controller) ExportCSV() ([]byte, error) {
	return transfer.ExportCSV(c.Snapshot())
}

// ImportJSON replaces all state with the document's contents and returns a
// copy of what was applied. Games that existed before and are absent from the
// document are deleted remotely too.
func (c *Controller) ImportJSON(ctx context.Context, data []byte) (model.Snapshot, transfer.ImportReport, error) {
	if err := c.begin(); err != nil {
		return model.Snapshot{}, transfer.ImportReport{}, err
	}
	defer c.mu.Unlock()

	snapshot, report, err := c.transfer.ImportJSON(data)
	if err != nil {
		return model.Snapshot{}, report, c.reject("import_json", err)
	}

	var removed []model.GameID
	for _, g := range c.state.Games {
		if snapshot.FindGame(g.ID) < 0 {
			removed = append(removed, g.ID)
		}
	}
	c.state = snapshot

	c.logger.Info("json import applied",
		slog.Int("game_count", len(snapshot.Games)),
		slog.Int("player_count", len(snapshot.Players)),
		slog.Int("removed_games", len(removed)),
	)
	c.publish(model.NotificationImport, model.LevelInfo, c.userID(), "Import complete",
		fmt.Sprintf("Imported %d game(s) and %d player(s)", len(snapshot.Games), len(snapshot.Players)))
	return c.state.Clone(), report, c.commit(ctx, "import_json", reconcile.Change{DeletedGames: removed})
}

// ImportCSV adds the document's games, and any players it names that do not
// exist yet, to the current state
func (c *Controller) ImportCSV(ctx context.Context, data []byte) (transfer.CSVResult, transfer.ImportReport, error) {
	if err := c.begin(); err != nil {
		return transfer.CSVResult{}, transfer.ImportReport{}, err
	}
	defer c.mu.Unlock()

	result, report, err := c.transfer.ImportCSV(data, c.state)
	if err != nil {
		return result, report, c.reject("import_csv", err)
	}

	c.state.Players = append(c.state.Players, result.NewPlayers...)
	c.state.Games = append(c.state.Games, result.Games...)

	c.logger.Info("csv import applied",
		slog.Int("new_game_count", len(result.Games)),
		slog.Int("new_player_count", len(result.NewPlayers)),
	)
	c.publish(model.NotificationImport, model.LevelInfo, c.userID(), "Import complete",
		fmt.Sprintf("Added %d game(s) and %d new player(s)", len(result.Games), len(result.NewPlayers)))
	return result, report, c.commit(ctx, "import_csv", reconcile.Change{})
}

// userID returns the signed-in user id or empty. Caller holds mu.
func (c *Controller) userID() model.UserID {
	if c.identity == nil {
		return ""
	}
	return c.identity.UserID
}
