package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
)

// RoundInput is the user-entered content of a round
type RoundInput struct {
	Scores []model.PlayerScore

	// Poker only
	PotAmount   *float64
	WinnerID    *model.PlayerID
	WinningHand string
}

// CreateGame starts a game for the given players. Unknown player ids are
// skipped; a zero date means now.
func (c *Controller) CreateGame(ctx context.Context, date time.Time, playerIDs []model.PlayerID, gameType model.GameType) (model.Game, error) {
	if err := c.begin(); err != nil {
		return model.Game{}, err
	}
	defer c.mu.Unlock()

	if gameType == "" {
		gameType = model.GameTypePhase10
	}
	if gameType != model.GameTypePhase10 && gameType != model.GameTypePoker {
		return model.Game{}, c.reject("create_game", fmt.Errorf("%w: %q", model.ErrInvalidGameType, gameType))
	}

	known := c.state.PlayerIDs()
	players := make([]model.PlayerID, 0, len(playerIDs))
	for _, id := range playerIDs {
		if known[id] && !slices.Contains(players, id) {
			players = append(players, id)
		}
	}
	if len(players) == 0 {
		return model.Game{}, c.reject("create_game", model.ErrNoPlayers)
	}

	if date.IsZero() {
		date = c.clock.Now()
	}

	game := model.Game{
		ID:         model.GameID(c.ids.NewID()),
		UniqueCode: c.joinCodes.GenerateUnique(c.codeTaken),
		Date:       date.UTC(),
		GameType:   gameType,
		Players:    players,
		Rounds:     []model.Round{},
	}
	c.state.Games = append(c.state.Games, game)

	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("code", game.UniqueCode),
		slog.String("game_type", string(game.GameType)),
		slog.Int("player_count", len(players)),
	)
	return game.Clone(), c.commit(ctx, "create_game", reconcile.Change{})
}

// codeTaken reports whether a current game uses code. Caller holds mu.
func (c *Controller) codeTaken(code string) bool {
	return slices.ContainsFunc(c.state.Games, func(g model.Game) bool { return g.UniqueCode == code })
}

// gameIndex finds a game. Caller holds mu.
func (c *Controller) gameIndex(id model.GameID) (int, error) {
	i := c.state.FindGame(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", model.ErrGameNotFound, id)
	}
	return i, nil
}

// roundIndex finds a round within a game. Caller holds mu.
func (c *Controller) roundIndex(gameID model.GameID, roundID model.RoundID) (int, int, error) {
	gi, err := c.gameIndex(gameID)
	if err != nil {
		return -1, -1, err
	}
	ri := c.state.Games[gi].RoundIndex(roundID)
	if ri < 0 {
		return -1, -1, fmt.Errorf("%w: %s", model.ErrRoundNotFound, roundID)
	}
	return gi, ri, nil
}

// buildRound validates input against the game and returns a normalized
// round. Existing score ids are reused by player.
func (c *Controller) buildRound(game *model.Game, id model.RoundID, input RoundInput, previous []model.PlayerScore) (model.Round, error) {
	round := model.Round{
		ID:           id,
		PlayerScores: make([]model.PlayerScore, 0, len(input.Scores)),
		PotAmount:    input.PotAmount,
		WinnerID:     input.WinnerID,
		WinningHand:  input.WinningHand,
	}
	for _, ps := range input.Scores {
		if !game.HasPlayer(ps.PlayerID) {
			return model.Round{}, fmt.Errorf("%w: %s is not in game %s", model.ErrPlayerNotFound, ps.PlayerID, game.ID)
		}
		if ps.ID == "" {
			if i := slices.IndexFunc(previous, func(p model.PlayerScore) bool { return p.PlayerID == ps.PlayerID }); i >= 0 {
				ps.ID = previous[i].ID
			}
		}
		round.PlayerScores = append(round.PlayerScores, ps)
	}
	if err := round.Check(game.GameType); err != nil {
		return model.Round{}, err
	}
	round.EnsureScoreIDs(c.ids.NewID)
	return round.Clone(), nil
}

// AddRound appends a round. Nothing changes unless the whole round is valid.
func (c *Controller) AddRound(ctx context.Context, gameID model.GameID, input RoundInput) (model.Round, error) {
	if err := c.begin(); err != nil {
		return model.Round{}, err
	}
	defer c.mu.Unlock()

	gi, err := c.gameIndex(gameID)
	if err != nil {
		return model.Round{}, c.reject("add_round", err)
	}
	game := &c.state.Games[gi]

	round, err := c.buildRound(game, model.RoundID(c.ids.NewID()), input, nil)
	if err != nil {
		return model.Round{}, c.reject("add_round", err)
	}
	game.Rounds = append(game.Rounds, round)

	c.logger.Info("round added",
		slog.String("game_id", string(gameID)),
		slog.String("round_id", string(round.ID)),
		slog.Int("round_number", len(game.Rounds)),
	)
	return round.Clone(), c.commit(ctx, "add_round", reconcile.Change{})
}

// UpdateAllPlayerScores replaces a round's scores and Poker fields
func (c *Controller) UpdateAllPlayerScores(ctx context.Context, gameID model.GameID, roundID model.RoundID, input RoundInput) (model.Round, error) {
	if err := c.begin(); err != nil {
		return model.Round{}, err
	}
	defer c.mu.Unlock()

	gi, ri, err := c.roundIndex(gameID, roundID)
	if err != nil {
		return model.Round{}, c.reject("update_round", err)
	}
	game := &c.state.Games[gi]

	round, err := c.buildRound(game, roundID, input, game.Rounds[ri].PlayerScores)
	if err != nil {
		return model.Round{}, c.reject("update_round", err)
	}
	game.Rounds[ri] = round

	c.logger.Info("round updated",
		slog.String("game_id", string(gameID)),
		slog.String("round_id", string(roundID)),
	)
	return round.Clone(), c.commit(ctx, "update_round", reconcile.Change{})
}

// UpdatePlayerScore replaces one player's score in a round, adding it when
// the player has none. For Poker, IsWinner moves the round's winner.
func (c *Controller) UpdatePlayerScore(ctx context.Context, gameID model.GameID, roundID model.RoundID, score model.PlayerScore) (model.Round, error) {
	if err := c.begin(); err != nil {
		return model.Round{}, err
	}
	defer c.mu.Unlock()

	gi, ri, err := c.roundIndex(gameID, roundID)
	if err != nil {
		return model.Round{}, c.reject("update_score", err)
	}
	game := &c.state.Games[gi]
	current := game.Rounds[ri]

	input := RoundInput{
		Scores:      slices.Clone(current.PlayerScores),
		PotAmount:   current.PotAmount,
		WinnerID:    current.WinnerID,
		WinningHand: current.WinningHand,
	}
	if i := slices.IndexFunc(input.Scores, func(p model.PlayerScore) bool { return p.PlayerID == score.PlayerID }); i >= 0 {
		score.ID = input.Scores[i].ID
		input.Scores[i] = score
	} else {
		input.Scores = append(input.Scores, score)
	}

	if game.GameType == model.GameTypePoker {
		switch {
		case score.IsWinner:
			winner := score.PlayerID
			input.WinnerID = &winner
		case input.WinnerID != nil && *input.WinnerID == score.PlayerID:
			input.WinnerID = nil
			for i := range input.Scores {
				input.Scores[i].IsWinner = false
			}
		}
	}

	round, err := c.buildRound(game, roundID, input, current.PlayerScores)
	if err != nil {
		return model.Round{}, c.reject("update_score", err)
	}
	game.Rounds[ri] = round

	c.logger.Info("score updated",
		slog.String("game_id", string(gameID)),
		slog.String("round_id", string(roundID)),
		slog.String("player_id", string(score.PlayerID)),
	)
	return round.Clone(), c.commit(ctx, "update_score", reconcile.Change{})
}

// DeleteGame removes a game and its rounds
func (c *Controller) DeleteGame(ctx context.Context, gameID model.GameID) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	gi, err := c.gameIndex(gameID)
	if err != nil {
		return c.reject("delete_game", err)
	}
	c.state.Games = slices.Delete(c.state.Games, gi, gi+1)

	c.logger.Info("game deleted", slog.String("game_id", string(gameID)))
	return c.commit(ctx, "delete_game", reconcile.Change{DeletedGames: []model.GameID{gameID}})
}

// DeleteGames removes every listed game that exists and returns the ids removed
func (c *Controller) DeleteGames(ctx context.Context, gameIDs []model.GameID) ([]model.GameID, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()

	var deleted []model.GameID
	c.state.Games = slices.DeleteFunc(c.state.Games, func(g model.Game) bool {
		if slices.Contains(gameIDs, g.ID) {
			deleted = append(deleted, g.ID)
			return true
		}
		return false
	})
	if len(deleted) == 0 {
		return nil, nil
	}

	c.logger.Info("games deleted", slog.Int("count", len(deleted)))
	return deleted, c.commit(ctx, "delete_games", reconcile.Change{DeletedGames: deleted})
}

// DeleteRound removes a round; later rounds move up one place
func (c *Controller) DeleteRound(ctx context.Context, gameID model.GameID, roundID model.RoundID) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	gi, ri, err := c.roundIndex(gameID, roundID)
	if err != nil {
		return c.reject("delete_round", err)
	}
	game := &c.state.Games[gi]
	game.Rounds = slices.Delete(game.Rounds, ri, ri+1)

	c.logger.Info("round deleted",
		slog.String("game_id", string(gameID)),
		slog.String("round_id", string(roundID)),
	)
	return c.commit(ctx, "delete_round", reconcile.Change{DeletedRounds: []model.RoundID{roundID}})
}
