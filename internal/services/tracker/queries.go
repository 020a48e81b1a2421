package tracker

import (
	"fmt"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/scoring"
)

// Snapshot returns a copy of all state
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Games returns all games in state order
func (c *Controller) Games() []model.Game {
	return c.Snapshot().Games
}

// GamesByDate returns all games, newest first
func (c *Controller) GamesByDate() []model.Game {
	return scoring.SortGamesByDate(c.Games())
}

// Players returns all players in creation order
func (c *Controller) Players() []model.Player {
	return c.Snapshot().Players
}

// GetGame returns a game by id
func (c *Controller) GetGame(id model.GameID) (model.Game, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.state.FindGame(id)
	if i < 0 {
		return model.Game{}, fmt.Errorf("%w: %s", model.ErrGameNotFound, id)
	}
	return c.state.Games[i].Clone(), nil
}

// GetGameByCode returns the game with exactly this join code
func (c *Controller) GetGameByCode(code string) (model.Game, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.state.Games {
		if g.UniqueCode == code {
			return g.Clone(), nil
		}
	}
	return model.Game{}, fmt.Errorf("%w: no game with code %q", model.ErrGameNotFound, code)
}

// GetPlayer returns a player by id
func (c *Controller) GetPlayer(id model.PlayerID) (model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.state.FindPlayer(id)
	if i < 0 {
		return model.Player{}, fmt.Errorf("%w: %s", model.ErrPlayerNotFound, id)
	}
	return c.state.Players[i].Clone(), nil
}

// Rankings orders players by effective total, lowest first
func (c *Controller) Rankings() []scoring.Ranking {
	s := c.Snapshot()
	return scoring.GetPlayerRankings(s.Games, s.Players)
}

// GameSummary returns per-player totals and phases for a game
func (c *Controller) GameSummary(id model.GameID) (scoring.GameSummary, error) {
	s := c.Snapshot()
	i := s.FindGame(id)
	if i < 0 {
		return scoring.GameSummary{}, fmt.Errorf("%w: %s", model.ErrGameNotFound, id)
	}
	return scoring.Summarize(&s.Games[i], s.Players), nil
}
