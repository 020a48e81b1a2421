package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/appearance"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
)

// AddPlayer creates a player. Names are trimmed and must be unique ignoring case.
func (c *Controller) AddPlayer(ctx context.Context, name string) (model.Player, error) {
	if err := c.begin(); err != nil {
		return model.Player{}, err
	}
	defer c.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return model.Player{}, c.reject("add_player", model.ErrEmptyPlayerName)
	}
	for _, p := range c.state.Players {
		if strings.EqualFold(p.Name, name) {
			return model.Player{}, c.reject("add_player", fmt.Errorf("%w: %q", model.ErrDuplicatePlayerName, name))
		}
	}

	player := model.Player{
		ID:     model.PlayerID(c.ids.NewID()),
		Name:   name,
		Color:  appearance.StringToColor(name),
		Avatar: c.assigner.DefaultAvatar(),
	}
	c.state.Players = append(c.state.Players, player)

	c.logger.Info("player added",
		slog.String("player_id", string(player.ID)),
		slog.String("name", player.Name),
	)
	return player.Clone(), c.commit(ctx, "add_player", reconcile.Change{})
}

// updatePlayer applies fn to a player and persists the result
func (c *Controller) updatePlayer(ctx context.Context, op string, id model.PlayerID, fn func(p *model.Player)) (model.Player, error) {
	if err := c.begin(); err != nil {
		return model.Player{}, err
	}
	defer c.mu.Unlock()

	i := c.state.FindPlayer(id)
	if i < 0 {
		return model.Player{}, c.reject(op, fmt.Errorf("%w: %s", model.ErrPlayerNotFound, id))
	}
	fn(&c.state.Players[i])

	c.logger.Info("player updated",
		slog.String("op", op),
		slog.String("player_id", string(id)),
	)
	return c.state.Players[i].Clone(), c.commit(ctx, op, reconcile.Change{})
}

// UpdatePlayerAvatar replaces a player's avatar. A nil avatar resets to the letter avatar.
func (c *Controller) UpdatePlayerAvatar(ctx context.Context, id model.PlayerID, avatar model.Avatar) (model.Player, error) {
	if avatar == nil {
		avatar = model.LetterAvatar{}
	}
	return c.updatePlayer(ctx, "update_avatar", id, func(p *model.Player) {
		p.Avatar = avatar
	})
}

// UpdatePlayerManualTotal sets or, with nil, clears the ranking override
func (c *Controller) UpdatePlayerManualTotal(ctx context.Context, id model.PlayerID, total *int) (model.Player, error) {
	return c.updatePlayer(ctx, "update_manual_total", id, func(p *model.Player) {
		if total == nil {
			p.ManualTotal = nil
			return
		}
		v := *total
		p.ManualTotal = &v
	})
}

// UpdatePlayerMoney sets the player's Poker balance
func (c *Controller) UpdatePlayerMoney(ctx context.Context, id model.PlayerID, money float64) (model.Player, error) {
	return c.updatePlayer(ctx, "update_money", id, func(p *model.Player) {
		p.Money = money
	})
}
