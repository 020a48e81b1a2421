// Package tracker owns the in-memory game and player state and applies every
// mutation to it before handing the result to the reconcile engine.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/dependencies/ids"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/remote"
	"github.com/mcoot/scorekeeper/internal/services/appearance"
	"github.com/mcoot/scorekeeper/internal/services/joincode"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	"github.com/mcoot/scorekeeper/internal/services/transfer"
)

// Controller is the single writer of tracked state. Queries return copies.
type Controller struct {
	mu       sync.Mutex
	state    model.Snapshot
	identity *model.Identity
	ready    bool

	engine    *reconcile.Engine
	transfer  *transfer.Service
	joinCodes *joincode.Generator
	assigner  *appearance.Assigner
	ids       ids.Generator
	clock     clock.Clock
	notifier  reconcile.Notifier
	logger    *slog.Logger
}

// NewController creates a controller. Call Start before issuing commands.
func NewController(
	engine *reconcile.Engine,
	transferService *transfer.Service,
	joinCodes *joincode.Generator,
	assigner *appearance.Assigner,
	idGen ids.Generator,
	clk clock.Clock,
	notifier reconcile.Notifier,
	logger *slog.Logger,
) *Controller {
	c := &Controller{
		engine:    engine,
		transfer:  transferService,
		joinCodes: joinCodes,
		assigner:  assigner,
		ids:       idGen,
		clock:     clk,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "tracker")),
	}
	engine.OnRemoteSaved(c.applyAssignments)
	return c
}

// Start loads the initial state for identity. A nil identity is anonymous.
func (c *Controller) Start(ctx context.Context, identity *model.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.engine.Hydrate(ctx, identity)
	if err != nil {
		return err
	}
	c.install(result, identity)
	return nil
}

// Ready reports whether the initial state has been loaded
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// install replaces state with a hydrate result. Caller holds mu.
func (c *Controller) install(result reconcile.HydrateResult, identity *model.Identity) {
	c.state = result.Snapshot
	c.identity = identity
	c.ready = true

	attrs := []any{
		slog.String("source", string(result.Source)),
		slog.Int("game_count", len(c.state.Games)),
		slog.Int("player_count", len(c.state.Players)),
	}
	if identity != nil {
		attrs = append(attrs, slog.String("user_id", string(identity.UserID)))
	}
	c.logger.Info("state loaded", attrs...)
}

// Identity returns the current identity, or nil when anonymous
func (c *Controller) Identity() *model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// SetIdentity switches to a new identity and reloads state for it. Queued
// remote writes for the previous identity still run.
func (c *Controller) SetIdentity(ctx context.Context, identity *model.Identity) (reconcile.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if identity != nil && identity.UserID == "" {
		identity = nil
	}
	if c.ready && sameIdentity(c.identity, identity) {
		return reconcile.SourceLocal, nil
	}

	previous := c.identity
	result, err := c.engine.Hydrate(ctx, identity)
	if err != nil {
		return "", err
	}
	c.engine.Release(previous)
	c.install(result, identity)

	message := "Signed out. Showing data saved on this device."
	var userID model.UserID
	if identity != nil {
		userID = identity.UserID
		message = fmt.Sprintf("Signed in as %s. Loaded %s data.", identity.UserID, result.Source)
	}
	c.publish(model.NotificationIdentityChanged, model.LevelInfo, userID, "Account changed", message)
	return result.Source, nil
}

func sameIdentity(a, b *model.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UserID == b.UserID
}

// Flush waits for queued remote writes
func (c *Controller) Flush(ctx context.Context) error {
	return c.engine.Flush(ctx)
}

// Close drains queued remote writes until ctx expires
func (c *Controller) Close(ctx context.Context) error {
	return c.engine.Close(ctx)
}

// begin locks the controller for a mutation. The caller must call c.mu.Unlock.
func (c *Controller) begin() error {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return model.ErrNotReady
	}
	return nil
}

// reject reports a mutation refused before any state changed, publishing it
// for the user. Caller holds mu.
func (c *Controller) reject(op string, err error) error {
	c.logger.Warn("mutation rejected",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	c.publish(model.NotificationMutationFailed, model.LevelError, c.userID(), "Change not saved", err.Error())
	return err
}

// commit persists the current state after a mutation. Caller holds mu.
// A local failure is returned but the in-memory change stands.
func (c *Controller) commit(ctx context.Context, op string, change reconcile.Change) error {
	if err := c.engine.Persist(ctx, c.identity, c.state, change); err != nil {
		c.logger.Error("mutation not saved locally",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// applyAssignments copies values generated by the remote store into memory
// and the local store. It does not queue another remote save.
func (c *Controller) applyAssignments(userID model.UserID, result remote.SaveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil || c.identity.UserID != userID {
		return
	}

	applied := 0
	for gameID, code := range result.AssignedCodes {
		if i := c.state.FindGame(gameID); i >= 0 && c.state.Games[i].UniqueCode == "" {
			c.state.Games[i].UniqueCode = code
			applied++
		}
	}
	for _, a := range result.AssignedScores {
		gi := c.state.FindGame(a.GameID)
		if gi < 0 {
			continue
		}
		ri := c.state.Games[gi].RoundIndex(a.RoundID)
		if ri < 0 {
			continue
		}
		scores := c.state.Games[gi].Rounds[ri].PlayerScores
		for i := range scores {
			if scores[i].PlayerID == a.PlayerID && scores[i].ID == "" {
				scores[i].ID = a.ScoreID
				applied++
			}
		}
	}
	if applied == 0 {
		return
	}

	if err := c.engine.SaveLocal(context.Background(), c.state); err != nil {
		c.logger.Error("failed to save assigned values locally",
			slog.String("error", err.Error()),
		)
	}
	c.logger.Info("applied values assigned by remote store",
		slog.String("user_id", string(userID)),
		slog.Int("applied", applied),
	)
	c.publish(model.NotificationCodesAssigned, model.LevelInfo, userID,
		"Join codes assigned", fmt.Sprintf("%d game(s) received join codes", len(result.AssignedCodes)))
}

func (c *Controller) publish(kind model.NotificationKind, level model.NotificationLevel, userID model.UserID, title, message string) {
	c.notifier.Publish(model.Notification{
		Kind:    kind,
		Level:   level,
		Title:   title,
		Message: message,
		UserID:  userID,
		At:      c.clock.Now(),
	})
}
