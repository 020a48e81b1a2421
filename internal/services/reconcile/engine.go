// Package reconcile keeps the local store and the remote store in line with
// the in-memory state. Local writes are synchronous; remote writes are
// mirrored in the background, one ordered queue per signed-in user.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/remote"
	"github.com/mcoot/scorekeeper/internal/storage/local"
)

// LocalStore is the always-available device store
type LocalStore interface {
	Save(ctx context.Context, snapshot model.Snapshot) error
	Load(ctx context.Context) (model.Snapshot, local.LoadReport, error)
}

// RemoteStore is the per-user relational store
type RemoteStore interface {
	LoadAll(ctx context.Context, userID model.UserID) (model.Snapshot, error)
	SaveAll(ctx context.Context, userID model.UserID, snapshot model.Snapshot) (remote.SaveResult, error)
	DeleteGames(ctx context.Context, userID model.UserID, ids []model.GameID) error
	DeleteRounds(ctx context.Context, userID model.UserID, ids []model.RoundID) error
}

// Notifier receives user-visible outcomes of background work
type Notifier interface {
	Publish(n model.Notification)
}

var (
	_ LocalStore  = (*local.Store)(nil)
	_ RemoteStore = (*remote.Service)(nil)
)

// Source names where hydrated state came from
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// HydrateResult is the state to install after a transition
type HydrateResult struct {
	Snapshot model.Snapshot
	Source   Source

	// Report is set when the snapshot was read from the local store
	Report local.LoadReport
}

// Change lists deletions that a full save cannot express, since saves
// are upserts
type Change struct {
	DeletedGames  []model.GameID
	DeletedRounds []model.RoundID
}

// Config holds engine settings
type Config struct {
	QueueSize int
}

// DefaultConfig returns the default engine settings
func DefaultConfig() Config {
	return Config{QueueSize: DefaultQueueSize}
}

// Engine runs identity transitions and steady-state persistence
type Engine struct {
	local    LocalStore
	remote   RemoteStore
	mirror   *Mirror
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates an engine. Pass a nil remoteStore to run local-only.
func New(
	localStore LocalStore,
	remoteStore RemoteStore,
	notifier Notifier,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	e := &Engine{
		local:    localStore,
		remote:   remoteStore,
		notifier: notifier,
		clock:    clk,
		logger:   logger.With(slog.String("component", "reconcile")),
	}
	if remoteStore != nil {
		e.mirror = NewMirror(remoteStore, notifier, clk, logger, cfg.QueueSize)
	}
	return e
}

// RemoteEnabled reports whether a remote store is configured
func (e *Engine) RemoteEnabled() bool {
	return e.remote != nil
}

func (e *Engine) syncing(identity *model.Identity) bool {
	return identity != nil && identity.UserID != "" && e.remote != nil
}

// Hydrate loads the state for an identity. A signed-in user gets the
// remote state when it has any data; otherwise the local state is used and,
// when non-empty, queued for upload so guest data follows the user.
func (e *Engine) Hydrate(ctx context.Context, identity *model.Identity) (HydrateResult, error) {
	if !e.syncing(identity) {
		return e.hydrateLocal(ctx)
	}

	userID := identity.UserID
	snapshot, err := e.remote.LoadAll(ctx, userID)
	if err != nil {
		e.logger.Error("remote load failed, using local data",
			slog.String("user_id", string(userID)),
			slog.String("error", err.Error()),
		)
		e.publish(model.NotificationRemoteSyncFailed, model.LevelError, userID,
			"Cloud load failed", fmt.Sprintf("Showing data saved on this device: %v", err))
		return e.hydrateLocal(ctx)
	}

	if snapshot.IsEmpty() {
		result, err := e.hydrateLocal(ctx)
		if err != nil {
			return HydrateResult{}, err
		}
		if !result.Snapshot.IsEmpty() {
			e.logger.Info("uploading local data for new account",
				slog.String("user_id", string(userID)),
				slog.Int("game_count", len(result.Snapshot.Games)),
				slog.Int("player_count", len(result.Snapshot.Players)),
			)
			e.mirror.SaveAll(userID, result.Snapshot)
		}
		return result, nil
	}

	if err := e.local.Save(ctx, snapshot); err != nil {
		e.logger.Error("failed to cache remote data locally",
			slog.String("user_id", string(userID)),
			slog.String("error", err.Error()),
		)
		e.publish(model.NotificationLocalSaveFailed, model.LevelError, userID,
			"Save failed", fmt.Sprintf("Could not save to this device: %v", err))
	}

	e.logger.Info("hydrated from remote",
		slog.String("user_id", string(userID)),
		slog.Int("game_count", len(snapshot.Games)),
		slog.Int("player_count", len(snapshot.Players)),
	)
	return HydrateResult{Snapshot: snapshot, Source: SourceRemote}, nil
}

func (e *Engine) hydrateLocal(ctx context.Context) (HydrateResult, error) {
	snapshot, report, err := e.local.Load(ctx)
	if err != nil {
		return HydrateResult{}, fmt.Errorf("failed to load local data: %w", err)
	}
	return HydrateResult{Snapshot: snapshot, Source: SourceLocal, Report: report}, nil
}

// Persist saves the snapshot locally and, for a signed-in user, queues the
// remote writes. Deletes are queued ahead of the save. A local failure is
// returned and still lets the remote writes through.
func (e *Engine) Persist(ctx context.Context, identity *model.Identity, snapshot model.Snapshot, change Change) error {
	localErr := e.local.Save(ctx, snapshot)
	if localErr != nil {
		e.logger.Error("local save failed",
			slog.String("error", localErr.Error()),
		)
		var userID model.UserID
		if identity != nil {
			userID = identity.UserID
		}
		e.publish(model.NotificationLocalSaveFailed, model.LevelError, userID,
			"Save failed", fmt.Sprintf("Could not save to this device: %v", localErr))
	}

	if e.syncing(identity) {
		e.mirror.DeleteGames(identity.UserID, change.DeletedGames)
		e.mirror.DeleteRounds(identity.UserID, change.DeletedRounds)
		e.mirror.SaveAll(identity.UserID, snapshot)
	}

	if localErr != nil {
		return fmt.Errorf("%w: %w", model.ErrLocalSave, localErr)
	}
	return nil
}

// SaveLocal writes the snapshot to the local store only
func (e *Engine) SaveLocal(ctx context.Context, snapshot model.Snapshot) error {
	if err := e.local.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %w", model.ErrLocalSave, err)
	}
	return nil
}

// OnRemoteSaved registers a callback for values the remote store assigned
func (e *Engine) OnRemoteSaved(fn SavedFunc) {
	if e.mirror != nil {
		e.mirror.OnSaved(fn)
	}
}

// Release lets the identity's queue drain and then stops its worker
func (e *Engine) Release(identity *model.Identity) {
	if e.mirror != nil && identity != nil {
		e.mirror.Retire(identity.UserID)
	}
}

// Flush waits for all queued remote writes
func (e *Engine) Flush(ctx context.Context) error {
	if e.mirror == nil {
		return nil
	}
	return e.mirror.Flush(ctx)
}

// Close drains queued remote writes until ctx expires
func (e *Engine) Close(ctx context.Context) error {
	if e.mirror == nil {
		return nil
	}
	return e.mirror.Close(ctx)
}

func (e *Engine) publish(kind model.NotificationKind, level model.NotificationLevel, userID model.UserID, title, message string) {
	e.notifier.Publish(model.Notification{
		Kind:    kind,
		Level:   level,
		Title:   title,
		Message: message,
		UserID:  userID,
		At:      e.clock.Now(),
	})
}
