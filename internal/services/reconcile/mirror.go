package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/remote"
)

// DefaultQueueSize bounds the pending remote jobs per user
const DefaultQueueSize = 16

type jobKind int

const (
	jobSaveAll jobKind = iota
	jobDeleteGames
	jobDeleteRounds
)

func (k jobKind) String() string {
	switch k {
	case jobSaveAll:
		return "save_all"
	case jobDeleteGames:
		return "delete_games"
	case jobDeleteRounds:
		return "delete_rounds"
	default:
		return "unknown"
	}
}

type job struct {
	kind     jobKind
	snapshot model.Snapshot
	games    []model.GameID
	rounds   []model.RoundID
}

// SavedFunc receives the result of a successful remote save
type SavedFunc func(userID model.UserID, result remote.SaveResult)

// Mirror serializes remote writes per user. Each user has one worker that
// runs jobs in submission order. Submit never blocks; when a user's queue is
// full the oldest pending save is dropped, since a later save supersedes it.
// Deletes are never dropped.
type Mirror struct {
	remote    RemoteStore
	notifier  Notifier
	clock     clock.Clock
	logger    *slog.Logger
	queueSize int

	mu      sync.Mutex
	workers map[model.UserID]*worker
	onSaved SavedFunc
	pending int
	idle    chan struct{}
	closed  bool

	baseCtx context.Context
	cancel  context.CancelFunc
}

type worker struct {
	userID model.UserID
	wake   chan struct{}
	done   chan struct{}

	// guarded by Mirror.mu
	queue    []job
	stopping bool
}

// NewMirror creates a mirror over the remote store
func NewMirror(remoteStore RemoteStore, notifier Notifier, clk clock.Clock, logger *slog.Logger, queueSize int) *Mirror {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Mirror{
		remote:    remoteStore,
		notifier:  notifier,
		clock:     clk,
		logger:    logger.With(slog.String("component", "mirror")),
		queueSize: queueSize,
		workers:   make(map[model.UserID]*worker),
		idle:      idle,
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// OnSaved registers the callback run after each successful save
func (m *Mirror) OnSaved(fn SavedFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSaved = fn
}

// SaveAll queues a full save for the user
func (m *Mirror) SaveAll(userID model.UserID, snapshot model.Snapshot) {
	m.submit(userID, job{kind: jobSaveAll, snapshot: snapshot.Clone()})
}

// DeleteGames queues a game delete for the user
func (m *Mirror) DeleteGames(userID model.UserID, ids []model.GameID) {
	if len(ids) == 0 {
		return
	}
	m.submit(userID, job{kind: jobDeleteGames, games: slices.Clone(ids)})
}

// DeleteRounds queues a round delete for the user
func (m *Mirror) DeleteRounds(userID model.UserID, ids []model.RoundID) {
	if len(ids) == 0 {
		return
	}
	m.submit(userID, job{kind: jobDeleteRounds, rounds: slices.Clone(ids)})
}

func (m *Mirror) submit(userID model.UserID, j job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		m.logger.Warn("dropping remote job after close",
			slog.String("user_id", string(userID)),
			slog.String("job", j.kind.String()),
		)
		return
	}

	w, ok := m.workers[userID]
	switch {
	case ok && w.stopping:
		// still draining; keep it so jobs stay in order
		w.stopping = false
	case !ok:
		w = &worker{
			userID: userID,
			wake:   make(chan struct{}, 1),
			done:   make(chan struct{}),
		}
		m.workers[userID] = w
		go m.run(w)
	}

	if len(w.queue) >= m.queueSize {
		if i := slices.IndexFunc(w.queue, func(q job) bool { return q.kind == jobSaveAll }); i >= 0 {
			w.queue = slices.Delete(w.queue, i, i+1)
			m.release()
			m.logger.Debug("superseded pending save",
				slog.String("user_id", string(userID)),
			)
		}
	}

	w.queue = append(w.queue, j)
	if m.pending == 0 {
		m.idle = make(chan struct{})
	}
	m.pending++

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// release marks one job finished. Caller holds mu.
func (m *Mirror) release() {
	m.pending--
	if m.pending == 0 {
		close(m.idle)
	}
}

// next blocks until w has a job. It returns false once w is stopping with
// an empty queue.
func (m *Mirror) next(w *worker) (job, bool) {
	for {
		m.mu.Lock()
		if len(w.queue) > 0 {
			j := w.queue[0]
			w.queue = w.queue[1:]
			m.mu.Unlock()
			return j, true
		}
		if w.stopping {
			if m.workers[w.userID] == w {
				delete(m.workers, w.userID)
			}
			m.mu.Unlock()
			return job{}, false
		}
		m.mu.Unlock()
		<-w.wake
	}
}

func (m *Mirror) run(w *worker) {
	defer close(w.done)
	for {
		j, ok := m.next(w)
		if !ok {
			return
		}
		m.execute(w.userID, j)

		m.mu.Lock()
		m.release()
		m.mu.Unlock()
	}
}

func (m *Mirror) execute(userID model.UserID, j job) {
	ctx := m.baseCtx
	var (
		result remote.SaveResult
		err    error
	)
	switch j.kind {
	case jobSaveAll:
		result, err = m.remote.SaveAll(ctx, userID, j.snapshot)
	case jobDeleteGames:
		err = m.remote.DeleteGames(ctx, userID, j.games)
	case jobDeleteRounds:
		err = m.remote.DeleteRounds(ctx, userID, j.rounds)
	}

	if err != nil {
		m.logger.Error("remote sync failed",
			slog.String("user_id", string(userID)),
			slog.String("job", j.kind.String()),
			slog.String("error", err.Error()),
		)
		m.notifier.Publish(model.Notification{
			Kind:    model.NotificationRemoteSyncFailed,
			Level:   model.LevelError,
			Title:   "Cloud sync failed",
			Message: fmt.Sprintf("Your changes are saved on this device but could not be synced: %v", err),
			UserID:  userID,
			At:      m.clock.Now(),
		})
		return
	}

	m.logger.Debug("remote sync complete",
		slog.String("user_id", string(userID)),
		slog.String("job", j.kind.String()),
	)
	m.notifier.Publish(model.Notification{
		Kind:    model.NotificationRemoteSync,
		Level:   model.LevelInfo,
		Title:   "Synced",
		Message: syncMessage(j),
		UserID:  userID,
		At:      m.clock.Now(),
	})

	if j.kind == jobSaveAll && result.HasAssignments() {
		m.mu.Lock()
		onSaved := m.onSaved
		m.mu.Unlock()
		if onSaved != nil {
			onSaved(userID, result)
		}
	}
}

func syncMessage(j job) string {
	switch j.kind {
	case jobDeleteGames:
		return fmt.Sprintf("Deleted %d game(s) from the cloud", len(j.games))
	case jobDeleteRounds:
		return fmt.Sprintf("Deleted %d round(s) from the cloud", len(j.rounds))
	default:
		return fmt.Sprintf("Saved %d game(s) and %d player(s) to the cloud", len(j.snapshot.Games), len(j.snapshot.Players))
	}
}

// Retire stops the user's worker once its queue drains
func (m *Mirror) Retire(userID model.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.workers[userID]; ok {
		w.stopping = true
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

// Pending returns the number of queued or running jobs
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Flush waits until every queued job has finished
func (m *Mirror) Flush(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.pending == 0 {
			m.mu.Unlock()
			return nil
		}
		idle := m.idle
		m.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close drains all queues, waiting until ctx expires. Jobs still running
// when ctx expires are cancelled.
func (m *Mirror) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	workers := make([]*worker, 0, len(m.workers))
	for _, w := range m.workers {
		w.stopping = true
		select {
		case w.wake <- struct{}{}:
		default:
		}
		workers = append(workers, w)
	}
	m.mu.Unlock()

	defer m.cancel()
	for _, w := range workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
