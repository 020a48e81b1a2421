// Package memory is an in-process remote.Repository for tests and development.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mcoot/scorekeeper/internal/remote"
)

type entry[T any] struct {
	row T
	seq int
}

// rowKey scopes an id to its owner
type rowKey struct {
	userID string
	id     string
}

type linkKey struct {
	userID   string
	gameID   string
	playerID string
}

// Repository keeps rows in mutex-guarded maps keyed by owner and id, so two
// users saving the same ids get separate rows. Rows keep their first insert
// order, the way created_at orders them in a database.
type Repository struct {
	mu  sync.RWMutex
	seq int

	players map[rowKey]entry[remote.PlayerRow]
	games   map[rowKey]entry[remote.GameRow]
	links   map[linkKey]entry[remote.GamePlayerRow]
	rounds  map[rowKey]entry[remote.RoundRow]
	scores  map[rowKey]entry[remote.ScoreRow]

	failures map[string][]error
	calls    []string
}

// New creates an empty repository
func New() *Repository {
	return &Repository{
		players:  make(map[rowKey]entry[remote.PlayerRow]),
		games:    make(map[rowKey]entry[remote.GameRow]),
		links:    make(map[linkKey]entry[remote.GamePlayerRow]),
		rounds:   make(map[rowKey]entry[remote.RoundRow]),
		scores:   make(map[rowKey]entry[remote.ScoreRow]),
		failures: make(map[string][]error),
	}
}

// Ensure Repository implements the interface
var _ remote.Repository = (*Repository)(nil)

// FailNext makes the next len(errs) calls to the named method return errs in order
func (r *Repository) FailNext(method string, errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[method] = append(r.failures[method], errs...)
}

// Calls returns the names of every method invoked, in order
func (r *Repository) Calls() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.calls)
}

// ResetCalls clears the call log
func (r *Repository) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Counts returns the number of rows per table
func (r *Repository) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]int{
		"players":       len(r.players),
		"games":         len(r.games),
		"game_players":  len(r.links),
		"rounds":        len(r.rounds),
		"player_scores": len(r.scores),
	}
}

// begin records the call and returns any injected failure. Caller holds mu.
func (r *Repository) begin(ctx context.Context, method string) error {
	r.calls = append(r.calls, method)
	if err := ctx.Err(); err != nil {
		return err
	}
	if queued := r.failures[method]; len(queued) > 0 {
		err := queued[0]
		r.failures[method] = queued[1:]
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (r *Repository) next() int {
	r.seq++
	return r.seq
}

func upsert[K comparable, T any](r *Repository, table map[K]entry[T], key K, row T) {
	if existing, ok := table[key]; ok {
		table[key] = entry[T]{row: row, seq: existing.seq}
		return
	}
	table[key] = entry[T]{row: row, seq: r.next()}
}

func collect[K comparable, T any](table map[K]entry[T], keep func(T) bool, less func(a, b entry[T]) int) []T {
	var entries []entry[T]
	for _, e := range table {
		if keep(e.row) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, less)
	rows := make([]T, len(entries))
	for i, e := range entries {
		rows[i] = e.row
	}
	return rows
}

func bySeq[T any](a, b entry[T]) int { return cmp.Compare(a.seq, b.seq) }

// missingParent reports a row whose parent the same user does not own
func missingParent(table, id, parent, parentID string) error {
	return fmt.Errorf("%s %s: %s %s: %w", table, id, parent, parentID, remote.ErrMissingParent)
}

func (r *Repository) UpsertPlayers(ctx context.Context, rows []remote.PlayerRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "UpsertPlayers"); err != nil {
		return err
	}
	for _, row := range rows {
		upsert(r, r.players, rowKey{row.UserID, row.ID}, row)
	}
	return nil
}

func (r *Repository) UpsertGames(ctx context.Context, rows []remote.GameRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "UpsertGames"); err != nil {
		return err
	}
	for _, row := range rows {
		upsert(r, r.games, rowKey{row.UserID, row.ID}, row)
	}
	return nil
}

// Each batch is checked in full before any row is written, like a single
// INSERT statement failing on a foreign key.

func (r *Repository) UpsertGamePlayers(ctx context.Context, rows []remote.GamePlayerRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "UpsertGamePlayers"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, ok := r.games[rowKey{row.UserID, row.GameID}]; !ok {
			return missingParent("game_players", row.PlayerID, "game", row.GameID)
		}
		if _, ok := r.players[rowKey{row.UserID, row.PlayerID}]; !ok {
			return missingParent("game_players", row.GameID, "player", row.PlayerID)
		}
	}
	for _, row := range rows {
		upsert(r, r.links, linkKey{row.UserID, row.GameID, row.PlayerID}, row)
	}
	return nil
}

func (r *Repository) UpsertRounds(ctx context.Context, rows []remote.RoundRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "UpsertRounds"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, ok := r.games[rowKey{row.UserID, row.GameID}]; !ok {
			return missingParent("rounds", row.ID, "game", row.GameID)
		}
		if row.WinnerID != nil {
			if _, ok := r.players[rowKey{row.UserID, *row.WinnerID}]; !ok {
				return missingParent("rounds", row.ID, "player", *row.WinnerID)
			}
		}
	}
	for _, row := range rows {
		upsert(r, r.rounds, rowKey{row.UserID, row.ID}, row)
	}
	return nil
}

func (r *Repository) UpsertScores(ctx context.Context, rows []remote.ScoreRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "UpsertScores"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, ok := r.rounds[rowKey{row.UserID, row.RoundID}]; !ok {
			return missingParent("player_scores", row.ID, "round", row.RoundID)
		}
		if _, ok := r.players[rowKey{row.UserID, row.PlayerID}]; !ok {
			return missingParent("player_scores", row.ID, "player", row.PlayerID)
		}
	}
	for _, row := range rows {
		upsert(r, r.scores, rowKey{row.UserID, row.ID}, row)
	}
	return nil
}

func (r *Repository) ListPlayers(ctx context.Context, userID string) ([]remote.PlayerRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "ListPlayers"); err != nil {
		return nil, err
	}
	return collect(r.players, func(p remote.PlayerRow) bool { return p.UserID == userID }, bySeq[remote.PlayerRow]), nil
}

func (r *Repository) ListGames(ctx context.Context, userID string) ([]remote.GameRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "ListGames"); err != nil {
		return nil, err
	}
	return collect(r.games,
		func(g remote.GameRow) bool { return g.UserID == userID },
		func(a, b entry[remote.GameRow]) int {
			// newest first, like ORDER BY date DESC
			if c := b.row.Date.Compare(a.row.Date); c != 0 {
				return c
			}
			return cmp.Compare(a.seq, b.seq)
		},
	), nil
}

func (r *Repository) ListGamePlayers(ctx context.Context, userID string, gameIDs []string) ([]remote.GamePlayerRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "ListGamePlayers"); err != nil {
		return nil, err
	}
	return collect(r.links,
		func(l remote.GamePlayerRow) bool { return l.UserID == userID && slices.Contains(gameIDs, l.GameID) },
		func(a, b entry[remote.GamePlayerRow]) int {
			if c := cmp.Compare(a.row.GameID, b.row.GameID); c != 0 {
				return c
			}
			return cmp.Compare(a.row.Position, b.row.Position)
		},
	), nil
}

func (r *Repository) ListRounds(ctx context.Context, userID string, gameIDs []string) ([]remote.RoundRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "ListRounds"); err != nil {
		return nil, err
	}
	return collect(r.rounds,
		func(rr remote.RoundRow) bool { return rr.UserID == userID && slices.Contains(gameIDs, rr.GameID) },
		func(a, b entry[remote.RoundRow]) int {
			if c := cmp.Compare(a.row.GameID, b.row.GameID); c != 0 {
				return c
			}
			return cmp.Compare(a.row.RoundNumber, b.row.RoundNumber)
		},
	), nil
}

func (r *Repository) ListScores(ctx context.Context, userID string, roundIDs []string) ([]remote.ScoreRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "ListScores"); err != nil {
		return nil, err
	}
	return collect(r.scores,
		func(s remote.ScoreRow) bool { return s.UserID == userID && slices.Contains(roundIDs, s.RoundID) },
		bySeq[remote.ScoreRow],
	), nil
}

func (r *Repository) DeleteScoresForGames(ctx context.Context, userID string, gameIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteScoresForGames"); err != nil {
		return err
	}
	for key, sc := range r.scores {
		if key.userID != userID {
			continue
		}
		if rr, ok := r.rounds[rowKey{userID, sc.row.RoundID}]; ok && slices.Contains(gameIDs, rr.row.GameID) {
			delete(r.scores, key)
		}
	}
	return nil
}

func (r *Repository) DeleteRoundsForGames(ctx context.Context, userID string, gameIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteRoundsForGames"); err != nil {
		return err
	}
	for key, rr := range r.rounds {
		if key.userID == userID && slices.Contains(gameIDs, rr.row.GameID) {
			delete(r.rounds, key)
		}
	}
	return nil
}

func (r *Repository) DeleteGamePlayers(ctx context.Context, userID string, gameIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteGamePlayers"); err != nil {
		return err
	}
	for key := range r.links {
		if key.userID == userID && slices.Contains(gameIDs, key.gameID) {
			delete(r.links, key)
		}
	}
	return nil
}

func (r *Repository) DeleteGames(ctx context.Context, userID string, gameIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteGames"); err != nil {
		return err
	}
	for _, id := range gameIDs {
		delete(r.games, rowKey{userID, id})
	}
	return nil
}

func (r *Repository) DeleteScoresForRounds(ctx context.Context, userID string, roundIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteScoresForRounds"); err != nil {
		return err
	}
	for key, sc := range r.scores {
		if key.userID == userID && slices.Contains(roundIDs, sc.row.RoundID) {
			delete(r.scores, key)
		}
	}
	return nil
}

func (r *Repository) DeleteRounds(ctx context.Context, userID string, roundIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteRounds"); err != nil {
		return err
	}
	for _, id := range roundIDs {
		delete(r.rounds, rowKey{userID, id})
	}
	return nil
}

func (r *Repository) DeleteScores(ctx context.Context, userID string, scoreIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteScores"); err != nil {
		return err
	}
	for _, id := range scoreIDs {
		delete(r.scores, rowKey{userID, id})
	}
	return nil
}

func (r *Repository) DeleteLinks(ctx context.Context, userID string, links []remote.GamePlayerRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeleteLinks"); err != nil {
		return err
	}
	for _, l := range links {
		delete(r.links, linkKey{userID, l.GameID, l.PlayerID})
	}
	return nil
}

func (r *Repository) DeletePlayers(ctx context.Context, userID string, playerIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(ctx, "DeletePlayers"); err != nil {
		return err
	}
	for _, id := range playerIDs {
		delete(r.players, rowKey{userID, id})
	}
	return nil
}

func (r *Repository) Close() error {
	return nil
}
