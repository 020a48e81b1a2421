package remote

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/scorekeeper/internal/dependencies/ids"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/joincode"
)

// TracerName is the instrumentation scope for remote spans
const TracerName = "scorekeeper/remote"

// Config holds retry and timeout settings for repository calls
type Config struct {
	// MaxRetries is the total number of attempts per repository call
	MaxRetries uint

	// Timeout bounds a single attempt; zero means no per-attempt timeout
	Timeout time.Duration

	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns sensible defaults for remote calls
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		Timeout:         10 * time.Second,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// AssignedScore reports a score id generated during SaveAll
type AssignedScore struct {
	GameID   model.GameID
	RoundID  model.RoundID
	PlayerID model.PlayerID
	ScoreID  model.ScoreID
}

// SaveResult reports values generated while saving so the caller can
// bring its in-memory state in line with the store
type SaveResult struct {
	AssignedCodes  map[model.GameID]string
	AssignedScores []AssignedScore
}

// HasAssignments reports whether the save generated anything
func (r SaveResult) HasAssignments() bool {
	return len(r.AssignedCodes) > 0 || len(r.AssignedScores) > 0
}

// Service loads and saves whole snapshots through a Repository
type Service struct {
	repo      Repository
	joinCodes *joincode.Generator
	ids       ids.Generator
	tracer    trace.Tracer
	logger    *slog.Logger
	cfg       Config
}

// NewService creates a remote service. A nil tracer uses the global provider.
func NewService(
	repo Repository,
	joinCodes *joincode.Generator,
	idGen ids.Generator,
	tracer trace.Tracer,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Service{
		repo:      repo,
		joinCodes: joinCodes,
		ids:       idGen,
		tracer:    tracer,
		logger:    logger.With(slog.String("component", "remote")),
		cfg:       cfg,
	}
}

// LoadAll reads every player and game owned by userID. Rounds are ordered by
// their stored round number. Games without a join code get one generated.
func (s *Service) LoadAll(ctx context.Context, userID model.UserID) (snapshot model.Snapshot, err error) {
	uid := string(userID)
	if uid == "" {
		return model.Snapshot{}, model.ErrNotAuthenticated
	}
	ctx, span := s.startSpan(ctx, "remote.LoadAll", uid)
	defer func() { finishSpan(span, err) }()

	rows, err := s.fetch(ctx, uid)
	if err != nil {
		return model.Snapshot{}, err
	}

	snapshot = s.assemble(rows.players, rows.games, rows.links, rows.rounds, rows.scores)
	span.SetAttributes(
		attribute.Int("games", len(snapshot.Games)),
		attribute.Int("players", len(snapshot.Players)),
	)
	return snapshot, nil
}

// rowSet is everything one user owns
type rowSet struct {
	players []PlayerRow
	games   []GameRow
	links   []GamePlayerRow
	rounds  []RoundRow
	scores  []ScoreRow
}

func (s *Service) fetch(ctx context.Context, uid string) (rowSet, error) {
	var rows rowSet
	var err error

	rows.players, err = retry(ctx, s, "list players", func(ctx context.Context) ([]PlayerRow, error) {
		return s.repo.ListPlayers(ctx, uid)
	})
	if err != nil {
		return rowSet{}, fmt.Errorf("list players: %w", err)
	}
	rows.games, err = retry(ctx, s, "list games", func(ctx context.Context) ([]GameRow, error) {
		return s.repo.ListGames(ctx, uid)
	})
	if err != nil {
		return rowSet{}, fmt.Errorf("list games: %w", err)
	}
	if len(rows.games) == 0 {
		return rows, nil
	}

	gameIDs := make([]string, len(rows.games))
	for i, g := range rows.games {
		gameIDs[i] = g.ID
	}
	rows.links, err = retry(ctx, s, "list game players", func(ctx context.Context) ([]GamePlayerRow, error) {
		return s.repo.ListGamePlayers(ctx, uid, gameIDs)
	})
	if err != nil {
		return rowSet{}, fmt.Errorf("list game players: %w", err)
	}
	rows.rounds, err = retry(ctx, s, "list rounds", func(ctx context.Context) ([]RoundRow, error) {
		return s.repo.ListRounds(ctx, uid, gameIDs)
	})
	if err != nil {
		return rowSet{}, fmt.Errorf("list rounds: %w", err)
	}
	if len(rows.rounds) == 0 {
		return rows, nil
	}

	roundIDs := make([]string, len(rows.rounds))
	for i, r := range rows.rounds {
		roundIDs[i] = r.ID
	}
	rows.scores, err = retry(ctx, s, "list scores", func(ctx context.Context) ([]ScoreRow, error) {
		return s.repo.ListScores(ctx, uid, roundIDs)
	})
	if err != nil {
		return rowSet{}, fmt.Errorf("list scores: %w", err)
	}
	return rows, nil
}

func (s *Service) assemble(
	playerRows []PlayerRow,
	gameRows []GameRow,
	links []GamePlayerRow,
	roundRows []RoundRow,
	scoreRows []ScoreRow,
) model.Snapshot {
	players := make([]model.Player, len(playerRows))
	for i, r := range playerRows {
		players[i] = r.toModel()
	}

	slices.SortStableFunc(links, func(a, b GamePlayerRow) int {
		return cmp.Compare(a.Position, b.Position)
	})
	linksByGame := make(map[string][]model.PlayerID)
	for _, l := range links {
		linksByGame[l.GameID] = append(linksByGame[l.GameID], model.PlayerID(l.PlayerID))
	}

	// the store does not guarantee row order; round_number is authoritative
	slices.SortStableFunc(roundRows, func(a, b RoundRow) int {
		return cmp.Compare(a.RoundNumber, b.RoundNumber)
	})
	roundsByGame := make(map[string][]RoundRow)
	for _, r := range roundRows {
		roundsByGame[r.GameID] = append(roundsByGame[r.GameID], r)
	}

	scoresByRound := make(map[string][]model.PlayerScore)
	for _, sc := range scoreRows {
		scoresByRound[sc.RoundID] = append(scoresByRound[sc.RoundID], sc.toModel())
	}

	taken := make(map[string]bool, len(gameRows))
	for _, g := range gameRows {
		if g.UniqueCode != "" {
			taken[g.UniqueCode] = true
		}
	}

	games := make([]model.Game, len(gameRows))
	for i, row := range gameRows {
		gameType, err := model.ParseGameType(row.GameType)
		if err != nil {
			gameType = model.GameTypePhase10
		}

		code := row.UniqueCode
		if code == "" {
			code = s.joinCodes.GenerateUnique(func(c string) bool { return taken[c] })
			taken[code] = true
			s.logger.Info("backfilled join code",
				slog.String("game_id", row.ID),
				slog.String("code", code),
			)
		}

		game := model.Game{
			ID:         model.GameID(row.ID),
			UniqueCode: code,
			Date:       row.Date.UTC(),
			GameType:   gameType,
			Players:    linksByGame[row.ID],
			Rounds:     make([]model.Round, 0, len(roundsByGame[row.ID])),
		}
		if game.Players == nil {
			game.Players = []model.PlayerID{}
		}
		for _, rr := range roundsByGame[row.ID] {
			round := rr.toModel()
			if scores := scoresByRound[rr.ID]; scores != nil {
				sortScoresByPlayerOrder(scores, game.Players)
				round.PlayerScores = scores
			}
			game.Rounds = append(game.Rounds, round)
		}
		games[i] = game
	}

	return model.Snapshot{Games: games, Players: players}
}

// sortScoresByPlayerOrder orders scores by the game's player list; scores for
// unlisted players go last
func sortScoresByPlayerOrder(scores []model.PlayerScore, players []model.PlayerID) {
	position := func(id model.PlayerID) int {
		if i := slices.Index(players, id); i >= 0 {
			return i
		}
		return len(players)
	}
	slices.SortStableFunc(scores, func(a, b model.PlayerScore) int {
		return cmp.Compare(position(a.PlayerID), position(b.PlayerID))
	})
}

// SaveAll makes the store hold exactly the snapshot for userID. Players,
// games, links, rounds then scores are upserted, and afterwards rows the user
// owns that the snapshot no longer has are deleted, children first. Missing
// join codes and score ids are generated and reported in the result.
func (s *Service) SaveAll(ctx context.Context, userID model.UserID, snapshot model.Snapshot) (result SaveResult, err error) {
	uid := string(userID)
	if uid == "" {
		return SaveResult{}, model.ErrNotAuthenticated
	}
	ctx, span := s.startSpan(ctx, "remote.SaveAll", uid,
		attribute.Int("games", len(snapshot.Games)),
		attribute.Int("players", len(snapshot.Players)),
	)
	defer func() { finishSpan(span, err) }()

	stored, err := s.fetch(ctx, uid)
	if err != nil {
		return SaveResult{}, err
	}

	result.AssignedCodes = make(map[model.GameID]string)

	playerRows := make([]PlayerRow, len(snapshot.Players))
	for i, p := range snapshot.Players {
		playerRows[i] = playerRow(uid, p)
	}

	taken := make(map[string]bool, len(snapshot.Games))
	for _, g := range snapshot.Games {
		if g.UniqueCode != "" {
			taken[g.UniqueCode] = true
		}
	}

	var (
		gameRows  = make([]GameRow, len(snapshot.Games))
		links     []GamePlayerRow
		roundRows []RoundRow
		scoreRows []ScoreRow
	)
	for i, g := range snapshot.Games {
		row := gameRow(uid, g)
		if row.UniqueCode == "" {
			row.UniqueCode = s.joinCodes.GenerateUnique(func(c string) bool { return taken[c] })
			taken[row.UniqueCode] = true
			result.AssignedCodes[g.ID] = row.UniqueCode
		}
		gameRows[i] = row

		for pos, pid := range g.Players {
			links = append(links, GamePlayerRow{UserID: uid, GameID: string(g.ID), PlayerID: string(pid), Position: pos})
		}
		for ri, r := range g.Rounds {
			roundRows = append(roundRows, roundRow(uid, g.ID, ri+1, r))
			for _, ps := range r.PlayerScores {
				if ps.ID == "" {
					ps.ID = model.ScoreID(s.ids.NewID())
					result.AssignedScores = append(result.AssignedScores, AssignedScore{
						GameID:   g.ID,
						RoundID:  r.ID,
						PlayerID: ps.PlayerID,
						ScoreID:  ps.ID,
					})
				}
				scoreRows = append(scoreRows, scoreRow(uid, r.ID, ps))
			}
		}
	}

	steps := []struct {
		name string
		n    int
		fn   func(context.Context) error
	}{
		{"upsert players", len(playerRows), func(ctx context.Context) error { return s.repo.UpsertPlayers(ctx, playerRows) }},
		{"upsert games", len(gameRows), func(ctx context.Context) error { return s.repo.UpsertGames(ctx, gameRows) }},
		{"upsert game players", len(links), func(ctx context.Context) error { return s.repo.UpsertGamePlayers(ctx, links) }},
		{"upsert rounds", len(roundRows), func(ctx context.Context) error { return s.repo.UpsertRounds(ctx, roundRows) }},
		{"upsert scores", len(scoreRows), func(ctx context.Context) error { return s.repo.UpsertScores(ctx, scoreRows) }},
	}
	for _, step := range steps {
		if step.n == 0 {
			continue
		}
		if err := s.exec(ctx, step.name, step.fn); err != nil {
			return result, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	stale := staleRows(stored, rowSet{players: playerRows, games: gameRows, links: links, rounds: roundRows, scores: scoreRows})
	if err := s.prune(ctx, uid, stale); err != nil {
		return result, err
	}

	s.logger.Debug("saved snapshot",
		slog.String("user_id", uid),
		slog.Int("games", len(gameRows)),
		slog.Int("rounds", len(roundRows)),
		slog.Int("scores", len(scoreRows)),
		slog.Int("pruned", stale.count()),
	)
	return result, nil
}

// stale lists the rows a save no longer covers
type stale struct {
	scores  []string
	rounds  []string
	links   []GamePlayerRow
	games   []string
	players []string
}

func (st stale) count() int {
	return len(st.scores) + len(st.rounds) + len(st.links) + len(st.games) + len(st.players)
}

// staleRows returns the ids in stored that are absent from saved
func staleRows(stored, saved rowSet) stale {
	var st stale
	st.scores = missingIDs(stored.scores, saved.scores, func(r ScoreRow) string { return r.ID })
	st.rounds = missingIDs(stored.rounds, saved.rounds, func(r RoundRow) string { return r.ID })
	st.games = missingIDs(stored.games, saved.games, func(r GameRow) string { return r.ID })
	st.players = missingIDs(stored.players, saved.players, func(r PlayerRow) string { return r.ID })
	st.players = slices.DeleteFunc(st.players, func(id string) bool { return referenced(saved, id) })

	type linkKey struct{ game, player string }
	keep := make(map[linkKey]bool, len(saved.links))
	for _, l := range saved.links {
		keep[linkKey{l.GameID, l.PlayerID}] = true
	}
	for _, l := range stored.links {
		if !keep[linkKey{l.GameID, l.PlayerID}] {
			st.links = append(st.links, l)
		}
	}
	return st
}

// referenced reports whether a saved link, round or score still points at
// the player, in which case its row has to stay
func referenced(saved rowSet, playerID string) bool {
	for _, l := range saved.links {
		if l.PlayerID == playerID {
			return true
		}
	}
	for _, r := range saved.rounds {
		if r.WinnerID != nil && *r.WinnerID == playerID {
			return true
		}
	}
	for _, sc := range saved.scores {
		if sc.PlayerID == playerID {
			return true
		}
	}
	return false
}

func missingIDs[T any](stored, saved []T, id func(T) string) []string {
	keep := make(map[string]bool, len(saved))
	for _, r := range saved {
		keep[id(r)] = true
	}
	var out []string
	for _, r := range stored {
		if !keep[id(r)] {
			out = append(out, id(r))
		}
	}
	return out
}

// prune deletes stale rows children first and stops at the first failure,
// since a parent cannot go while its children remain
func (s *Service) prune(ctx context.Context, uid string, st stale) error {
	steps := []struct {
		name string
		n    int
		fn   func(context.Context) error
	}{
		{"prune scores", len(st.scores), func(ctx context.Context) error { return s.repo.DeleteScores(ctx, uid, st.scores) }},
		{"prune rounds", len(st.rounds), func(ctx context.Context) error { return s.repo.DeleteRounds(ctx, uid, st.rounds) }},
		{"prune game players", len(st.links), func(ctx context.Context) error { return s.repo.DeleteLinks(ctx, uid, st.links) }},
		{"prune games", len(st.games), func(ctx context.Context) error { return s.repo.DeleteGames(ctx, uid, st.games) }},
		{"prune players", len(st.players), func(ctx context.Context) error { return s.repo.DeletePlayers(ctx, uid, st.players) }},
	}
	for _, step := range steps {
		if step.n == 0 {
			continue
		}
		if err := s.exec(ctx, step.name, step.fn); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// DeleteGames removes games with their scores, rounds and links, in that
// order. Every step is attempted; failures are joined.
func (s *Service) DeleteGames(ctx context.Context, userID model.UserID, gameIDs []model.GameID) (err error) {
	uid := string(userID)
	if uid == "" {
		return model.ErrNotAuthenticated
	}
	if len(gameIDs) == 0 {
		return nil
	}
	ctx, span := s.startSpan(ctx, "remote.DeleteGames", uid, attribute.Int("games", len(gameIDs)))
	defer func() { finishSpan(span, err) }()

	keys := make([]string, len(gameIDs))
	for i, id := range gameIDs {
		keys[i] = string(id)
	}

	return s.execAll(ctx, []namedStep{
		{"delete scores", func(ctx context.Context) error { return s.repo.DeleteScoresForGames(ctx, uid, keys) }},
		{"delete rounds", func(ctx context.Context) error { return s.repo.DeleteRoundsForGames(ctx, uid, keys) }},
		{"delete game players", func(ctx context.Context) error { return s.repo.DeleteGamePlayers(ctx, uid, keys) }},
		{"delete games", func(ctx context.Context) error { return s.repo.DeleteGames(ctx, uid, keys) }},
	})
}

// DeleteRounds removes rounds and their scores. Both steps are attempted.
func (s *Service) DeleteRounds(ctx context.Context, userID model.UserID, roundIDs []model.RoundID) (err error) {
	uid := string(userID)
	if uid == "" {
		return model.ErrNotAuthenticated
	}
	if len(roundIDs) == 0 {
		return nil
	}
	ctx, span := s.startSpan(ctx, "remote.DeleteRounds", uid, attribute.Int("rounds", len(roundIDs)))
	defer func() { finishSpan(span, err) }()

	keys := make([]string, len(roundIDs))
	for i, id := range roundIDs {
		keys[i] = string(id)
	}

	return s.execAll(ctx, []namedStep{
		{"delete scores", func(ctx context.Context) error { return s.repo.DeleteScoresForRounds(ctx, uid, keys) }},
		{"delete rounds", func(ctx context.Context) error { return s.repo.DeleteRounds(ctx, uid, keys) }},
	})
}

type namedStep struct {
	name string
	fn   func(context.Context) error
}

func (s *Service) execAll(ctx context.Context, steps []namedStep) error {
	var errs []error
	for _, step := range steps {
		if err := s.exec(ctx, step.name, step.fn); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) exec(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := retry(ctx, s, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// retry runs fn with exponential backoff. Cancellation of ctx is not retried.
func retry[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if s.cfg.InitialInterval > 0 {
		b.InitialInterval = s.cfg.InitialInterval
	}
	if s.cfg.MaxInterval > 0 {
		b.MaxInterval = s.cfg.MaxInterval
	}

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		callCtx, cancel := s.callContext(ctx)
		defer cancel()

		v, err := fn(callCtx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrMissingParent) {
			return v, backoff.Permanent(err)
		}
		s.logger.Warn("remote call failed",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.cfg.MaxRetries))
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) startSpan(ctx context.Context, name, userID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{attribute.String("user_id", userID)}, attrs...)
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
