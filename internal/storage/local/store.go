// Package local persists the full tracker snapshot to a storage.KV under two
// namespaces, one for games and one for players.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/dependencies/ids"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/record"
	"github.com/mcoot/scorekeeper/internal/storage"
)

// Namespace keys
const (
	GamesKey   = "phase10-games"
	PlayersKey = "phase10-players"
)

// LoadReport describes repairs made while loading
type LoadReport struct {
	// Corrupt lists namespaces whose stored value could not be decoded and were reset to empty
	Corrupt []string

	DateRepairs []record.DateRepair

	// AssignedScoreIDs counts scores that were missing an id
	AssignedScoreIDs int

	// Migrated lists namespaces read from an older schema version
	Migrated []string
}

// Store reads and writes snapshots
type Store struct {
	kv     storage.KV
	clock  clock.Clock
	ids    ids.Generator
	logger *slog.Logger
}

// New creates a local store over kv
func New(kv storage.KV, clk clock.Clock, idGen ids.Generator, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		clock:  clk,
		ids:    idGen,
		logger: logger.With(slog.String("component", "local_store")),
	}
}

// Save writes both namespaces in one atomic SetMany
func (s *Store) Save(ctx context.Context, snapshot model.Snapshot) error {
	games, players := record.EncodeSnapshot(snapshot)

	gamesData, err := json.Marshal(record.Envelope[record.Game]{Version: record.CurrentVersion, Data: games})
	if err != nil {
		return fmt.Errorf("encode games: %w", err)
	}
	playersData, err := json.Marshal(record.Envelope[record.Player]{Version: record.CurrentVersion, Data: players})
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}

	if err := s.kv.SetMany(ctx, map[string][]byte{
		GamesKey:   gamesData,
		PlayersKey: playersData,
	}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads both namespaces. Absent keys load as empty. A namespace that
// cannot be decoded is logged and loaded as empty without affecting the other.
// An error is returned only when the backend itself fails.
func (s *Store) Load(ctx context.Context) (model.Snapshot, LoadReport, error) {
	var report LoadReport

	gameRecs, err := loadNamespace[record.Game](ctx, s, GamesKey, &report)
	if err != nil {
		return model.Snapshot{}, report, err
	}
	playerRecs, err := loadNamespace[record.Player](ctx, s, PlayersKey, &report)
	if err != nil {
		return model.Snapshot{}, report, err
	}

	games, repairs := record.DecodeGames(gameRecs.Data, s.clock.Now())
	for _, r := range repairs {
		s.logger.Warn("repaired unreadable game date",
			slog.String("game_id", r.GameID),
			slog.String("raw", r.Raw),
		)
	}
	report.DateRepairs = repairs

	for gi := range games {
		for ri := range games[gi].Rounds {
			report.AssignedScoreIDs += games[gi].Rounds[ri].EnsureScoreIDs(s.ids.NewID)
		}
	}

	players := record.DecodePlayers(playerRecs.Data)
	for i := range players {
		if players[i].Avatar == nil {
			players[i].Avatar = model.LetterAvatar{}
		}
	}

	if len(report.Corrupt) > 0 || len(repairs) > 0 || report.AssignedScoreIDs > 0 || len(report.Migrated) > 0 {
		s.logger.Info("local snapshot repaired on load",
			slog.Int("corrupt_namespaces", len(report.Corrupt)),
			slog.Int("date_repairs", len(repairs)),
			slog.Int("assigned_score_ids", report.AssignedScoreIDs),
			slog.Int("migrated_namespaces", len(report.Migrated)),
		)
	}

	return model.Snapshot{Games: games, Players: players}, report, nil
}

func loadNamespace[T any](ctx context.Context, s *Store, key string, report *LoadReport) (record.Envelope[T], error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return record.Envelope[T]{Version: record.CurrentVersion}, nil
	}
	if err != nil {
		return record.Envelope[T]{}, fmt.Errorf("load %s: %w", key, err)
	}

	env, err := decodeEnvelope[T](data)
	if err != nil {
		s.logger.Warn("discarding malformed local data",
			slog.String("namespace", key),
			slog.String("error", err.Error()),
		)
		report.Corrupt = append(report.Corrupt, key)
		return record.Envelope[T]{Version: record.CurrentVersion}, nil
	}

	if env.Version > record.CurrentVersion {
		s.logger.Warn("local data written by a newer version",
			slog.String("namespace", key),
			slog.Int("version", env.Version),
		)
	}
	if env.Version < record.CurrentVersion {
		report.Migrated = append(report.Migrated, key)
		switch data := any(env.Data).(type) {
		case []record.Game:
			record.UpgradeGames(env.Version, data)
		case []record.Player:
			record.UpgradePlayers(env.Version, data)
		}
	} else if players, ok := any(env.Data).([]record.Player); ok {
		record.FillColors(players)
	}
	return env, nil
}

// decodeEnvelope accepts a versioned envelope or a bare array, which is read
// as version 0
func decodeEnvelope[T any](data []byte) (record.Envelope[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return record.Envelope[T]{}, errors.New("empty value")
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return record.Envelope[T]{}, err
		}
		return record.Envelope[T]{Version: 0, Data: items}, nil
	}

	var env record.Envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return record.Envelope[T]{}, err
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	return env, nil
}
