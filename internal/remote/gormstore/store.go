// Package gormstore implements remote.Repository on Postgres through gorm.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mcoot/scorekeeper/internal/remote"
)

// Config holds Postgres connection settings
type Config struct {
	// DSN is a Postgres URL or key/value connection string
	DSN string

	// AutoMigrate runs gorm's AutoMigrate on open; intended for development
	AutoMigrate bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible pool defaults
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Store is a gorm-backed remote.Repository
type Store struct {
	db *gorm.DB
}

// Ensure Store implements the interface
var _ remote.Repository = (*Store)(nil)

// Open connects to Postgres and verifies the connection
func Open(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database url is required")
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	configurePool(sqlDB, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{db: db}
	if cfg.AutoMigrate {
		if err := store.AutoMigrate(); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return store, nil
}

// NewWithDB wraps an existing gorm handle (for testing)
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func configurePool(sqlDB *sql.DB, cfg Config) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// AutoMigrate creates or updates the tables from the gorm models
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Player{}, &Game{}, &GamePlayer{}, &Round{}, &PlayerScore{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var idConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}, {Name: "id"}},
	UpdateAll: true,
}

var linkConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}, {Name: "player_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"position"}),
}

// upsert inserts rows, updating in place on conflict
func (s *Store) upsert(ctx context.Context, rows any, onConflict clause.OnConflict) *gorm.DB {
	return s.db.WithContext(ctx).Clauses(onConflict).Create(rows)
}

// parentErr maps a foreign key violation to remote.ErrMissingParent
func parentErr(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", remote.ErrMissingParent, err)
	}
	return err
}

func (s *Store) UpsertPlayers(ctx context.Context, rows []remote.PlayerRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := mapSlice(rows, fromPlayerRow)
	return s.upsert(ctx, &models, idConflict).Error
}

func (s *Store) UpsertGames(ctx context.Context, rows []remote.GameRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := mapSlice(rows, fromGameRow)
	return s.upsert(ctx, &models, idConflict).Error
}

func (s *Store) UpsertGamePlayers(ctx context.Context, rows []remote.GamePlayerRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := mapSlice(rows, fromLinkRow)
	return parentErr(s.upsert(ctx, &models, linkConflict).Error)
}

func (s *Store) UpsertRounds(ctx context.Context, rows []remote.RoundRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := mapSlice(rows, fromRoundRow)
	return parentErr(s.upsert(ctx, &models, idConflict).Error)
}

func (s *Store) UpsertScores(ctx context.Context, rows []remote.ScoreRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := mapSlice(rows, fromScoreRow)
	return parentErr(s.upsert(ctx, &models, idConflict).Error)
}

func (s *Store) ListPlayers(ctx context.Context, userID string) ([]remote.PlayerRow, error) {
	var models []Player
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapSlice(models, Player.toRow), nil
}

func (s *Store) ListGames(ctx context.Context, userID string) ([]remote.GameRow, error) {
	var models []Game
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at, id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapSlice(models, Game.toRow), nil
}

func (s *Store) ListGamePlayers(ctx context.Context, userID string, gameIDs []string) ([]remote.GamePlayerRow, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	var models []GamePlayer
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND game_id IN ?", userID, gameIDs).
		Order("game_id, position").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapSlice(models, GamePlayer.toRow), nil
}

func (s *Store) ListRounds(ctx context.Context, userID string, gameIDs []string) ([]remote.RoundRow, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	var models []Round
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND game_id IN ?", userID, gameIDs).
		Order("game_id, round_number").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapSlice(models, Round.toRow), nil
}

func (s *Store) ListScores(ctx context.Context, userID string, roundIDs []string) ([]remote.ScoreRow, error) {
	if len(roundIDs) == 0 {
		return nil, nil
	}
	var models []PlayerScore
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND round_id IN ?", userID, roundIDs).
		Order("created_at, id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapSlice(models, PlayerScore.toRow), nil
}

// deleteOwned deletes model rows owned by userID matching the extra condition
func (s *Store) deleteOwned(ctx context.Context, model any, userID, cond string, args ...any) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(cond, args...).
		Delete(model)
}

func (s *Store) deleteScoresForGames(ctx context.Context, userID string, gameIDs []string) *gorm.DB {
	gameRounds := s.db.Model(&Round{}).Select("id").Where("user_id = ? AND game_id IN ?", userID, gameIDs)
	return s.deleteOwned(ctx, &PlayerScore{}, userID, "round_id IN (?)", gameRounds)
}

func (s *Store) DeleteScoresForGames(ctx context.Context, userID string, gameIDs []string) error {
	if len(gameIDs) == 0 {
		return nil
	}
	return s.deleteScoresForGames(ctx, userID, gameIDs).Error
}

func (s *Store) DeleteRoundsForGames(ctx context.Context, userID string, gameIDs []string) error {
	if len(gameIDs) == 0 {
		return nil
	}
	return s.deleteOwned(ctx, &Round{}, userID, "game_id IN ?", gameIDs).Error
}

func (s *Store) DeleteGamePlayers(ctx context.Context, userID string, gameIDs []string) error {
	if len(gameIDs) == 0 {
		return nil
	}
	return s.deleteOwned(ctx, &GamePlayer{}, userID, "game_id IN ?", gameIDs).Error
}

func (s *Store) DeleteGames(ctx context.Context, userID string, gameIDs []string) error {
	if len(gameIDs) == 0 {
		return nil
	}
	return s.deleteOwned(ctx, &Game{}, userID, "id IN ?", gameIDs).Error
}

func (s *Store) DeleteScoresForRounds(ctx context.Context, userID string, roundIDs []string) error {
	if len(roundIDs) == 0 {
		return nil
	}
	return s.deleteOwned(ctx, &PlayerScore{}, userID, "round_id IN ?", roundIDs).Error
}

func (s *Store) DeleteRounds(ctx context.Context, userID string, roundIDs []string) error {
	if len(roundIDs) == 0 {
		return nil
	}
	return s.deleteOwned(ctx, &Round{}, userID, "id IN ?", roundIDs).Error
}

func (s *Store) DeleteScores(ctx context.Context, userID string, scoreIDs []string) error {
	if len(scoreIDs) == 0 {
		return nil
	}
	return s.deleteOwned(ctx, &PlayerScore{}, userID, "id IN ?", scoreIDs).Error
}

func (s *Store) deleteLinks(ctx context.Context, userID string, links []remote.GamePlayerRow) *gorm.DB {
	pairs := make([][]any, len(links))
	for i, l := range links {
		pairs[i] = []any{l.GameID, l.PlayerID}
	}
	return s.deleteOwned(ctx, &GamePlayer{}, userID, "(game_id, player_id) IN ?", pairs)
}

func (s *Store) DeleteLinks(ctx context.Context, userID string, links []remote.GamePlayerRow) error {
	if len(links) == 0 {
		return nil
	}
	return s.deleteLinks(ctx, userID, links).Error
}

func (s *Store) DeletePlayers(ctx context.Context, userID string, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	return s.deleteOwned(ctx, &Player{}, userID, "id IN ?", playerIDs).Error
}
