package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/dependencies/ids"
	"github.com/mcoot/scorekeeper/internal/dependencies/random"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/notify"
	"github.com/mcoot/scorekeeper/internal/remote"
	"github.com/mcoot/scorekeeper/internal/remote/gormstore"
	remotememory "github.com/mcoot/scorekeeper/internal/remote/memory"
	"github.com/mcoot/scorekeeper/internal/services/appearance"
	"github.com/mcoot/scorekeeper/internal/services/joincode"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
	"github.com/mcoot/scorekeeper/internal/services/transfer"
	"github.com/mcoot/scorekeeper/internal/storage"
	"github.com/mcoot/scorekeeper/internal/storage/local"
	"github.com/mcoot/scorekeeper/internal/storage/memory"
	redisstorage "github.com/mcoot/scorekeeper/internal/storage/redis"
	sqlitestorage "github.com/mcoot/scorekeeper/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Remote driver constants. An empty driver disables remote sync.
const (
	RemoteDriverPostgres = "postgres"
	RemoteDriverMemory   = "memory"
)

// App contains all wired application components
type App struct {
	// Storage
	KV         storage.KV
	LocalStore *local.Store

	// Remote is nil when remote sync is disabled
	RemoteRepository remote.Repository
	RemoteService    *remote.Service

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	// Services
	JoinCodes *joincode.Generator
	Assigner  *appearance.Assigner
	Transfer  *transfer.Service
	Engine    *reconcile.Engine
	Hub       *notify.Hub
	Publisher *notify.Publisher
	Tracker   *tracker.Controller

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the local backend ("memory", "sqlite" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// SQLiteConfig holds the database path (required if StorageType is "sqlite")
	SQLiteConfig *sqlitestorage.Config
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RemoteDriver selects the remote store ("postgres", "memory" or empty for none)
	RemoteDriver string
	// GormConfig holds Postgres settings (required if RemoteDriver is "postgres")
	GormConfig *gormstore.Config
	// RemoteConfig holds retry settings for remote calls
	// If zero value, defaults to remote.DefaultConfig()
	RemoteConfig remote.Config
	// SyncConfig sizes the remote write queue
	// If zero value, defaults to reconcile.DefaultConfig()
	SyncConfig reconcile.Config
	// Tracer records remote spans (optional); nil uses the global provider
	Tracer trace.Tracer
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	kv, err := openKV(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := openRemote(cfg)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	remoteCfg := cfg.RemoteConfig
	if remoteCfg.MaxRetries == 0 {
		remoteCfg = remote.DefaultConfig()
	}
	syncCfg := cfg.SyncConfig
	if syncCfg.QueueSize == 0 {
		syncCfg = reconcile.DefaultConfig()
	}

	return newWithDependencies(dependencies{
		kv:        kv,
		repo:      repo,
		clock:     clock.New(),
		random:    random.New(),
		ids:       ids.New(),
		remoteCfg: remoteCfg,
		syncCfg:   syncCfg,
		tracer:    cfg.Tracer,
		logger:    logger,
	}), nil
}

func openKV(cfg Config) (storage.KV, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeSQLite:
		if cfg.SQLiteConfig == nil {
			return nil, errors.New("SQLiteConfig required when StorageType is sqlite")
		}
		return sqlitestorage.Open(*cfg.SQLiteConfig)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'sqlite' or 'redis'")
	}
}

func openRemote(cfg Config) (remote.Repository, error) {
	switch cfg.RemoteDriver {
	case "":
		return nil, nil
	case RemoteDriverMemory:
		return remotememory.New(), nil
	case RemoteDriverPostgres:
		if cfg.GormConfig == nil {
			return nil, errors.New("GormConfig required when RemoteDriver is postgres")
		}
		return gormstore.Open(*cfg.GormConfig)
	default:
		return nil, errors.New("invalid RemoteDriver: must be 'postgres', 'memory' or empty")
	}
}

// dependencies are the externally supplied parts of an App
type dependencies struct {
	kv        storage.KV
	repo      remote.Repository
	clock     clock.Clock
	random    random.Random
	ids       ids.Generator
	remoteCfg remote.Config
	syncCfg   reconcile.Config
	tracer    trace.Tracer
	logger    *slog.Logger

	// extra receives every notification alongside the SSE hub
	extra []notify.Notifier
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies) *App {
	logger := deps.logger

	joinCodes := joincode.New(deps.random)
	assigner := appearance.New(deps.random)
	localStore := local.New(deps.kv, deps.clock, deps.ids, logger)

	// A disabled remote must reach the engine as a nil interface
	var (
		remoteService *remote.Service
		remoteStore   reconcile.RemoteStore
	)
	if deps.repo != nil {
		remoteService = remote.NewService(deps.repo, joinCodes, deps.ids, deps.tracer, logger, deps.remoteCfg)
		remoteStore = remoteService
	}

	hub := notify.NewHub(logger)
	publisher := notify.NewPublisher(hub, logger)
	notifier := append(notify.Fanout{publisher}, deps.extra...)

	engine := reconcile.New(localStore, remoteStore, notifier, deps.clock, logger, deps.syncCfg)
	transferService := transfer.New(deps.clock, deps.ids, joinCodes, assigner, logger)
	trackerController := tracker.NewController(
		engine, transferService, joinCodes, assigner, deps.ids, deps.clock, notifier, logger,
	)

	return &App{
		KV:               deps.kv,
		LocalStore:       localStore,
		RemoteRepository: deps.repo,
		RemoteService:    remoteService,
		Clock:            deps.clock,
		Random:           deps.random,
		IDs:              deps.ids,
		JoinCodes:        joinCodes,
		Assigner:         assigner,
		Transfer:         transferService,
		Engine:           engine,
		Hub:              hub,
		Publisher:        publisher,
		Tracker:          trackerController,
		Logger:           logger,
	}
}

// Start runs the notification hub and loads state for identity
func (a *App) Start(ctx context.Context, identity *model.Identity) error {
	go a.Hub.Run()
	if err := a.Tracker.Start(ctx, identity); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	return nil
}

// Close drains queued remote writes until ctx expires and releases storage
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Tracker.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain remote queue: %w", err))
	}
	a.Hub.Close()
	if err := a.KV.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close local store: %w", err))
	}
	if a.RemoteRepository != nil {
		if err := a.RemoteRepository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close remote store: %w", err))
		}
	}
	return errors.Join(errs...)
}
