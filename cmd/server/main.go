package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/scorekeeper/internal/api"
	"github.com/mcoot/scorekeeper/internal/config"
	"github.com/mcoot/scorekeeper/internal/factory"
	"github.com/mcoot/scorekeeper/internal/remote"
	"github.com/mcoot/scorekeeper/internal/remote/gormstore"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	redisstorage "github.com/mcoot/scorekeeper/internal/storage/redis"
	sqlitestorage "github.com/mcoot/scorekeeper/internal/storage/sqlite"
	"github.com/mcoot/scorekeeper/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
	})
	if err != nil {
		logger.Error("failed to set up tracing", slog.String("error", err.Error()))
		return 1
	}

	// Create application factory
	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return 1
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port

	// Drain pending remote writes and close storage on the way out
	defer func() {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		defer cancelClose()
		if err := app.Close(closeCtx); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(closeCtx); err != nil {
			logger.Warn("failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	if err := app.Start(ctx, cfg.Identity()); err != nil {
		logger.Error("failed to load data", slog.String("error", err.Error()))
		return 1
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Tracker:       app.Tracker,
		Hub:           app.Hub,
		Clock:         app.Clock,
		RemoteEnabled: app.RemoteService != nil,
	})

	// Create server
	server := api.NewServer(router, serverConfig, logger)
	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		return 1
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("local_store", cfg.LocalStore),
		slog.String("remote_driver", cfg.RemoteDriver),
	)

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// SSE streams stay open until the hub closes
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	logger.Info("server stopped")
	return exitCode
}

// factoryConfig maps environment configuration onto the factory
func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:       logger,
		StorageType:  cfg.LocalStore,
		RemoteDriver: cfg.RemoteDriver,
		SyncConfig:   reconcile.Config{QueueSize: cfg.SyncQueueSize},
	}

	switch cfg.LocalStore {
	case config.LocalStoreSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		sqliteCfg.Path = cfg.LocalSQLitePath
		fc.SQLiteConfig = &sqliteCfg
	case config.LocalStoreRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	}

	if cfg.RemoteDriver == config.RemoteDriverPostgres {
		gormCfg := gormstore.DefaultConfig()
		gormCfg.DSN = cfg.DatabaseURL
		gormCfg.AutoMigrate = cfg.RemoteAutoMigrate
		fc.GormConfig = &gormCfg
	}

	remoteCfg := remote.DefaultConfig()
	remoteCfg.MaxRetries = cfg.RemoteMaxRetries
	remoteCfg.Timeout = cfg.RemoteTimeout
	fc.RemoteConfig = remoteCfg

	return fc
}
