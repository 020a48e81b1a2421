// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mcoot/scorekeeper/internal/model"
)

// Local store backends
const (
	LocalStoreSQLite = "sqlite"
	LocalStoreRedis  = "redis"
	LocalStoreMemory = "memory"
)

// Remote drivers. An empty driver disables remote sync.
const (
	RemoteDriverPostgres = "postgres"
	RemoteDriverMemory   = "memory"
)

// Config is the server's environment configuration
type Config struct {
	Host     string `env:"SCOREKEEPER_ADDR"`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	LocalStore      string `env:"LOCAL_STORE" envDefault:"sqlite"`
	LocalSQLitePath string `env:"LOCAL_SQLITE_PATH" envDefault:"scorekeeper.db"`
	RedisURL        string `env:"REDIS_URL"`

	RemoteDriver      string        `env:"REMOTE_DRIVER"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	RemoteAutoMigrate bool          `env:"REMOTE_AUTO_MIGRATE" envDefault:"false"`
	RemoteMaxRetries  uint          `env:"REMOTE_MAX_RETRIES" envDefault:"3"`
	RemoteTimeout     time.Duration `env:"REMOTE_TIMEOUT" envDefault:"10s"`
	SyncQueueSize     int           `env:"SYNC_QUEUE_SIZE" envDefault:"16"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`

	// UserID is the identity to start with; empty starts anonymous
	UserID string `env:"SCOREKEEPER_USER_ID"`
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load reads the optional dotenv file and then parses the environment
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := LoadDotEnv(dotenvPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LocalStore = strings.ToLower(strings.TrimSpace(cfg.LocalStore))
	cfg.RemoteDriver = strings.ToLower(strings.TrimSpace(cfg.RemoteDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need
func (c Config) Validate() error {
	var errs []error

	switch c.LocalStore {
	case LocalStoreSQLite:
		if c.LocalSQLitePath == "" {
			errs = append(errs, errors.New("LOCAL_SQLITE_PATH is required when LOCAL_STORE=sqlite"))
		}
	case LocalStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when LOCAL_STORE=redis"))
		}
	case LocalStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("LOCAL_STORE must be sqlite, redis or memory, got %q", c.LocalStore))
	}

	switch c.RemoteDriver {
	case "", RemoteDriverMemory:
	case RemoteDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when REMOTE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("REMOTE_DRIVER must be postgres, memory or empty, got %q", c.RemoteDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.SyncQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("SYNC_QUEUE_SIZE must be positive, got %d", c.SyncQueueSize))
	}
	if c.RemoteMaxRetries == 0 {
		errs = append(errs, errors.New("REMOTE_MAX_RETRIES must be at least 1"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the configured log level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Identity returns the starting identity, or nil for anonymous
func (c Config) Identity() *model.Identity {
	userID := strings.TrimSpace(c.UserID)
	if userID == "" {
		return nil
	}
	return &model.Identity{UserID: model.UserID(userID)}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
