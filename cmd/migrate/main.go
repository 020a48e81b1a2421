package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/scorekeeper/internal/config"
	"github.com/mcoot/scorekeeper/internal/remote/gormstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the remote Postgres schema migrations",
		Long: `Apply the embedded remote schema migrations to DATABASE_URL. A .env file in
the working directory is loaded first when present.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				logger.Warn("failed to load .env", slog.String("error", err.Error()))
			}

			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				return errors.New("DATABASE_URL is not set")
			}

			if down > 0 {
				if err := gormstore.MigrateDown(dsn, down); err != nil {
					return err
				}
				logger.Info("database migrations rolled back", slog.Int("steps", down))
				return nil
			}

			version, err := gormstore.Migrate(dsn)
			if err != nil {
				return err
			}
			logger.Info("database migrations applied", slog.Uint64("version", uint64(version)))
			return nil
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")

	return cmd
}
