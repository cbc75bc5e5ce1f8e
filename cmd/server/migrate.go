package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Priya8975/football-predictions/internal/store"
)

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pgStore.Close()

			applied, err := pgStore.RunMigrations(ctx, cfg.MigrationsDir)
			if err != nil {
				return err
			}
			logger.Info("database migrations applied", "applied", applied, "count", len(applied))
			return nil
		},
	}
}
