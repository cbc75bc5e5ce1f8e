package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Priya8975/football-predictions/internal/config"
)

const version = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "predictions",
		Short: "Football predictions subscription backend",
		Long: `predictions serves the prediction ingestion, notification and
subscription APIs, and applies the database migrations they depend on.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal outside local development.
			if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
				return err
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	serve := newServeCmd(logger)
	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd(logger))

	// Running the binary without a subcommand starts the server.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("configuration loaded",
		"port", cfg.Port,
		"mail_transport", cfg.Mail.Transport,
		"num_workers", cfg.NumWorkers,
	)
	return cfg, nil
}
