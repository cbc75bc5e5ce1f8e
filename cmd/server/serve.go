package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Priya8975/football-predictions/internal/api"
	"github.com/Priya8975/football-predictions/internal/auth"
	"github.com/Priya8975/football-predictions/internal/engine"
	"github.com/Priya8975/football-predictions/internal/mailer"
	"github.com/Priya8975/football-predictions/internal/notify"
	"github.com/Priya8975/football-predictions/internal/store"
	ws "github.com/Priya8975/football-predictions/internal/websocket"
	"github.com/Priya8975/football-predictions/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(logger *slog.Logger) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, realtime feed and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, logger, !skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	return cmd
}

func serve(ctx context.Context, logger *slog.Logger, migrate bool) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pgStore.Close()
	logger.Info("connected to PostgreSQL")

	if migrate {
		applied, err := pgStore.RunMigrations(ctx, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		logger.Info("database migrations applied", "count", len(applied))
	}

	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisStore.Close()
	rdb := redisStore.Client()
	logger.Info("connected to Redis")

	transport, err := mailer.New(ctx, cfg.Mail, logger)
	if err != nil {
		return fmt.Errorf("creating mail transport: %w", err)
	}
	breaker := engine.NewCircuitBreaker(rdb, cfg.Mail.BreakerThreshold, cfg.Mail.BreakerCooldown, logger)
	dispatcher := notify.NewDispatcher(
		engine.NewGuardedTransport(transport, breaker, logger),
		pgStore,
		engine.NewRateLimiter(rdb, logger),
		notify.RateLimit{Limit: cfg.Mail.RateLimit, Window: cfg.Mail.RateWindow},
		cfg.SiteURL,
		logger,
	)

	hub := ws.NewHub(logger)
	feed := ws.NewFeed(rdb, hub, pgStore, logger)
	writer := notify.NewWriter(pgStore, dispatcher, feed, logger)
	fanout := engine.NewFanOutEngine(pgStore, writer, logger)
	pool := worker.NewPool(cfg.NumWorkers, logger)

	router := api.NewRouter(api.Services{
		Auth:          auth.NewAuthenticator(cfg.JWTSecret, pgStore),
		Ingestor:      engine.NewIngestor(pgStore, fanout, logger),
		FanOut:        fanout,
		Reconciler:    engine.NewReconciler(pgStore, writer, pool, logger),
		Writer:        writer,
		Email:         dispatcher,
		Avatars:       engine.NewAvatarAssigner(pgStore, logger),
		Users:         pgStore,
		Notifications: pgStore,
		Stats:         pgStore,
		Feed:          feed,
		Breaker:       breaker,
		MailTransport: transport.Name(),
		Hub:           hub,
		DB:            pgStore,
		Version:       version,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background notifications must outlive the request that queued them
	// and are drained by pool.Stop during shutdown.
	pool.Start(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return feed.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		pool.Stop()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
