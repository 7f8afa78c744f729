// Command notifier runs the cruise itinerary notification engine.
//
// Usage:
//
//	notifier serve                          # ops HTTP surface + periodic scheduler
//	notifier run-once                       # a single tick at the current time
//	notifier run-once --at 2025-06-10T07:30:00Z
//	notifier migrate                        # apply goose migrations
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/monicajeon28/cruiseguide-sub009/internal/config"
	"github.com/monicajeon28/cruiseguide-sub009/internal/handler"
	"github.com/monicajeon28/cruiseguide-sub009/migrations"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "notifier",
		Short:         "Cruise itinerary notification engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(runOnceCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		slog.Error("notifier failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the JSON logger as the default.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("configuration: %w", err)
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler loop and the ops HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.Start(cfg.PollInterval); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:         ":" + cfg.OpsPort,
				Handler:      handler.NewRouter(handler.NewServer(a.engine, logger), cfg.CORSOrigins),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 2 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}
			serveErr := make(chan error, 1)
			go func() {
				logger.Info("ops server starting", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-serveErr:
				if err != nil {
					logger.Error("ops server error", "error", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := a.engine.Stop(shutdownCtx); err != nil {
				logger.Error("scheduler stop", "error", err)
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("ops server shutdown: %w", err)
			}
			logger.Info("notifier stopped")
			return nil
		},
	}
}

func runOnceCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single scheduler tick and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now()
			if at != "" {
				if now, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}
			report, err := a.engine.RunAt(ctx, now)
			if err != nil {
				return err
			}
			if n := report.Errors(); n > 0 {
				return fmt.Errorf("%d trigger(s) failed; see log", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this RFC 3339 instant (backfill)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			db, err := sql.Open("pgx", cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
			if err != nil {
				return fmt.Errorf("create goose provider: %w", err)
			}
			results, err := provider.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			for _, r := range results {
				logger.Info("migration applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
			}
			return nil
		},
	}
}
