package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/monicajeon28/cruiseguide-sub009/internal/clock"
	"github.com/monicajeon28/cruiseguide-sub009/internal/config"
	"github.com/monicajeon28/cruiseguide-sub009/internal/dispatch"
	"github.com/monicajeon28/cruiseguide-sub009/internal/guard"
	"github.com/monicajeon28/cruiseguide-sub009/internal/repo"
	"github.com/monicajeon28/cruiseguide-sub009/internal/scheduler"
	"github.com/monicajeon28/cruiseguide-sub009/internal/trigger"
)

// app owns the long-lived resources of one notifier process.
type app struct {
	engine  *scheduler.Engine
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires the engine from configuration.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	var rdb *redis.Client
	if cfg.LogStore == config.LogStoreRedis || cfg.Dispatcher == config.DispatcherRedis {
		if rdb, err = newRedis(ctx, cfg.RedisURL); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	store, closeStore, err := newLogStore(ctx, cfg, pool, rdb)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	dispatcher, err := newDispatcher(cfg, rdb, logger)
	if err != nil {
		return nil, err
	}

	a.engine = scheduler.New(scheduler.Deps{
		Triggers:   trigger.Registry(cfg.TriggerPolicy()),
		Reader:     repo.NewReader(pool, logger),
		Guard:      guard.New(store, logger),
		Dispatcher: dispatcher,
		Clock:      clock.System{},
	}, scheduler.Config{
		Interval:    cfg.PollInterval,
		CallTimeout: cfg.CallTimeout,
	}, logger)

	logger.Info("notifier wired",
		"log_store", cfg.LogStore,
		"dispatcher", cfg.Dispatcher,
		"default_timezone", cfg.DefaultTimezone.String(),
	)
	return a, nil
}

func newRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// newLogStore selects the notification log backend. The returned func
// releases whatever the store opened itself.
func newLogStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, rdb *redis.Client) (guard.LogStore, func(), error) {
	noop := func() {}
	switch cfg.LogStore {
	case config.LogStoreRedis:
		return repo.NewRedisLogStore(rdb, ""), noop, nil
	case config.LogStoreSQLite:
		db, err := repo.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := repo.NewSQLiteLogStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil
	case config.LogStorePostgres:
		return repo.NewLogStore(pool), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown log store %q", cfg.LogStore)
	}
}

func newDispatcher(cfg config.Config, rdb *redis.Client, logger *slog.Logger) (scheduler.Dispatcher, error) {
	switch cfg.Dispatcher {
	case config.DispatcherWebhook:
		wc := dispatch.DefaultWebhookConfig(cfg.WebhookURL)
		wc.RatePerSecond = cfg.WebhookRatePerSecond
		return dispatch.NewWebhook(wc, nil, logger)
	case config.DispatcherRedis:
		return dispatch.NewRedisStream(rdb, cfg.RedisStream, 100_000), nil
	case config.DispatcherLog:
		return dispatch.NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unknown dispatcher %q", cfg.Dispatcher)
	}
}
