package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicajeon28/cruiseguide-sub009/internal/config"
	"github.com/monicajeon28/cruiseguide-sub009/internal/dispatch"
	"github.com/monicajeon28/cruiseguide-sub009/internal/repo"
	"github.com/monicajeon28/cruiseguide-sub009/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewLogStore_SQLite(t *testing.T) {
	cfg := config.Config{LogStore: config.LogStoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "log.db")}

	store, closeStore, err := newLogStore(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &repo.SQLiteLogStore{}, store)
	exists, err := store.Exists(context.Background(), "DDAY_SEVEN_x")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewLogStore_Redis(t *testing.T) {
	client, _ := testutil.NewRedis(t)

	store, closeStore, err := newLogStore(context.Background(), config.Config{LogStore: config.LogStoreRedis}, nil, client)
	require.NoError(t, err)
	defer closeStore()

	assert.IsType(t, &repo.RedisLogStore{}, store)
}

func TestNewLogStore_Unknown(t *testing.T) {
	_, _, err := newLogStore(context.Background(), config.Config{LogStore: "etcd"}, nil, nil)
	assert.Error(t, err)
}

func TestNewDispatcher(t *testing.T) {
	client, _ := testutil.NewRedis(t)

	d, err := newDispatcher(config.Config{Dispatcher: config.DispatcherLog}, nil, discard)
	require.NoError(t, err)
	assert.IsType(t, &dispatch.Log{}, d)

	d, err = newDispatcher(config.Config{Dispatcher: config.DispatcherRedis, RedisStream: "push"}, client, discard)
	require.NoError(t, err)
	assert.IsType(t, &dispatch.RedisStream{}, d)

	d, err = newDispatcher(config.Config{
		Dispatcher:           config.DispatcherWebhook,
		WebhookURL:           "http://127.0.0.1:1/push",
		WebhookRatePerSecond: 5,
	}, nil, discard)
	require.NoError(t, err)
	assert.IsType(t, &dispatch.Webhook{}, d)

	_, err = newDispatcher(config.Config{Dispatcher: "fax"}, nil, discard)
	assert.Error(t, err)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := newRedis(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	l := newLogger("chatty")
	assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))
}
