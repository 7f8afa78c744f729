package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver for database/sql

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notification_logs (
    id           TEXT PRIMARY KEY,
    event_key    TEXT NOT NULL UNIQUE,
    user_id      TEXT NOT NULL,
    trip_id      TEXT NOT NULL,
    stop_id      TEXT,
    trigger_type TEXT NOT NULL,
    title        TEXT NOT NULL,
    body         TEXT NOT NULL,
    sent_at      TEXT NOT NULL
)`

// OpenSQLite opens the SQLite database at path (":memory:" is accepted).
// The pool is limited to one connection: SQLite serializes writers anyway,
// and an in-memory database exists only on the connection that created it.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: pragma: %w", err)
	}
	return db, nil
}

// SQLiteLogStore is a single-node notification log for deployments without
// Postgres.
type SQLiteLogStore struct {
	db *sql.DB
}

// NewSQLiteLogStore creates the notification_logs table if needed and
// returns a store on top of it.
func NewSQLiteLogStore(ctx context.Context, db *sql.DB) (*SQLiteLogStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("repo.NewSQLiteLogStore: create schema: %w", err)
	}
	return &SQLiteLogStore{db: db}, nil
}

// Exists reports whether a log row with eventKey is present.
func (s *SQLiteLogStore) Exists(ctx context.Context, eventKey string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM notification_logs WHERE event_key = ?)`, eventKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repo.SQLiteLogStore.Exists: %w", err)
	}
	return exists, nil
}

// Insert writes entry, returning domain.ErrAlreadyExists when the event key
// is already present.
func (s *SQLiteLogStore) Insert(ctx context.Context, entry domain.NotificationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}

	var stopID sql.NullString
	if entry.StopID != nil {
		stopID = sql.NullString{String: entry.StopID.String(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_logs
			(id, event_key, user_id, trip_id, stop_id, trigger_type, title, body, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_key) DO NOTHING`,
		entry.ID.String(),
		entry.EventKey,
		entry.UserID.String(),
		entry.TripID.String(),
		stopID,
		string(entry.TriggerType),
		entry.Title,
		entry.Body,
		entry.SentAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("repo.SQLiteLogStore.Insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repo.SQLiteLogStore.Insert: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get returns the log row for eventKey, or domain.ErrNotFound.
func (s *SQLiteLogStore) Get(ctx context.Context, eventKey string) (domain.NotificationLog, error) {
	var (
		l                  domain.NotificationLog
		id, userID, tripID string
		stopID             sql.NullString
		trigger, sentAt    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event_key, user_id, trip_id, stop_id, trigger_type, title, body, sent_at
		FROM notification_logs
		WHERE event_key = ?`, eventKey,
	).Scan(&id, &l.EventKey, &userID, &tripID, &stopID, &trigger, &l.Title, &l.Body, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotificationLog{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.NotificationLog{}, fmt.Errorf("repo.SQLiteLogStore.Get: %w", err)
	}

	if l.ID, err = uuid.Parse(id); err != nil {
		return domain.NotificationLog{}, fmt.Errorf("repo.SQLiteLogStore.Get: id: %w", err)
	}
	if l.UserID, err = uuid.Parse(userID); err != nil {
		return domain.NotificationLog{}, fmt.Errorf("repo.SQLiteLogStore.Get: user_id: %w", err)
	}
	if l.TripID, err = uuid.Parse(tripID); err != nil {
		return domain.NotificationLog{}, fmt.Errorf("repo.SQLiteLogStore.Get: trip_id: %w", err)
	}
	if stopID.Valid {
		sid, err := uuid.Parse(stopID.String)
		if err != nil {
			return domain.NotificationLog{}, fmt.Errorf("repo.SQLiteLogStore.Get: stop_id: %w", err)
		}
		l.StopID = &sid
	}
	if l.SentAt, err = time.Parse(time.RFC3339Nano, sentAt); err != nil {
		return domain.NotificationLog{}, fmt.Errorf("repo.SQLiteLogStore.Get: sent_at: %w", err)
	}
	l.TriggerType = domain.TriggerType(trigger)
	return l, nil
}
