package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// pgUniqueViolation is the SQLSTATE Postgres returns when a UNIQUE constraint
// is violated.
const pgUniqueViolation = "23505"

// LogStore is the Postgres notification log. The UNIQUE constraint on
// event_key is the arbiter between concurrent runners.
type LogStore struct {
	db db
}

// NewLogStore constructs a LogStore backed by the provided db connection.
func NewLogStore(db db) *LogStore {
	return &LogStore{db: db}
}

// Exists reports whether a log row with eventKey is present.
func (s *LogStore) Exists(ctx context.Context, eventKey string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM notification_logs WHERE event_key = @event_key)`

	var exists bool
	if err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"event_key": eventKey}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.LogStore.Exists: %w", err)
	}
	return exists, nil
}

// Insert writes entry. It returns domain.ErrAlreadyExists when a row with the
// same event key is already present.
func (s *LogStore) Insert(ctx context.Context, entry domain.NotificationLog) error {
	const q = `
		INSERT INTO notification_logs
			(id, event_key, user_id, trip_id, stop_id, trigger_type, title, body, sent_at)
		VALUES
			(@id, @event_key, @user_id, @trip_id, @stop_id, @trigger_type, @title, @body, @sent_at)
		ON CONFLICT (event_key) DO NOTHING`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           entry.ID,
		"event_key":    entry.EventKey,
		"user_id":      entry.UserID,
		"trip_id":      entry.TripID,
		"stop_id":      entry.StopID,
		"trigger_type": string(entry.TriggerType),
		"title":        entry.Title,
		"body":         entry.Body,
		"sent_at":      entry.SentAt,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("repo.LogStore.Insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get returns the log row for eventKey, or domain.ErrNotFound.
func (s *LogStore) Get(ctx context.Context, eventKey string) (domain.NotificationLog, error) {
	const q = `
		SELECT id, event_key, user_id, trip_id, stop_id, trigger_type, title, body, sent_at
		FROM notification_logs
		WHERE event_key = @event_key`

	var (
		l       domain.NotificationLog
		id      pgtype.UUID
		userID  pgtype.UUID
		tripID  pgtype.UUID
		stopID  pgtype.UUID
		trigger string
	)
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"event_key": eventKey}).
		Scan(&id, &l.EventKey, &userID, &tripID, &stopID, &trigger, &l.Title, &l.Body, &l.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotificationLog{}, domain.ErrNotFound
		}
		return domain.NotificationLog{}, fmt.Errorf("repo.LogStore.Get: %w", err)
	}

	l.ID = uuid.UUID(id.Bytes)
	l.UserID = uuid.UUID(userID.Bytes)
	l.TripID = uuid.UUID(tripID.Bytes)
	if stopID.Valid {
		sid := uuid.UUID(stopID.Bytes)
		l.StopID = &sid
	}
	l.TriggerType = domain.TriggerType(trigger)
	return l, nil
}
