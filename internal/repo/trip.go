// Package repo contains all storage access for the notification engine.
// The Postgres reader serves trips and itinerary stops; the notification log
// has Postgres, Redis and SQLite implementations sharing one contract.
// No business logic lives here, only queries and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Reader is the Postgres implementation of the engine's domain reader.
// Rows that fail validation (unknown status or stop type, malformed
// "HH:MM", unknown time zone) are logged and skipped so one bad record
// never hides the rest of the result.
type Reader struct {
	db     db
	logger *slog.Logger
	zones  zoneCache
}

// NewReader constructs a Reader backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewReader(db db, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{db: db, logger: logger}
}

const tripColumns = `id, user_id, status, name, start_date, end_date, time_zone`

// ListTripsStartingBetween returns trips with from <= start_date < to.
func (r *Reader) ListTripsStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE start_date >= @from AND start_date < @to
		ORDER BY start_date, id`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.Reader.ListTripsStartingBetween: %w", err)
	}
	return trips, nil
}

// ListCompletedTripsEndingOn returns Completed trips whose end_date equals date.
func (r *Reader) ListCompletedTripsEndingOn(ctx context.Context, date time.Time) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status = 'Completed' AND end_date = @date
		ORDER BY id`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"date": date})
	if err != nil {
		return nil, fmt.Errorf("repo.Reader.ListCompletedTripsEndingOn: %w", err)
	}
	return trips, nil
}

func (r *Reader) queryTrips(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := r.scanTrip(rows)
		if errors.Is(err, domain.ErrValidation) {
			r.logger.WarnContext(ctx, "skipping invalid trip row", "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, nullable end_date and time zone conversions.
func (r *Reader) scanTrip(s scanner) (domain.Trip, error) {
	var (
		t       domain.Trip
		id      pgtype.UUID
		userID  pgtype.UUID
		status  string
		sdRaw   pgtype.Date
		endDate pgtype.Date
		zone    pgtype.Text
	)

	if err := s.Scan(&id, &userID, &status, &t.Name, &sdRaw, &endDate, &zone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.UserID = uuid.UUID(userID.Bytes)
	t.StartDate = sdRaw.Time
	if endDate.Valid {
		ed := endDate.Time
		t.EndDate = &ed
	}

	var err error
	if t.Status, err = domain.ParseTripStatus(status); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s: %w", t.ID, err)
	}
	if t.Zone, err = r.zones.lookup(zone); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s: %w", t.ID, err)
	}
	return t, nil
}

// zoneCache memoizes time.LoadLocation, which reads the zoneinfo database.
type zoneCache struct {
	mu    sync.Mutex
	zones map[string]*time.Location
}

// lookup resolves a nullable IANA zone name. NULL or empty yields nil, which
// the triggers read as "use the default zone".
func (c *zoneCache) lookup(name pgtype.Text) (*time.Location, error) {
	if !name.Valid || name.String == "" {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if loc, ok := c.zones[name.String]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name.String)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", domain.ErrValidation, name.String)
	}
	if c.zones == nil {
		c.zones = make(map[string]*time.Location)
	}
	c.zones[name.String] = loc
	return loc, nil
}
