package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// ListPortVisitStopsBetween returns PortVisit stops with from <= stop_date < to.
// Stops of cancelled trips are excluded.
func (r *Reader) ListPortVisitStopsBetween(ctx context.Context, from, to time.Time) ([]domain.ItineraryStop, error) {
	stops, err := r.listStops(ctx, domain.StopPortVisit, from, to)
	if err != nil {
		return nil, fmt.Errorf("repo.Reader.ListPortVisitStopsBetween: %w", err)
	}
	return stops, nil
}

// ListEmbarkationStopsBetween returns Embarkation stops with from <= stop_date < to.
// Stops of cancelled trips are excluded.
func (r *Reader) ListEmbarkationStopsBetween(ctx context.Context, from, to time.Time) ([]domain.ItineraryStop, error) {
	stops, err := r.listStops(ctx, domain.StopEmbarkation, from, to)
	if err != nil {
		return nil, fmt.Errorf("repo.Reader.ListEmbarkationStopsBetween: %w", err)
	}
	return stops, nil
}

// listStops joins each stop with its trip so the owner, trip name and time
// zone travel with the stop.
func (r *Reader) listStops(ctx context.Context, stopType domain.StopType, from, to time.Time) ([]domain.ItineraryStop, error) {
	const q = `
		SELECT s.id, s.trip_id, t.user_id, t.name, s.stop_type, s.stop_date,
		       s.arrival_time, s.departure_time, s.location, t.time_zone
		FROM itinerary_stops s
		JOIN trips t ON t.id = s.trip_id
		WHERE s.stop_type = @stop_type
		  AND s.stop_date >= @from AND s.stop_date < @to
		  AND t.status <> 'Cancelled'
		ORDER BY s.stop_date, s.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"stop_type": string(stopType),
		"from":      from,
		"to":        to,
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := []domain.ItineraryStop{}
	for rows.Next() {
		s, err := r.scanStop(rows)
		if errors.Is(err, domain.ErrValidation) {
			r.logger.WarnContext(ctx, "skipping invalid itinerary stop row", "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return stops, nil
}

// scanStop maps a joined stop row into a domain.ItineraryStop.
func (r *Reader) scanStop(s scanner) (domain.ItineraryStop, error) {
	var (
		st        domain.ItineraryStop
		id        pgtype.UUID
		tripID    pgtype.UUID
		userID    pgtype.UUID
		stopType  string
		date      pgtype.Date
		arrival   pgtype.Text
		departure pgtype.Text
		location  pgtype.Text
		zone      pgtype.Text
	)

	err := s.Scan(&id, &tripID, &userID, &st.TripName, &stopType, &date, &arrival, &departure, &location, &zone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItineraryStop{}, domain.ErrNotFound
		}
		return domain.ItineraryStop{}, err
	}

	st.ID = uuid.UUID(id.Bytes)
	st.TripID = uuid.UUID(tripID.Bytes)
	st.UserID = uuid.UUID(userID.Bytes)
	st.Date = date.Time
	st.Location = location.String

	if st.Type, err = domain.ParseStopType(stopType); err != nil {
		return domain.ItineraryStop{}, fmt.Errorf("stop %s: %w", st.ID, err)
	}
	if st.Arrival, err = parseOptionalTime(arrival); err != nil {
		return domain.ItineraryStop{}, fmt.Errorf("stop %s arrival: %w", st.ID, err)
	}
	if st.Departure, err = parseOptionalTime(departure); err != nil {
		return domain.ItineraryStop{}, fmt.Errorf("stop %s departure: %w", st.ID, err)
	}
	if st.Zone, err = r.zones.lookup(zone); err != nil {
		return domain.ItineraryStop{}, fmt.Errorf("stop %s: %w", st.ID, err)
	}
	return st, nil
}

// parseOptionalTime converts a nullable "HH:MM" column. NULL and blank map to nil.
func parseOptionalTime(v pgtype.Text) (*domain.TimeOfDay, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := domain.ParseTimeOfDay(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
