// Package trigger holds the notification rules of the engine.
//
// Each Definition is split in two: Load reads the minimal, time-bounded
// snapshot it needs through a Reader, and Evaluate maps that snapshot to
// candidate events. Evaluate is pure: the same snapshot and the same now
// always yield the same candidates. Deciding which candidates fire is left
// to each candidate's window.
package trigger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/window"
)

// Reader is the read-only query surface over trips and itinerary stops.
// All ranges are half-open: from <= date < to. Dates are calendar dates
// expressed as midnight UTC.
type Reader interface {
	ListTripsStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Trip, error)
	ListPortVisitStopsBetween(ctx context.Context, from, to time.Time) ([]domain.ItineraryStop, error)
	ListEmbarkationStopsBetween(ctx context.Context, from, to time.Time) ([]domain.ItineraryStop, error)
	ListCompletedTripsEndingOn(ctx context.Context, date time.Time) ([]domain.Trip, error)
}

// Snapshot is the slice of domain state one trigger evaluates.
type Snapshot struct {
	Trips []domain.Trip
	Stops []domain.ItineraryStop
}

// Definition is one independently pluggable notification rule.
type Definition interface {
	// Name identifies the rule in logs and reports.
	Name() string
	// Load reads the bounded snapshot the rule needs around now.
	Load(ctx context.Context, r Reader, now time.Time) (Snapshot, error)
	// Evaluate turns a snapshot into candidates. It performs no I/O.
	Evaluate(now time.Time, snap Snapshot) []Candidate
}

// Candidate is an in-memory notification proposal produced by a Definition.
// It is never persisted; EventKey is the only thing that outlives it.
type Candidate struct {
	UserID   uuid.UUID
	TripID   uuid.UUID
	StopID   *uuid.UUID
	Type     domain.TriggerType
	Target   time.Time
	Window   window.Window
	Title    string
	Body     string
	EventKey string
}

// Firing reports whether the candidate's window contains now.
func (c Candidate) Firing(now time.Time) bool {
	return c.Window.Contains(now)
}

// LogEntry builds the notification log row recorded after dispatch.
func (c Candidate) LogEntry(sentAt time.Time) domain.NotificationLog {
	return domain.NotificationLog{
		ID:          uuid.New(),
		EventKey:    c.EventKey,
		UserID:      c.UserID,
		TripID:      c.TripID,
		StopID:      c.StopID,
		TriggerType: c.Type,
		Title:       c.Title,
		Body:        c.Body,
		SentAt:      sentAt,
	}
}

// Firing filters candidates down to the ones whose window contains now.
func Firing(now time.Time, cands []Candidate) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if c.Firing(now) {
			out = append(out, c)
		}
	}
	return out
}

// Registry returns every trigger in its fixed evaluation order:
// preparation (D-7/D-1), embarkation, disembarkation, boarding deadline,
// post-trip feedback.
func Registry(p Policy) []Definition {
	return []Definition{
		NewPreparation(p),
		NewEmbarkation(p),
		NewDisembarkation(p),
		NewBoarding(p),
		NewFeedback(p),
	}
}

// zoneOr returns z, or fallback when z is nil.
func zoneOr(z, fallback *time.Location) *time.Location {
	if z != nil {
		return z
	}
	if fallback != nil {
		return fallback
	}
	return time.UTC
}

// stopHorizon is the calendar-date range of stops that can have an open
// window around now: yesterday through tomorrow in the default zone, widened
// by a day on each side so trips in other zones are not cut off.
func stopHorizon(now time.Time, zone *time.Location) (from, to time.Time) {
	today := window.Today(now, zone)
	return today.AddDays(-2).Date(), today.AddDays(3).Date()
}

// uniqueStops drops repeated stop ids, keeping the first occurrence.
func uniqueStops(stops []domain.ItineraryStop) []domain.ItineraryStop {
	seen := make(map[uuid.UUID]struct{}, len(stops))
	out := make([]domain.ItineraryStop, 0, len(stops))
	for _, s := range stops {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// uniqueTrips drops repeated trip ids, keeping the first occurrence.
func uniqueTrips(trips []domain.Trip) []domain.Trip {
	seen := make(map[uuid.UUID]struct{}, len(trips))
	out := make([]domain.Trip, 0, len(trips))
	for _, t := range trips {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
