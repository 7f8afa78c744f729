// Package domain contains the core data types for the trip notification engine.
// This package depends only on google/uuid and is imported by every other
// internal package (repo, trigger, guard, scheduler, handler).
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a booked voyage.
type TripStatus string

const (
	TripUpcoming   TripStatus = "Upcoming"
	TripInProgress TripStatus = "InProgress"
	TripCompleted  TripStatus = "Completed"
	TripCancelled  TripStatus = "Cancelled"
)

// ParseTripStatus validates a raw status value read from storage.
// Returns domain.ErrValidation for anything outside the four known states.
func ParseTripStatus(s string) (TripStatus, error) {
	switch st := TripStatus(s); st {
	case TripUpcoming, TripInProgress, TripCompleted, TripCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown trip status %q", ErrValidation, s)
}

// Trip represents one customer's booked voyage.
// StartDate and EndDate are calendar dates (midnight UTC carrying the civil
// year/month/day); Zone decides which wall clock those dates belong to.
type Trip struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    TripStatus
	Name      string
	StartDate time.Time
	EndDate   *time.Time // nil when the booking has no end date yet

	// Zone is the trip's local time zone. Nil means "use the engine default".
	Zone *time.Location
}

// DisplayName returns the trip name, or a generic label when it is blank.
func (t Trip) DisplayName() string {
	if t.Name == "" {
		return "your cruise"
	}
	return t.Name
}
