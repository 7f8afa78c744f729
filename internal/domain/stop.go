package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StopType classifies one day/event of an itinerary.
type StopType string

const (
	StopEmbarkation    StopType = "Embarkation"
	StopPortVisit      StopType = "PortVisit"
	StopCruising       StopType = "Cruising"
	StopDisembarkation StopType = "Disembarkation"
)

// ParseStopType validates a raw stop type read from storage.
func ParseStopType(s string) (StopType, error) {
	switch st := StopType(s); st {
	case StopEmbarkation, StopPortVisit, StopCruising, StopDisembarkation:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown stop type %q", ErrValidation, s)
}

// ItineraryStop is one row of a trip's itinerary.
// UserID, TripName and Zone are copied from the owning trip by the reader so
// triggers never need a second lookup.
type ItineraryStop struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	UserID    uuid.UUID
	TripName  string
	Type      StopType
	Date      time.Time
	Arrival   *TimeOfDay
	Departure *TimeOfDay
	Location  string
	Zone      *time.Location
}

// LocationName returns the stop's location, or "port" when it is blank.
func (s ItineraryStop) LocationName() string {
	if s.Location == "" {
		return "port"
	}
	return s.Location
}
