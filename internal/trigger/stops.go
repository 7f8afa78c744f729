package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/window"
)

// StopWarning is a lookback-window trigger over itinerary stops. The three
// stop-based rules (embarkation, disembarkation, boarding deadline) differ
// only in which stops they read, which time they anchor on, and their text.
type StopWarning struct {
	name     string
	typ      domain.TriggerType
	stopType domain.StopType
	span     time.Duration
	zone     *time.Location
	msg      message
	// list is a Reader method expression, e.g. Reader.ListPortVisitStopsBetween.
	list func(r Reader, ctx context.Context, from, to time.Time) ([]domain.ItineraryStop, error)
	// anchor returns the instant the warning leads up to; ok=false skips the stop.
	anchor func(s domain.ItineraryStop) (at domain.TimeOfDay, ok bool)
}

// NewEmbarkation warns EmbarkationRunway before boarding on embarkation day.
// Stops without an arrival time board at DefaultEmbarkationTime.
func NewEmbarkation(p Policy) *StopWarning {
	return &StopWarning{
		name:     "embarkation",
		typ:      domain.TriggerEmbarkation,
		stopType: domain.StopEmbarkation,
		span:     p.EmbarkationRunway,
		zone:     zoneOr(p.DefaultZone, nil),
		msg:      msgEmbarkation,
		list:     Reader.ListEmbarkationStopsBetween,
		anchor: func(s domain.ItineraryStop) (domain.TimeOfDay, bool) {
			return s.Arrival.OrDefault(p.DefaultEmbarkationTime), true
		},
	}
}

// NewDisembarkation warns DisembarkationLookback before arriving at a port.
// Stops without an arrival time arrive at DefaultArrivalTime.
func NewDisembarkation(p Policy) *StopWarning {
	return &StopWarning{
		name:     "disembarkation",
		typ:      domain.TriggerDisembarkation,
		stopType: domain.StopPortVisit,
		span:     p.DisembarkationLookback,
		zone:     zoneOr(p.DefaultZone, nil),
		msg:      msgDisembarkation,
		list:     Reader.ListPortVisitStopsBetween,
		anchor: func(s domain.ItineraryStop) (domain.TimeOfDay, bool) {
			return s.Arrival.OrDefault(p.DefaultArrivalTime), true
		},
	}
}

// NewBoarding warns BoardingLookback before the ship leaves a port.
// Missing it risks a traveller being left behind, so it is the most
// important rule in the registry.
func NewBoarding(p Policy) *StopWarning {
	return &StopWarning{
		name:     "boarding",
		typ:      domain.TriggerBoardingWarning,
		stopType: domain.StopPortVisit,
		span:     p.BoardingLookback,
		zone:     zoneOr(p.DefaultZone, nil),
		msg:      msgBoarding,
		list:     Reader.ListPortVisitStopsBetween,
		anchor: func(s domain.ItineraryStop) (domain.TimeOfDay, bool) {
			if s.Departure == nil && p.BoardingRequireDeparture {
				return domain.TimeOfDay{}, false
			}
			return s.Departure.OrDefault(p.DefaultDepartureTime), true
		},
	}
}

// Name implements Definition.
func (t *StopWarning) Name() string { return t.name }

// Load reads the stops dated within the stop horizon around now.
func (t *StopWarning) Load(ctx context.Context, r Reader, now time.Time) (Snapshot, error) {
	from, to := stopHorizon(now, t.zone)
	stops, err := t.list(r, ctx, from, to)
	if err != nil {
		return Snapshot{}, fmt.Errorf("trigger.%s.Load: %w", t.name, err)
	}
	return Snapshot{Stops: stops}, nil
}

// Evaluate emits one candidate per matching stop.
func (t *StopWarning) Evaluate(_ time.Time, snap Snapshot) []Candidate {
	var out []Candidate
	for _, stop := range uniqueStops(snap.Stops) {
		if stop.Type != t.stopType {
			continue
		}
		tod, ok := t.anchor(stop)
		if !ok {
			continue
		}
		zone := zoneOr(stop.Zone, t.zone)
		at := tod.On(stop.Date, zone)
		title, body := t.msg.render(messageData{
			TripName: stop.TripName,
			Location: stop.LocationName(),
			Time:     tod.String(),
			Lead:     humanDuration(t.span),
		})
		stopID := stop.ID

		out = append(out, Candidate{
			UserID:   stop.UserID,
			TripID:   stop.TripID,
			StopID:   &stopID,
			Type:     t.typ,
			Target:   at,
			Window:   window.NewLookback(at, t.span),
			Title:    title,
			Body:     body,
			EventKey: domain.EventKey(t.typ, stop.ID),
		})
	}
	return out
}
