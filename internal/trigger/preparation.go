package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/window"
)

// Preparation reminds travellers 7 days and 1 day before departure.
// Both reminders use a day-match window on the trip's local calendar and
// only apply to trips that are still Upcoming.
type Preparation struct {
	zone *time.Location
}

// NewPreparation constructs the D-7/D-1 trigger.
func NewPreparation(p Policy) *Preparation {
	return &Preparation{zone: zoneOr(p.DefaultZone, nil)}
}

// Name implements Definition.
func (t *Preparation) Name() string { return "preparation" }

// Load reads trips departing around today+7 and today+1. Each range is
// widened by a day on both sides to cover trips in other time zones.
func (t *Preparation) Load(ctx context.Context, r Reader, now time.Time) (Snapshot, error) {
	today := window.Today(now, t.zone)

	week, err := r.ListTripsStartingBetween(ctx, today.AddDays(6).Date(), today.AddDays(9).Date())
	if err != nil {
		return Snapshot{}, fmt.Errorf("trigger.Preparation.Load: d-7: %w", err)
	}
	day, err := r.ListTripsStartingBetween(ctx, today.Date(), today.AddDays(3).Date())
	if err != nil {
		return Snapshot{}, fmt.Errorf("trigger.Preparation.Load: d-1: %w", err)
	}
	return Snapshot{Trips: append(week, day...)}, nil
}

// Evaluate emits a D-7 and a D-1 candidate for every upcoming trip.
func (t *Preparation) Evaluate(_ time.Time, snap Snapshot) []Candidate {
	var out []Candidate
	for _, trip := range uniqueTrips(snap.Trips) {
		if trip.Status != domain.TripUpcoming {
			continue
		}
		zone := zoneOr(trip.Zone, t.zone)
		start := window.DayOf(trip.StartDate)
		data := messageData{TripName: trip.DisplayName()}

		out = append(out,
			t.candidate(trip, domain.TriggerDDaySeven, start, 7, zone, msgDDaySeven, data),
			t.candidate(trip, domain.TriggerDDayOne, start, 1, zone, msgDDayOne, data),
		)
	}
	return out
}

func (t *Preparation) candidate(trip domain.Trip, typ domain.TriggerType, start window.Day, daysBefore int, zone *time.Location, msg message, data messageData) Candidate {
	title, body := msg.render(data)
	return Candidate{
		UserID:   trip.UserID,
		TripID:   trip.ID,
		Type:     typ,
		Target:   start.Midnight(zone),
		Window:   window.NewDayMatch(start.AddDays(-daysBefore), zone),
		Title:    title,
		Body:     body,
		EventKey: domain.EventKey(typ, trip.ID),
	}
}
