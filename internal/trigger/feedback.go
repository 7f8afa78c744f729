package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/window"
)

// Feedback asks for a review on the day after a completed trip ended.
type Feedback struct {
	zone *time.Location
}

// NewFeedback constructs the post-trip feedback trigger.
func NewFeedback(p Policy) *Feedback {
	return &Feedback{zone: zoneOr(p.DefaultZone, nil)}
}

// Name implements Definition.
func (t *Feedback) Name() string { return "feedback" }

// Load reads completed trips that ended yesterday, plus the day on either
// side for trips whose local calendar differs from the default zone.
func (t *Feedback) Load(ctx context.Context, r Reader, now time.Time) (Snapshot, error) {
	yesterday := window.Today(now, t.zone).AddDays(-1)

	var snap Snapshot
	for _, d := range []window.Day{yesterday.AddDays(-1), yesterday, yesterday.AddDays(1)} {
		trips, err := r.ListCompletedTripsEndingOn(ctx, d.Date())
		if err != nil {
			return Snapshot{}, fmt.Errorf("trigger.Feedback.Load: %s: %w", d, err)
		}
		snap.Trips = append(snap.Trips, trips...)
	}
	return snap, nil
}

// Evaluate emits one candidate per completed trip, firing on the local day
// after its end date.
func (t *Feedback) Evaluate(_ time.Time, snap Snapshot) []Candidate {
	var out []Candidate
	for _, trip := range uniqueTrips(snap.Trips) {
		if trip.Status != domain.TripCompleted || trip.EndDate == nil {
			continue
		}
		zone := zoneOr(trip.Zone, t.zone)
		dayAfter := window.DayOf(*trip.EndDate).AddDays(1)
		title, body := msgFeedback.render(messageData{TripName: trip.DisplayName()})

		out = append(out, Candidate{
			UserID:   trip.UserID,
			TripID:   trip.ID,
			Type:     domain.TriggerFeedback,
			Target:   dayAfter.Midnight(zone),
			Window:   window.NewDayMatch(dayAfter, zone),
			Title:    title,
			Body:     body,
			EventKey: domain.EventKey(domain.TriggerFeedback, trip.ID),
		})
	}
	return out
}
