// Package window decides whether a candidate notification is "firing now".
//
// Two shapes are supported and shared by every trigger:
//   - DayMatch: fires for the whole civil day Target in Zone.
//   - Lookback: fires in the half-open interval [Target-Lookback, Target).
package window

import "time"

// Window is a time range during which a candidate fires.
// Start is inclusive, End is exclusive.
type Window interface {
	Contains(now time.Time) bool
	Start() time.Time
	End() time.Time
}

// DayMatch fires when now, read in Zone, falls on the civil day Target.
type DayMatch struct {
	Target Day
	Zone   *time.Location
}

// NewDayMatch builds a day-match window. A nil zone means UTC.
func NewDayMatch(target Day, zone *time.Location) DayMatch {
	if zone == nil {
		zone = time.UTC
	}
	return DayMatch{Target: target, Zone: zone}
}

// Contains compares dates only; time of day is ignored.
func (w DayMatch) Contains(now time.Time) bool {
	return DayOf(now.In(w.Zone)) == w.Target
}

// Start is local midnight of the target day.
func (w DayMatch) Start() time.Time { return w.Target.Midnight(w.Zone) }

// End is local midnight of the following day.
func (w DayMatch) End() time.Time { return w.Target.AddDays(1).Midnight(w.Zone) }

// Lookback fires from Target-Span up to, but not including, Target.
// Once Target has passed the window is closed for good, so a warning about an
// already departed ship is never sent.
type Lookback struct {
	Target time.Time
	Span   time.Duration
}

// NewLookback builds a lookback-interval window.
func NewLookback(target time.Time, span time.Duration) Lookback {
	return Lookback{Target: target, Span: span}
}

// Contains reports Target-Span <= now < Target.
func (w Lookback) Contains(now time.Time) bool {
	return !now.Before(w.Start()) && now.Before(w.Target)
}

// Start is Target-Span.
func (w Lookback) Start() time.Time { return w.Target.Add(-w.Span) }

// End is Target.
func (w Lookback) End() time.Time { return w.Target }

// ClosedWithin reports whether w ended in (now-d, now].
// The scheduler uses it to spot windows that closed since the previous tick.
func ClosedWithin(w Window, now time.Time, d time.Duration) bool {
	end := w.End()
	return !end.After(now) && end.After(now.Add(-d))
}
