package window

import "time"

// Day is a civil calendar date with no time zone attached.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t as seen in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// Today returns the calendar date of now as seen in loc.
func Today(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return DayOf(now.In(loc))
}

// AddDays returns the date n days later (negative n goes back).
func (d Day) AddDays(n int) Day {
	return DayOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Midnight returns the first instant of d in loc.
func (d Day) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Date returns d as midnight UTC, the form calendar dates take in storage.
func (d Day) Date() time.Time {
	return d.Midnight(time.UTC)
}

// String formats d as "2006-01-02".
func (d Day) String() string {
	return d.Date().Format(time.DateOnly)
}
