package trigger

import (
	"time"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// Policy carries the business-policy knobs of the triggers.
// Values normally come from config.Config.
type Policy struct {
	// EmbarkationRunway is how long before boarding the embarkation warning opens.
	EmbarkationRunway time.Duration
	// DisembarkationLookback is how long before port arrival the disembarkation warning opens.
	DisembarkationLookback time.Duration
	// BoardingLookback is how long before departure the boarding-deadline warning opens.
	BoardingLookback time.Duration

	// Fallback times used when a stop's own time field is empty.
	DefaultEmbarkationTime domain.TimeOfDay
	DefaultArrivalTime     domain.TimeOfDay
	DefaultDepartureTime   domain.TimeOfDay

	// BoardingRequireDeparture skips port visits without a departure time
	// instead of assuming DefaultDepartureTime.
	BoardingRequireDeparture bool

	// DefaultZone is used for trips without a time zone of their own.
	DefaultZone *time.Location
}

// DefaultPolicy returns the production defaults: a 3h embarkation runway,
// 1h port-arrival and departure warnings, fallback times 14:00/08:00/18:00,
// boarding warnings only for stops with a known departure, UTC.
func DefaultPolicy() Policy {
	return Policy{
		EmbarkationRunway:        3 * time.Hour,
		DisembarkationLookback:   time.Hour,
		BoardingLookback:         time.Hour,
		DefaultEmbarkationTime:   domain.MustTimeOfDay("14:00"),
		DefaultArrivalTime:       domain.MustTimeOfDay("08:00"),
		DefaultDepartureTime:     domain.MustTimeOfDay("18:00"),
		BoardingRequireDeparture: true,
		DefaultZone:              time.UTC,
	}
}
