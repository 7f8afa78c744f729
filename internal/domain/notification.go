package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggerType names the rule that produced a notification.
type TriggerType string

const (
	TriggerDDaySeven       TriggerType = "DDAY_SEVEN"
	TriggerDDayOne         TriggerType = "DDAY_ONE"
	TriggerEmbarkation     TriggerType = "EMBARKATION"
	TriggerDisembarkation  TriggerType = "DISEMBARKATION"
	TriggerBoardingWarning TriggerType = "BOARDING_WARNING"
	TriggerFeedback        TriggerType = "FEEDBACK"
)

// EventKey builds the deduplication key for one real-world occurrence,
// e.g. "DDAY_SEVEN_<trip id>" or "BOARDING_WARNING_<stop id>".
// The same trigger and subject always yield the same key.
func EventKey(t TriggerType, subject uuid.UUID) string {
	return string(t) + "_" + subject.String()
}

// NotificationLog is the durable dedup/audit record for one sent notification.
// EventKey is unique at the storage layer.
type NotificationLog struct {
	ID          uuid.UUID
	EventKey    string
	UserID      uuid.UUID
	TripID      uuid.UUID
	StopID      *uuid.UUID // nil for trip-level triggers
	TriggerType TriggerType
	Title       string
	Body        string
	SentAt      time.Time
}
