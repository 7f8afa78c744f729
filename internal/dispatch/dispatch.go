// Package dispatch delivers rendered notifications to users.
//
// Every dispatcher has the same method set:
//
//	Send(ctx, userID, title, body) error
//
// A nil error means the transport accepted the message. That includes users
// with no registered delivery targets: there is nothing to retry for them.
// Transport failures are wrapped with domain.ErrDispatch.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Log writes each notification to the structured log instead of delivering
// it. It is the default for local runs and dry runs.
type Log struct {
	logger *slog.Logger
}

// NewLog constructs a Log dispatcher.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send logs the notification and always succeeds.
func (d *Log) Send(ctx context.Context, userID uuid.UUID, title, body string) error {
	d.logger.InfoContext(ctx, "notification",
		"user_id", userID,
		"title", title,
		"body", body,
	)
	return nil
}
