// Package guard implements the idempotency guard around notification dispatch.
//
// Every candidate goes through check → dispatch → record. Checking first
// avoids needless dispatches for events already sent. Recording after
// dispatch means a send can exist without a record (the at-least-once
// caveat) but a record never exists without an attempted send.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
)

// LogStore is the durable notification log keyed by event key.
// Insert must return domain.ErrAlreadyExists when the key is taken; the
// uniqueness has to be enforced by the store itself, not by the caller.
type LogStore interface {
	Exists(ctx context.Context, eventKey string) (bool, error)
	Insert(ctx context.Context, entry domain.NotificationLog) error
}

// Guard deduplicates notifications by event key.
type Guard struct {
	store  LogStore
	logger *slog.Logger
}

// New constructs a Guard backed by store.
func New(store LogStore, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, logger: logger}
}

// ShouldSend reports true iff no log row exists for eventKey.
func (g *Guard) ShouldSend(ctx context.Context, eventKey string) (bool, error) {
	exists, err := g.store.Exists(ctx, eventKey)
	if err != nil {
		return false, fmt.Errorf("guard.Guard.ShouldSend: %w", err)
	}
	return !exists, nil
}

// RecordSent persists the log row for a dispatched notification.
// A uniqueness conflict means a concurrent runner already recorded the same
// event; it is logged and treated as success.
func (g *Guard) RecordSent(ctx context.Context, entry domain.NotificationLog) error {
	err := g.store.Insert(ctx, entry)
	if errors.Is(err, domain.ErrAlreadyExists) {
		g.logger.InfoContext(ctx, "notification already recorded by a concurrent run",
			"event_key", entry.EventKey,
			"trigger", entry.TriggerType,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("guard.Guard.RecordSent: %w", err)
	}
	return nil
}
