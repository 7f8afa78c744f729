package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/trigger"
	"github.com/monicajeon28/cruiseguide-sub009/internal/window"
)

// runTrigger is the failure boundary of one trigger: errors and panics are
// logged and reported, never propagated to the next trigger.
func (e *Engine) runTrigger(ctx context.Context, def trigger.Definition, now time.Time, interval time.Duration) (res TriggerResult) {
	res.Trigger = def.Name()
	log := e.logger.With("trigger", res.Trigger)

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("trigger %s panicked: %v", res.Trigger, p)
			log.ErrorContext(ctx, "trigger panicked", "panic", p, "stack", string(debug.Stack()))
		}
	}()

	loadCtx, cancel := e.callContext(ctx)
	snap, err := def.Load(loadCtx, e.deps.Reader, now)
	cancel()
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", domain.ErrDomainRead, err)
		log.ErrorContext(ctx, "trigger snapshot read failed", "error", err)
		return res
	}

	cands := def.Evaluate(now, snap)
	res.Candidates = len(cands)

	for _, c := range cands {
		if c.Firing(now) {
			res.Firing++
			e.deliver(ctx, c, &res)
			continue
		}
		if window.ClosedWithin(c.Window, now, interval) {
			e.checkMissed(ctx, c, &res)
		}
	}
	return res
}

// deliver runs check → dispatch → record for one firing candidate.
func (e *Engine) deliver(ctx context.Context, c trigger.Candidate, res *TriggerResult) {
	log := e.logger.With(
		"trigger", res.Trigger,
		"event_key", c.EventKey,
		"trip_id", c.TripID,
	)
	if c.StopID != nil {
		log = log.With("stop_id", *c.StopID)
	}

	checkCtx, cancel := e.callContext(ctx)
	ok, err := e.deps.Guard.ShouldSend(checkCtx, c.EventKey)
	cancel()
	if err != nil {
		res.Failed++
		log.ErrorContext(ctx, "notification log check failed", "error", err)
		return
	}
	if !ok {
		res.Skipped++
		return
	}

	sendCtx, cancel := e.callContext(ctx)
	err = e.deps.Dispatcher.Send(sendCtx, c.UserID, c.Title, c.Body)
	cancel()
	if err != nil {
		res.Failed++
		log.WarnContext(ctx, "notification dispatch failed; will retry while the window is open", "error", err)
		return
	}
	res.Sent++

	recordCtx, cancel := e.callContext(ctx)
	err = e.deps.Guard.RecordSent(recordCtx, c.LogEntry(e.deps.Clock.Now().UTC()))
	cancel()
	if err != nil {
		res.Unrecorded++
		log.ErrorContext(ctx, "notification sent but not recorded; it may be sent again", "error", err)
		return
	}
	log.InfoContext(ctx, "notification sent", "user_id", c.UserID, "type", c.Type)
}

// checkMissed reports a candidate whose window closed since the previous
// tick without a log row.
func (e *Engine) checkMissed(ctx context.Context, c trigger.Candidate, res *TriggerResult) {
	checkCtx, cancel := e.callContext(ctx)
	unsent, err := e.deps.Guard.ShouldSend(checkCtx, c.EventKey)
	cancel()
	if err != nil || !unsent {
		return
	}
	res.Missed++
	e.logger.ErrorContext(ctx, "notification window closed without a send",
		"alert", true,
		"trigger", res.Trigger,
		"event_key", c.EventKey,
		"trip_id", c.TripID,
		"window_start", c.Window.Start().UTC().Format(time.RFC3339),
		"window_end", c.Window.End().UTC().Format(time.RFC3339),
	)
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.CallTimeout)
}
