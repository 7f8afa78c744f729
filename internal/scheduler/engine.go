// Package scheduler runs the notification triggers on a periodic timer.
//
// One tick reads each trigger's snapshot, evaluates it, filters candidates
// to the ones whose window contains now, and runs check → dispatch → record
// for every firing candidate. Triggers are processed sequentially in
// registry order, each inside its own failure boundary. Ticks never overlap:
// a tick requested while another is running is skipped, not queued.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/monicajeon28/cruiseguide-sub009/internal/clock"
	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/trigger"
)

// Dispatcher delivers one rendered notification to a user.
type Dispatcher interface {
	Send(ctx context.Context, userID uuid.UUID, title, body string) error
}

// Guard is the idempotency guard around dispatch. *guard.Guard satisfies it.
type Guard interface {
	ShouldSend(ctx context.Context, eventKey string) (bool, error)
	RecordSent(ctx context.Context, entry domain.NotificationLog) error
}

// State is the tick state of an Engine.
type State int32

const (
	// Idle means no tick is in progress.
	Idle State = iota
	// Running means a tick is being processed.
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 10 * time.Minute

// Config holds the engine's timing knobs.
type Config struct {
	// Interval is the expected gap between ticks. Windows that closed within
	// the last Interval without a log row are reported as missed. Start
	// overrides it with the interval actually scheduled.
	Interval time.Duration
	// CallTimeout bounds every reader, guard and dispatcher call.
	// Zero disables the bound.
	CallTimeout time.Duration
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Triggers   []trigger.Definition
	Reader     trigger.Reader
	Guard      Guard
	Dispatcher Dispatcher
	Clock      clock.Clock
}

// Engine is the scheduler loop. Each Engine owns its own state, so several
// can run side by side in tests.
type Engine struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger

	running atomic.Bool

	mu       sync.Mutex
	cron     *cron.Cron
	interval time.Duration
	last     *Report
}

// New constructs an Engine. A nil Clock selects clock.System.
func New(deps Deps, cfg Config, logger *slog.Logger) *Engine {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Engine{deps: deps, cfg: cfg, logger: logger, interval: cfg.Interval}
}

// State reports whether a tick is in progress.
func (e *Engine) State() State {
	if e.running.Load() {
		return Running
	}
	return Idle
}

// Started reports whether the periodic timer is active.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cron != nil
}

// Interval returns the poll interval in effect.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// LastReport returns the report of the most recent completed tick.
func (e *Engine) LastReport() (Report, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Report{}, false
	}
	return *e.last, true
}

// Start schedules a tick every interval. The first tick runs one interval
// after Start returns.
func (e *Engine) Start(interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("scheduler.Engine.Start: %w: interval must be at least 1s, got %s", domain.ErrValidation, interval)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		return domain.ErrAlreadyStarted
	}

	c := cron.New(
		cron.WithLogger(cronLogger{e.logger}),
		cron.WithChain(cron.Recover(cronLogger{e.logger}), cron.SkipIfStillRunning(cronLogger{e.logger})),
	)
	c.Schedule(cron.Every(interval), cron.FuncJob(e.tick))
	c.Start()

	e.cron = c
	e.interval = interval
	e.logger.Info("scheduler started", "interval", interval.String(), "triggers", len(e.deps.Triggers))
	return nil
}

// Stop stops scheduling new ticks and waits for an in-flight tick to finish,
// or for ctx to be done. A running tick is never interrupted.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	c := e.cron
	e.cron = nil
	e.mu.Unlock()

	if c == nil {
		return domain.ErrNotStarted
	}

	done := c.Stop()
	select {
	case <-done.Done():
		e.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler.Engine.Stop: waiting for in-flight tick: %w", ctx.Err())
	}
}

// tick is the cron job. It runs detached from any request context so Stop
// does not cut a tick short.
func (e *Engine) tick() {
	if _, err := e.RunOnce(context.Background()); err != nil {
		e.logger.Warn("scheduler tick skipped", "error", err)
	}
}

// RunOnce runs a single tick at the clock's current time.
func (e *Engine) RunOnce(ctx context.Context) (Report, error) {
	return e.RunAt(ctx, e.deps.Clock.Now())
}

// RunAt runs a single tick as if the current time were now. It is used for
// backfill after an outage; deduplication applies as usual. It returns
// domain.ErrTickInProgress when another tick is running.
func (e *Engine) RunAt(ctx context.Context, now time.Time) (Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		return Report{}, domain.ErrTickInProgress
	}
	defer e.running.Store(false)

	started := time.Now()
	report := Report{Now: now, StartedAt: started}
	interval := e.Interval()

	for _, def := range e.deps.Triggers {
		report.Triggers = append(report.Triggers, e.runTrigger(ctx, def, now, interval))
	}
	report.Duration = time.Since(started)

	totals := report.Totals()
	e.logger.InfoContext(ctx, "scheduler tick complete",
		"now", now.UTC().Format(time.RFC3339),
		"duration_ms", report.Duration.Milliseconds(),
		"candidates", totals.Candidates,
		"firing", totals.Firing,
		"sent", totals.Sent,
		"skipped", totals.Skipped,
		"failed", totals.Failed,
		"unrecorded", totals.Unrecorded,
		"missed", totals.Missed,
		"trigger_errors", report.Errors(),
	)

	e.mu.Lock()
	e.last = &report
	e.mu.Unlock()
	return report, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
