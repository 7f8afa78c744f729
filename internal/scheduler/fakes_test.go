package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/guard"
	"github.com/monicajeon28/cruiseguide-sub009/internal/scheduler"
	"github.com/monicajeon28/cruiseguide-sub009/internal/trigger"
)

// fakeReader serves trips and stops from memory, filtered the same way the
// Postgres reader filters them. Setting a method name in errs makes that
// method fail; block makes it wait for ctx.
type fakeReader struct {
	trips []domain.Trip
	stops []domain.ItineraryStop
	errs  map[string]error
	block map[string]bool
}

var _ trigger.Reader = (*fakeReader)(nil)

func (f *fakeReader) fail(ctx context.Context, method string) error {
	if f.block[method] {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.errs[method]
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && d.Before(to)
}

func (f *fakeReader) ListTripsStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Trip, error) {
	if err := f.fail(ctx, "ListTripsStartingBetween"); err != nil {
		return nil, err
	}
	var out []domain.Trip
	for _, t := range f.trips {
		if inRange(t.StartDate, from, to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeReader) listStops(typ domain.StopType, from, to time.Time) []domain.ItineraryStop {
	var out []domain.ItineraryStop
	for _, s := range f.stops {
		if s.Type == typ && inRange(s.Date, from, to) {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeReader) ListPortVisitStopsBetween(ctx context.Context, from, to time.Time) ([]domain.ItineraryStop, error) {
	if err := f.fail(ctx, "ListPortVisitStopsBetween"); err != nil {
		return nil, err
	}
	return f.listStops(domain.StopPortVisit, from, to), nil
}

func (f *fakeReader) ListEmbarkationStopsBetween(ctx context.Context, from, to time.Time) ([]domain.ItineraryStop, error) {
	if err := f.fail(ctx, "ListEmbarkationStopsBetween"); err != nil {
		return nil, err
	}
	return f.listStops(domain.StopEmbarkation, from, to), nil
}

func (f *fakeReader) ListCompletedTripsEndingOn(ctx context.Context, date time.Time) ([]domain.Trip, error) {
	if err := f.fail(ctx, "ListCompletedTripsEndingOn"); err != nil {
		return nil, err
	}
	var out []domain.Trip
	for _, t := range f.trips {
		if t.Status == domain.TripCompleted && t.EndDate != nil && t.EndDate.Equal(date) {
			out = append(out, t)
		}
	}
	return out, nil
}

// memLogStore is an in-memory notification log. failInserts makes the next
// n inserts fail with a transient error.
type memLogStore struct {
	mu          sync.Mutex
	rows        map[string]domain.NotificationLog
	failInserts int
}

var _ guard.LogStore = (*memLogStore)(nil)

func newMemLogStore() *memLogStore {
	return &memLogStore{rows: map[string]domain.NotificationLog{}}
}

var errTransient = errors.New("connection reset by peer")

func (m *memLogStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[key]
	return ok, nil
}

func (m *memLogStore) Insert(_ context.Context, e domain.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInserts > 0 {
		m.failInserts--
		return errTransient
	}
	if _, ok := m.rows[e.EventKey]; ok {
		return domain.ErrAlreadyExists
	}
	m.rows[e.EventKey] = e
	return nil
}

func (m *memLogStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type sent struct {
	UserID uuid.UUID
	Title  string
	Body   string
}

// mockDispatcher records every Send. SendFn, when set, decides the result.
type mockDispatcher struct {
	mu     sync.Mutex
	calls  []sent
	SendFn func(ctx context.Context, userID uuid.UUID, title, body string) error
}

var _ scheduler.Dispatcher = (*mockDispatcher)(nil)

func (m *mockDispatcher) Send(ctx context.Context, userID uuid.UUID, title, body string) error {
	m.mu.Lock()
	m.calls = append(m.calls, sent{UserID: userID, Title: title, Body: body})
	fn := m.SendFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID, title, body)
	}
	return nil
}

func (m *mockDispatcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// panicking is a trigger whose evaluation always panics.
type panicking struct{}

func (panicking) Name() string { return "panicking" }

func (panicking) Load(context.Context, trigger.Reader, time.Time) (trigger.Snapshot, error) {
	return trigger.Snapshot{}, nil
}

func (panicking) Evaluate(time.Time, trigger.Snapshot) []trigger.Candidate {
	var m map[string]int
	m["boom"]++
	return nil
}
