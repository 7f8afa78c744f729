package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/handler"
	"github.com/monicajeon28/cruiseguide-sub009/internal/scheduler"
)

// mockRunner is a test double for handler.Runner.
// Set only the function fields a test needs.
type mockRunner struct {
	runOnce    func(ctx context.Context) (scheduler.Report, error)
	runAt      func(ctx context.Context, now time.Time) (scheduler.Report, error)
	state      scheduler.State
	started    bool
	interval   time.Duration
	lastReport *scheduler.Report
}

var _ handler.Runner = (*mockRunner)(nil)

func (m *mockRunner) RunOnce(ctx context.Context) (scheduler.Report, error) {
	return m.runOnce(ctx)
}

func (m *mockRunner) RunAt(ctx context.Context, now time.Time) (scheduler.Report, error) {
	return m.runAt(ctx, now)
}

func (m *mockRunner) State() scheduler.State { return m.state }
func (m *mockRunner) Started() bool { return m.started }
func (m *mockRunner) Interval() time.Duration { return m.interval }

func (m *mockRunner) LastReport() (scheduler.Report, bool) {
	if m.lastReport == nil {
		return scheduler.Report{}, false
	}
	return *m.lastReport, true
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newHTTPHandler(r handler.Runner) http.Handler {
	return handler.NewRouter(handler.NewServer(r, discard), nil)
}

var tickAt = time.Date(2025, 6, 10, 16, 10, 0, 0, time.UTC)

func sampleReport() scheduler.Report {
	return scheduler.Report{
		Now:       tickAt,
		StartedAt: tickAt,
		Duration:  42 * time.Millisecond,
		Triggers: []scheduler.TriggerResult{
			{Trigger: "preparation", Candidates: 2, Firing: 1, Sent: 1},
			{Trigger: "embarkation", Err: errors.New("domain read failed: timeout")},
		},
	}
}

type reportBody struct {
	Now        time.Time `json:"now"`
	DurationMS int64     `json:"duration_ms"`
	Triggers   []struct {
		Trigger string `json:"trigger"`
		Sent    int    `json:"sent"`
		Error   string `json:"error"`
	} `json:"triggers"`
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetStatus_BeforeFirstTick(t *testing.T) {
	h := newHTTPHandler(&mockRunner{started: true, interval: 10 * time.Minute})

	rec := do(h, http.MethodGet, "/scheduler/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, true, body["started"])
	assert.Equal(t, "10m0s", body["interval"])
	assert.NotContains(t, body, "last_tick")
}

func TestGetStatus_WithLastTick(t *testing.T) {
	last := sampleReport()
	h := newHTTPHandler(&mockRunner{state: scheduler.Running, lastReport: &last})

	rec := do(h, http.MethodGet, "/scheduler/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		State    string     `json:"state"`
		LastTick reportBody `json:"last_tick"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "running", body.State)
	assert.True(t, body.LastTick.Now.Equal(tickAt))
	assert.Equal(t, int64(42), body.LastTick.DurationMS)
	require.Len(t, body.LastTick.Triggers, 2)
	assert.Equal(t, 1, body.LastTick.Triggers[0].Sent)
	assert.Empty(t, body.LastTick.Triggers[0].Error)
	assert.Contains(t, body.LastTick.Triggers[1].Error, "timeout")
}

func TestPostRun_EmptyBodyRunsNow(t *testing.T) {
	called := false
	h := newHTTPHandler(&mockRunner{
		runOnce: func(ctx context.Context) (scheduler.Report, error) {
			called = true
			return sampleReport(), nil
		},
	})

	rec := do(h, http.MethodPost, "/scheduler/run", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	var body reportBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "preparation", body.Triggers[0].Trigger)
}

func TestPostRun_AtRunsBackfill(t *testing.T) {
	var got time.Time
	h := newHTTPHandler(&mockRunner{
		runAt: func(ctx context.Context, now time.Time) (scheduler.Report, error) {
			got = now
			return scheduler.Report{Now: now}, nil
		},
	})

	rec := do(h, http.MethodPost, "/scheduler/run", `{"at":"2025-06-10T07:30:00Z"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Equal(time.Date(2025, 6, 10, 7, 30, 0, 0, time.UTC)))
}

func TestPostRun_TickInProgressReturns409(t *testing.T) {
	h := newHTTPHandler(&mockRunner{
		runOnce: func(ctx context.Context) (scheduler.Report, error) {
			return scheduler.Report{}, domain.ErrTickInProgress
		},
	})

	rec := do(h, http.MethodPost, "/scheduler/run", "{}")

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "tick_in_progress", body["error"]["code"])
}

func TestPostRun_MalformedBodyReturns400(t *testing.T) {
	h := newHTTPHandler(&mockRunner{})

	for _, body := range []string{`{"at":`, `{"at":"yesterday"}`} {
		rec := do(h, http.MethodPost, "/scheduler/run", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestPostRun_OversizedBodyReturns413(t *testing.T) {
	h := newHTTPHandler(&mockRunner{})

	rec := do(h, http.MethodPost, "/scheduler/run", `{"at":"`+strings.Repeat("x", 8<<10)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPostRun_EngineErrorReturns500(t *testing.T) {
	h := newHTTPHandler(&mockRunner{
		runOnce: func(ctx context.Context) (scheduler.Report, error) {
			return scheduler.Report{}, errors.New("boom")
		},
	})

	rec := do(h, http.MethodPost, "/scheduler/run", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPostRun_SurvivesClientCancellation(t *testing.T) {
	var tickCtxErr error
	h := newHTTPHandler(&mockRunner{
		runOnce: func(ctx context.Context) (scheduler.Report, error) {
			tickCtxErr = ctx.Err()
			return scheduler.Report{}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/scheduler/run", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NoError(t, tickCtxErr)
}
