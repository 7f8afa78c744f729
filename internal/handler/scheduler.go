package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/monicajeon28/cruiseguide-sub009/internal/domain"
	"github.com/monicajeon28/cruiseguide-sub009/internal/scheduler"
)

type statusResponse struct {
	State    string          `json:"state"`
	Started  bool            `json:"started"`
	Interval string          `json:"interval"`
	LastTick *reportResponse `json:"last_tick,omitempty"`
}

type runRequest struct {
	At *time.Time `json:"at"`
}

type reportResponse struct {
	Now        time.Time               `json:"now"`
	StartedAt  time.Time               `json:"started_at"`
	DurationMS int64                   `json:"duration_ms"`
	Triggers   []triggerResultResponse `json:"triggers"`
}

type triggerResultResponse struct {
	Trigger    string `json:"trigger"`
	Candidates int    `json:"candidates"`
	Firing     int    `json:"firing"`
	Sent       int    `json:"sent"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Unrecorded int    `json:"unrecorded"`
	Missed     int    `json:"missed"`
	Error      string `json:"error,omitempty"`
}

// GetStatus handles GET /scheduler/status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		State:    s.engine.State().String(),
		Started:  s.engine.Started(),
		Interval: s.engine.Interval().String(),
	}
	if last, ok := s.engine.LastReport(); ok {
		rr := reportToResponse(last)
		resp.LastTick = &rr
	}
	writeJSON(w, http.StatusOK, resp)
}

// PostRun handles POST /scheduler/run. An empty body runs a tick now; a
// body of {"at": "<RFC 3339>"} evaluates the triggers as of that instant.
// The tick is detached from the request so a disconnecting client does not
// abort it halfway.
func (s *Server) PostRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body: "+err.Error())
		return
	}

	ctx := context.WithoutCancel(r.Context())
	var (
		report scheduler.Report
		err    error
	)
	if req.At != nil {
		report, err = s.engine.RunAt(ctx, *req.At)
	} else {
		report, err = s.engine.RunOnce(ctx)
	}
	if errors.Is(err, domain.ErrTickInProgress) {
		writeError(w, http.StatusConflict, "tick_in_progress", err.Error())
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "manual run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "manual run failed")
		return
	}

	writeJSON(w, http.StatusOK, reportToResponse(report))
}

func reportToResponse(r scheduler.Report) reportResponse {
	out := reportResponse{
		Now:        r.Now.UTC(),
		StartedAt:  r.StartedAt.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Triggers:   make([]triggerResultResponse, len(r.Triggers)),
	}
	for i, tr := range r.Triggers {
		out.Triggers[i] = triggerResultResponse{
			Trigger:    tr.Trigger,
			Candidates: tr.Candidates,
			Firing:     tr.Firing,
			Sent:       tr.Sent,
			Skipped:    tr.Skipped,
			Failed:     tr.Failed,
			Unrecorded: tr.Unrecorded,
			Missed:     tr.Missed,
		}
		if tr.Err != nil {
			out.Triggers[i].Error = tr.Err.Error()
		}
	}
	return out
}
