// Package handler implements the notifier's operational HTTP surface:
// liveness, scheduler status and a manual run/backfill entry point.
// All handlers are methods on Server so they share its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/monicajeon28/cruiseguide-sub009/internal/middleware"
	"github.com/monicajeon28/cruiseguide-sub009/internal/scheduler"
)

// maxRunBody caps POST /scheduler/run bodies. The only field is a timestamp.
const maxRunBody = 4 << 10

// Runner is the part of the scheduler engine the handlers drive.
// Defining it here lets handler tests inject a mock engine.
type Runner interface {
	RunOnce(ctx context.Context) (scheduler.Report, error)
	RunAt(ctx context.Context, now time.Time) (scheduler.Report, error)
	State() scheduler.State
	Started() bool
	Interval() time.Duration
	LastReport() (scheduler.Report, bool)
}

// Server holds the handler dependencies.
type Server struct {
	engine Runner
	logger *slog.Logger
}

// NewServer constructs the Server.
func NewServer(engine Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger}
}

// NewRouter mounts the ops endpoints behind the standard middleware stack:
// RequestID → RealIP → SlogLogger → Recoverer → CORS.
func NewRouter(s *Server, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(corsOrigins))

	r.Get("/healthz", s.GetHealth)
	r.Route("/scheduler", func(r chi.Router) {
		r.Get("/status", s.GetStatus)
		r.With(middleware.NewMaxBodySizeHandler(maxRunBody)).Post("/run", s.PostRun)
	})
	return r
}
