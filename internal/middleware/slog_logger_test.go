package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicajeon28/cruiseguide-sub009/internal/middleware"
)

func serveLogged(t *testing.T, status int) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.NewSlogLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodPost, "/scheduler/run", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "test-req-id"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, status, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSlogLogger_LogsRequestFields(t *testing.T) {
	entry := serveLogged(t, http.StatusAccepted)

	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/scheduler/run", entry["path"])
	assert.EqualValues(t, http.StatusAccepted, entry["status"])
	assert.Equal(t, "test-req-id", entry["request_id"])
	assert.NotNil(t, entry["duration_ms"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestSlogLogger_LevelFollowsStatus(t *testing.T) {
	assert.Equal(t, "WARN", serveLogged(t, http.StatusConflict)["level"])
	assert.Equal(t, "ERROR", serveLogged(t, http.StatusInternalServerError)["level"])
}
