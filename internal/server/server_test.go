package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/app"
	"github.com/ternarybob/marketpulse/internal/common"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir() + "/db"
	cfg.Schedule.Timezone = "UTC"
	cfg.Providers.Yahoo.Enabled = false

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application)
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body struct {
		Status  string   `json:"status"`
		Domains []string `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Domains, "no provider keys configured")
}

func TestRoutes_Preflight(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodOptions, "/api/runs/news")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRoutes_RunsEmptyLedger(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs []json.RawMessage `json:"runs"`
		Jobs []json.RawMessage `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Runs)
	assert.Empty(t, body.Jobs)
}

func TestRoutes_TriggerUnconfiguredDomain(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodPost, "/api/runs/options")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/api/runs/options")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutes_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/unknown")

	rec = serve(s, http.MethodGet, "/api/snapshots/AAPL")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t)

	handler := s.withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/news", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/api/health")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "dashboard-42")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "dashboard-42", rec.Header().Get(RequestIDHeader))
}
