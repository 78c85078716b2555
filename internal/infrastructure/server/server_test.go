package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/config"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/tracing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = "0"
	cfg.Logging.Level = "error"
	cfg.State.Path = filepath.Join(t.TempDir(), "state.json")
	cfg.Discovery.MDNSEnabled = false

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func TestRoutesMounted(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(tracing.HeaderTraceID))

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "scrcpy_gui_http_requests_total"), "health request counted")

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg := config.Default()
	cfg.State.Path = path
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestCrossSiteRequestsRejected(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("POST", "/command", strings.NewReader(`{"command":"shell rm -rf /sdcard/DCIM"}`))
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	for _, msg := range srv.Controller().Logs().Messages() {
		assert.NotContains(t, msg, "rm -rf", "command must not reach the console")
	}

	req = httptest.NewRequest("POST", "/logs", strings.NewReader(`{"lines":["hello"]}`))
	req.Header.Set("Origin", "http://localhost:1420")
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
