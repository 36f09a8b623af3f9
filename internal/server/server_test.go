package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/monitor"
)

type staticSource map[string]*monitor.EndpointMetrics

func (s staticSource) Snapshot() map[string]*monitor.EndpointMetrics { return s }

func sampleEndpoints() map[string]*monitor.EndpointMetrics {
	now := time.Now()
	ts := now.UnixMilli()
	status, latency := 200, int64(120)
	history := []model.Request{{ID: "1", Method: "GET", URL: "https://api.example.com/users", Timestamp: &ts, Status: &status, Time: &latency}}
	return monitor.Aggregate(history, monitor.Options{Window: monitor.Window1h, Now: now})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(staticSource(sampleEndpoints()), monitor.Window1h, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), `apicli_endpoint_requests{method="GET",url="https://api.example.com/users"} 1`)
}

func TestEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/endpoints")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out endpointsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, monitor.Window1h, out.Window)
	assert.Equal(t, 1, out.Summary.Endpoints)
	assert.Equal(t, 1, out.Summary.Healthy)
	require.Contains(t, out.Endpoints, "GET-https://api.example.com/users")
	assert.Equal(t, 120.0, out.Endpoints["GET-https://api.example.com/users"].AverageResponseTime)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/metrics", "/endpoints", "/healthz"} {
		resp, err := http.Post(srv.URL+path, "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
	}
}

// brokenWriter accepts headers but fails every body write
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header { return w.header }

func (w *brokenWriter) WriteHeader(int) {}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestWriteFailuresAreLogged(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/endpoints", "Failed to write endpoints"},
		{"/metrics", "Failed to write metrics"},
	}

	endpoints := sampleEndpoints()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			handler := New(staticSource(endpoints), monitor.Window1h, logger).Handler()

			handler.ServeHTTP(&brokenWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Contains(t, logs.String(), tt.want)
			assert.Contains(t, logs.String(), "connection reset by peer")
		})
	}
}
