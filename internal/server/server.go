// Package server exposes endpoint metrics over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vedsharma/apiclient/internal/monitor"
)

// MetricsSource returns the current endpoint metrics
type MetricsSource interface {
	Snapshot() map[string]*monitor.EndpointMetrics
}

// Server serves /metrics, /endpoints and /healthz
type Server struct {
	source MetricsSource
	window monitor.Window
	logger *slog.Logger
}

// New creates a server reading from source
func New(source MetricsSource, window monitor.Window, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{source: source, window: window, logger: logger}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/endpoints", s.handleEndpoints)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// HTTPServer wraps Handler in an http.Server listening on addr
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if err := monitor.WriteText(w, s.source.Snapshot()); err != nil {
		s.logger.Error("Failed to write metrics", "error", err)
	}
}

type endpointsResponse struct {
	Window    monitor.Window                      `json:"window"`
	Summary   monitor.Summary                     `json:"summary"`
	Endpoints map[string]*monitor.EndpointMetrics `json:"endpoints"`
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	endpoints := s.source.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(endpointsResponse{
		Window:    s.window,
		Summary:   monitor.Summarize(endpoints),
		Endpoints: endpoints,
	})
	if err != nil {
		s.logger.Error("Failed to write endpoints", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
