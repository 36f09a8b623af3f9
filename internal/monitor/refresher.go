package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vedsharma/apiclient/internal/model"
)

// DefaultRefreshInterval is how often a Refresher recomputes on its own
const DefaultRefreshInterval = time.Minute

// Source loads the current history log and open tabs
type Source func(ctx context.Context) ([]model.Request, []model.Tab, error)

// Refresher recomputes endpoint metrics on a ticker and whenever the window
// or view mode changes. Each recomputation starts from scratch.
type Refresher struct {
	mu       sync.RWMutex
	source   Source
	window   Window
	viewMode ViewMode
	interval time.Duration
	now      func() time.Time
	latest   map[string]*EndpointMetrics

	// OnUpdate receives every fresh result
	OnUpdate func(endpoints map[string]*EndpointMetrics)
}

// NewRefresher creates a refresher reading from source
func NewRefresher(source Source, window Window, viewMode ViewMode, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		source:   source,
		window:   window,
		viewMode: viewMode,
		interval: interval,
		now:      time.Now,
		latest:   map[string]*EndpointMetrics{},
	}
}

// Run refreshes immediately and then on every tick until ctx is done.
// A failed refresh is logged and the previous snapshot kept; the next tick
// tries again.
func (r *Refresher) Run(ctx context.Context) error {
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Failed to refresh endpoint metrics", "error", err)
	}
}

// Refresh reloads the source and recomputes all metrics
func (r *Refresher) Refresh(ctx context.Context) (map[string]*EndpointMetrics, error) {
	history, tabs, err := r.source(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	opts := Options{
		Window:   r.window,
		ViewMode: r.viewMode,
		Tabs:     tabs,
		Now:      r.now(),
	}
	r.mu.RUnlock()

	endpoints := Aggregate(history, opts)

	r.mu.Lock()
	r.latest = endpoints
	onUpdate := r.OnUpdate
	r.mu.Unlock()

	if onUpdate != nil {
		onUpdate(endpoints)
	}
	return endpoints, nil
}

// SetWindow changes the window and recomputes
func (r *Refresher) SetWindow(ctx context.Context, w Window) (map[string]*EndpointMetrics, error) {
	r.mu.Lock()
	r.window = w
	r.mu.Unlock()
	return r.Refresh(ctx)
}

// SetViewMode changes the view mode and recomputes
func (r *Refresher) SetViewMode(ctx context.Context, v ViewMode) (map[string]*EndpointMetrics, error) {
	r.mu.Lock()
	r.viewMode = v
	r.mu.Unlock()
	return r.Refresh(ctx)
}

// Snapshot returns the most recent result
func (r *Refresher) Snapshot() map[string]*EndpointMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}
