package monitor

import (
	"sort"
	"time"

	"github.com/vedsharma/apiclient/internal/model"
)

// Options selects which history entries are aggregated
type Options struct {
	Window   Window
	ViewMode ViewMode
	// Tabs are the open tabs consulted by the active-tabs view mode
	Tabs []model.Tab
	// Now anchors the window; the zero value means time.Now()
	Now time.Time
}

// Aggregate derives per-endpoint metrics from the history log. It performs no
// I/O and never fails: entries with missing fields still count toward
// TotalRequests but contribute nothing to the numeric statistics.
func Aggregate(history []model.Request, opts Options) map[string]*EndpointMetrics {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	inWindow := windowFilter(opts.Window, now)
	inView := viewFilter(opts.ViewMode, opts.Tabs)

	endpoints := make(map[string]*EndpointMetrics)

	for _, req := range history {
		ts := req.SentAt(now)
		if !inWindow(ts) || !inView(req) {
			continue
		}

		key := req.EndpointKey()
		metrics, exists := endpoints[key]
		if !exists {
			metrics = &EndpointMetrics{
				Key:           key,
				URL:           req.URL,
				Method:        req.Method,
				LastChecked:   now,
				Status:        HealthHealthy,
				ResponseTimes: []Sample{},
				Errors:        []ErrorRecord{},
				StatusCodes:   make(map[int]int),
			}
			endpoints[key] = metrics
		}

		metrics.TotalRequests++

		if req.Time != nil {
			metrics.ResponseTimes = append(metrics.ResponseTimes, Sample{
				Timestamp: ts,
				Value:     float64(*req.Time),
			})
		}

		if req.Status != nil {
			status := *req.Status
			metrics.StatusCodes[status]++

			if status >= 400 {
				message := req.StatusText
				if message == "" {
					message = "Request failed"
				}
				metrics.Errors = append(metrics.Errors, ErrorRecord{
					Timestamp: ts,
					Status:    status,
					Message:   message,
				})
			}
		}
	}

	for _, metrics := range endpoints {
		metrics.derive(now, inWindow)
	}

	return endpoints
}

// derive fills in the computed statistics of an accumulated endpoint
func (m *EndpointMetrics) derive(now time.Time, inWindow func(time.Time) bool) {
	m.SuccessRate, m.ErrorRate = SuccessRate(m.StatusCodes)

	var latencies []float64
	for _, s := range m.ResponseTimes {
		if inWindow(s.Timestamp) {
			latencies = append(latencies, s.Value)
		}
	}
	if len(latencies) > 0 {
		sort.Float64s(latencies)
		sum := 0.0
		for _, v := range latencies {
			sum += v
		}
		m.AverageResponseTime = sum / float64(len(latencies))
		m.P95ResponseTime = Percentile(latencies, p95Quantile)
	}

	earliest := now
	for _, s := range m.ResponseTimes {
		if s.Timestamp.Before(earliest) {
			earliest = s.Timestamp
		}
	}
	m.Throughput = Throughput(m.TotalRequests, earliest, now)

	recentErrors := 0
	for _, e := range m.Errors {
		if inWindow(e.Timestamp) {
			recentErrors++
		}
	}
	recentErrorRate := 0.0
	if m.TotalRequests > 0 {
		recentErrorRate = float64(recentErrors) / float64(m.TotalRequests) * 100
	}
	m.Status = Classify(recentErrorRate, m.AverageResponseTime)
}

func windowFilter(w Window, now time.Time) func(time.Time) bool {
	span, bounded := w.Duration()
	if !bounded {
		return func(time.Time) bool { return true }
	}
	start := now.Add(-span)
	return func(ts time.Time) bool {
		return !ts.Before(start)
	}
}

func viewFilter(mode ViewMode, tabs []model.Tab) func(model.Request) bool {
	if mode != ViewActiveTabs {
		return func(model.Request) bool { return true }
	}
	open := make(map[string]bool, len(tabs))
	for _, tab := range tabs {
		open[tab.Request.EndpointKey()] = true
	}
	return func(req model.Request) bool {
		return open[req.EndpointKey()]
	}
}
