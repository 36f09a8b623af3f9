package monitor

import (
	"sort"
	"time"
)

// Health is the three-level classification of an endpoint
type Health string

// Health levels, strongest signal last
const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthDown     Health = "down"
)

// Classification thresholds
const (
	downErrorRate        = 25.0
	downLatencyMs        = 5000.0
	degradedErrorRate    = 5.0
	degradedLatencyMs    = 2000.0
	p95Quantile          = 0.95
	minThroughputMinutes = 1.0
)

// Sample is one observed latency in milliseconds
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ErrorRecord is a response with status 400 or above
type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
}

// EndpointMetrics holds rolling statistics for one method and URL
type EndpointMetrics struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Method      string    `json:"method"`
	LastChecked time.Time `json:"lastChecked"`
	Status      Health    `json:"status"`

	ResponseTimes []Sample      `json:"responseTime"`
	Errors        []ErrorRecord `json:"errors"`
	StatusCodes   map[int]int   `json:"statusCodes"`

	TotalRequests       int     `json:"totalRequests"`
	SuccessRate         float64 `json:"successRate"`
	ErrorRate           float64 `json:"errorRate"`
	AverageResponseTime float64 `json:"averageResponseTime"`
	P95ResponseTime     float64 `json:"p95ResponseTime"`
	// Throughput is requests per minute since the earliest sample
	Throughput float64 `json:"throughput"`
}

// StatusCodeList returns the histogram's codes in ascending order
func (m *EndpointMetrics) StatusCodeList() []int {
	codes := make([]int, 0, len(m.StatusCodes))
	for code := range m.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// RecentSamples returns up to n samples ordered oldest first
func (m *EndpointMetrics) RecentSamples(n int) []Sample {
	samples := make([]Sample, len(m.ResponseTimes))
	copy(samples, m.ResponseTimes)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	if n > 0 && len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	return samples
}

// RecentErrors returns up to n errors, newest first
func (m *EndpointMetrics) RecentErrors(n int) []ErrorRecord {
	errs := make([]ErrorRecord, len(m.Errors))
	copy(errs, m.Errors)
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Timestamp.After(errs[j].Timestamp)
	})
	if n > 0 && len(errs) > n {
		errs = errs[:n]
	}
	return errs
}

// Classify maps a recent error rate and mean latency to a health level.
// Down is checked first and preempts degraded.
func Classify(recentErrorRate, averageResponseTime float64) Health {
	switch {
	case recentErrorRate >= downErrorRate || averageResponseTime > downLatencyMs:
		return HealthDown
	case recentErrorRate >= degradedErrorRate || averageResponseTime > degradedLatencyMs:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

// Percentile returns the nearest-rank value at floor(q*n) of an ascending
// slice, clamped to the last element.
func Percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// SuccessRate returns the percentage of histogram responses in [200, 400)
// along with its complement. Both are 0 for an empty histogram.
func SuccessRate(statusCodes map[int]int) (success, failure float64) {
	total, ok := 0, 0
	for code, count := range statusCodes {
		total += count
		if code >= 200 && code < 400 {
			ok += count
		}
	}
	if total == 0 {
		return 0, 0
	}
	success = float64(ok) / float64(total) * 100
	return success, 100 - success
}

// Throughput returns requests per minute over the time since earliest,
// never dividing by less than one minute.
func Throughput(totalRequests int, earliest, now time.Time) float64 {
	minutes := now.Sub(earliest).Minutes()
	if minutes < minThroughputMinutes {
		minutes = minThroughputMinutes
	}
	return float64(totalRequests) / minutes
}
