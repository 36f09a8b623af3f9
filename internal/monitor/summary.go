package monitor

import "sort"

// Summary counts endpoints by health
type Summary struct {
	Endpoints int `json:"endpoints"`
	Healthy   int `json:"healthy"`
	Degraded  int `json:"degraded"`
	Down      int `json:"down"`
}

// Summarize tallies the health of every endpoint
func Summarize(endpoints map[string]*EndpointMetrics) Summary {
	s := Summary{Endpoints: len(endpoints)}
	for _, m := range endpoints {
		switch m.Status {
		case HealthHealthy:
			s.Healthy++
		case HealthDegraded:
			s.Degraded++
		case HealthDown:
			s.Down++
		}
	}
	return s
}

// SortedKeys returns endpoint keys ordered by request count, busiest first
func SortedKeys(endpoints map[string]*EndpointMetrics) []string {
	keys := make([]string, 0, len(endpoints))
	for key := range endpoints {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := endpoints[keys[i]], endpoints[keys[j]]
		if a.TotalRequests != b.TotalRequests {
			return a.TotalRequests > b.TotalRequests
		}
		return keys[i] < keys[j]
	})
	return keys
}
