package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apiclient/internal/model"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func entry(method, url string, status int, latencyMs int64, at time.Time) model.Request {
	ts := at.UnixMilli()
	return model.Request{
		ID:         method + url + at.String(),
		Method:     method,
		URL:        url,
		Timestamp:  &ts,
		Status:     &status,
		StatusText: "status text",
		Time:       &latencyMs,
	}
}

func TestAggregate_GroupsByExactMethodAndURL(t *testing.T) {
	history := []model.Request{
		entry("GET", "https://api.example.com/users", 200, 100, now.Add(-time.Minute)),
		entry("GET", "https://api.example.com/users/", 200, 100, now.Add(-time.Minute)),
		entry("POST", "https://api.example.com/users", 201, 100, now.Add(-time.Minute)),
		entry("GET", "https://api.example.com/users", 200, 300, now.Add(-2*time.Minute)),
	}

	endpoints := Aggregate(history, Options{Window: WindowAll, ViewMode: ViewAll, Now: now})

	require.Len(t, endpoints, 3)
	users := endpoints["GET-https://api.example.com/users"]
	require.NotNil(t, users)
	assert.Equal(t, 2, users.TotalRequests)
	assert.Equal(t, "GET", users.Method)
	assert.Equal(t, "https://api.example.com/users", users.URL)
	assert.Equal(t, 200.0, users.AverageResponseTime)
	assert.Equal(t, now, users.LastChecked)
}

func TestAggregate_SuccessRate(t *testing.T) {
	var history []model.Request
	for i := 0; i < 8; i++ {
		history = append(history, entry("GET", "/a", 200, 10, now.Add(-time.Duration(i)*time.Second)))
	}
	history = append(history,
		entry("GET", "/a", 404, 10, now),
		entry("GET", "/a", 404, 10, now),
	)

	m := Aggregate(history, Options{Window: WindowAll, Now: now})["GET-/a"]
	require.NotNil(t, m)

	assert.Equal(t, map[int]int{200: 8, 404: 2}, m.StatusCodes)
	assert.InDelta(t, 80.0, m.SuccessRate, 1e-9)
	assert.InDelta(t, 20.0, m.ErrorRate, 1e-9)
	assert.Len(t, m.Errors, 2)
	assert.Equal(t, 404, m.Errors[0].Status)
	assert.Equal(t, "status text", m.Errors[0].Message)
}

func TestAggregate_HistogramSumsToTotal(t *testing.T) {
	history := []model.Request{
		entry("GET", "/a", 200, 10, now),
		entry("GET", "/a", 301, 10, now),
		entry("GET", "/a", 500, 10, now),
		entry("GET", "/a", 0, 10, now),
	}

	m := Aggregate(history, Options{Window: Window1h, Now: now})["GET-/a"]
	sum := 0
	for _, count := range m.StatusCodes {
		sum += count
	}
	assert.Equal(t, m.TotalRequests, sum)
}

func TestAggregate_TransportFailureIsNotSuccess(t *testing.T) {
	history := []model.Request{
		entry("GET", "/a", 0, 5, now),
		entry("GET", "/a", 200, 5, now),
	}

	m := Aggregate(history, Options{Window: WindowAll, Now: now})["GET-/a"]
	assert.Equal(t, 1, m.StatusCodes[0])
	assert.InDelta(t, 50.0, m.SuccessRate, 1e-9)
	assert.InDelta(t, 50.0, m.ErrorRate, 1e-9)
	assert.Empty(t, m.Errors)
}

func TestAggregate_P95(t *testing.T) {
	var history []model.Request
	for i := 1; i <= 10; i++ {
		history = append(history, entry("GET", "/p", 200, int64(i*10), now.Add(-time.Duration(i)*time.Minute)))
	}

	m := Aggregate(history, Options{Window: Window1h, Now: now})["GET-/p"]
	assert.Equal(t, 100.0, m.P95ResponseTime)
	assert.Equal(t, 55.0, m.AverageResponseTime)
}

func TestAggregate_WindowFiltering(t *testing.T) {
	history := []model.Request{
		entry("GET", "/w", 200, 100, now.Add(-30*time.Minute)),
		entry("GET", "/w", 500, 9000, now.Add(-2*time.Hour)),
	}

	oneHour := Aggregate(history, Options{Window: Window1h, Now: now})["GET-/w"]
	require.NotNil(t, oneHour)
	assert.Equal(t, 1, oneHour.TotalRequests)
	assert.Equal(t, 100.0, oneHour.AverageResponseTime)
	assert.Equal(t, HealthHealthy, oneHour.Status)

	all := Aggregate(history, Options{Window: WindowAll, Now: now})["GET-/w"]
	assert.Equal(t, 2, all.TotalRequests)
	assert.Equal(t, 4550.0, all.AverageResponseTime)
	assert.Equal(t, HealthDown, all.Status)
}

func TestAggregate_WindowBoundaryIsInclusive(t *testing.T) {
	history := []model.Request{entry("GET", "/b", 200, 10, now.Add(-time.Hour))}
	assert.Len(t, Aggregate(history, Options{Window: Window1h, Now: now}), 1)

	history = []model.Request{entry("GET", "/b", 200, 10, now.Add(-time.Hour-time.Millisecond))}
	assert.Empty(t, Aggregate(history, Options{Window: Window1h, Now: now}))
}

func TestAggregate_MissingFields(t *testing.T) {
	history := []model.Request{
		{ID: "never-sent", Method: "GET", URL: "/m"},
		entry("GET", "/m", 200, 40, now),
	}

	m := Aggregate(history, Options{Window: Window1h, Now: now})["GET-/m"]
	require.NotNil(t, m)

	assert.Equal(t, 2, m.TotalRequests)
	assert.Len(t, m.ResponseTimes, 1)
	assert.Equal(t, map[int]int{200: 1}, m.StatusCodes)
	assert.Equal(t, 40.0, m.AverageResponseTime)
	// Missing timestamp falls back to now.
	assert.True(t, now.Equal(m.ResponseTimes[0].Timestamp))
}

func TestAggregate_ErrorMessageFallback(t *testing.T) {
	req := entry("GET", "/e", 503, 10, now)
	req.StatusText = ""

	m := Aggregate([]model.Request{req}, Options{Window: WindowAll, Now: now})["GET-/e"]
	require.Len(t, m.Errors, 1)
	assert.Equal(t, "Request failed", m.Errors[0].Message)
}

func TestAggregate_Throughput(t *testing.T) {
	var history []model.Request
	for i := 0; i < 10; i++ {
		at := now.Add(-time.Duration(i) * 10 * time.Second)
		if i == 9 {
			at = now.Add(-2 * time.Minute)
		}
		history = append(history, entry("GET", "/t", 200, 10, at))
	}

	m := Aggregate(history, Options{Window: WindowAll, Now: now})["GET-/t"]
	assert.InDelta(t, 5.0, m.Throughput, 1e-9)
}

func TestAggregate_ThroughputFloorsAtOneMinute(t *testing.T) {
	history := []model.Request{
		entry("GET", "/t", 200, 10, now.Add(-10*time.Second)),
		entry("GET", "/t", 200, 10, now),
	}

	m := Aggregate(history, Options{Window: WindowAll, Now: now})["GET-/t"]
	assert.Equal(t, 2.0, m.Throughput)
}

func TestAggregate_HealthFromLatency(t *testing.T) {
	history := []model.Request{entry("GET", "/slow", 200, 6000, now)}

	m := Aggregate(history, Options{Window: Window1h, Now: now})["GET-/slow"]
	assert.Equal(t, 100.0, m.SuccessRate)
	assert.Equal(t, HealthDown, m.Status)
}

func TestAggregate_HealthFromErrors(t *testing.T) {
	var history []model.Request
	for i := 0; i < 19; i++ {
		history = append(history, entry("GET", "/h", 200, 10, now))
	}
	history = append(history, entry("GET", "/h", 500, 10, now))

	m := Aggregate(history, Options{Window: Window1h, Now: now})["GET-/h"]
	assert.Equal(t, HealthDegraded, m.Status, "one error in twenty")

	history = append(history[:3:3], entry("GET", "/h", 500, 10, now))
	m = Aggregate(history, Options{Window: Window1h, Now: now})["GET-/h"]
	assert.Equal(t, HealthDown, m.Status, "one error in four")
}

func TestAggregate_ActiveTabsView(t *testing.T) {
	history := []model.Request{
		entry("GET", "/open", 200, 10, now),
		entry("GET", "/closed", 200, 10, now),
		entry("POST", "/open", 200, 10, now),
	}
	tabs := []model.Tab{model.NewTab(model.Request{ID: "t1", Method: "GET", URL: "/open"})}

	endpoints := Aggregate(history, Options{Window: WindowAll, ViewMode: ViewActiveTabs, Tabs: tabs, Now: now})
	require.Len(t, endpoints, 1)
	assert.Contains(t, endpoints, "GET-/open")

	endpoints = Aggregate(history, Options{Window: WindowAll, ViewMode: ViewAll, Tabs: tabs, Now: now})
	assert.Len(t, endpoints, 3)
}

func TestAggregate_EmptyHistory(t *testing.T) {
	assert.Empty(t, Aggregate(nil, Options{Window: Window1h, Now: now}))
}

func TestAggregate_DoesNotMutateHistory(t *testing.T) {
	history := []model.Request{entry("GET", "/x", 200, 10, now)}
	before := history[0].Clone()

	Aggregate(history, Options{Window: WindowAll, Now: now})
	assert.Equal(t, before, history[0])
}
