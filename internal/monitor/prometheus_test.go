package monitor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apiclient/internal/model"
)

func TestWriteText(t *testing.T) {
	history := []model.Request{
		entry("GET", "https://api.example.com/users", 200, 100, now),
		entry("GET", "https://api.example.com/users", 200, 200, now),
		entry("GET", "https://api.example.com/users", 404, 300, now),
	}
	endpoints := Aggregate(history, Options{Window: Window1h, Now: now})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, endpoints))
	out := buf.String()

	assert.Contains(t, out, "# TYPE apicli_endpoint_requests gauge")
	assert.Contains(t, out, `apicli_endpoint_requests{method="GET",url="https://api.example.com/users"} 3`)
	assert.Contains(t, out, `apicli_endpoint_response_time_avg_ms{method="GET",url="https://api.example.com/users"} 200`)
	assert.Contains(t, out, `apicli_endpoint_responses{method="GET",url="https://api.example.com/users",code="404"} 1`)
	assert.Contains(t, out, `apicli_endpoint_health{method="GET",url="https://api.example.com/users",status="down"} 1`)
	assert.Contains(t, out, `apicli_endpoint_health{method="GET",url="https://api.example.com/users",status="healthy"} 0`)
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, map[string]*EndpointMetrics{}))
	assert.Empty(t, buf.String())
}

func TestMetricFamilies_OneSeriesPerEndpoint(t *testing.T) {
	history := []model.Request{
		entry("GET", "/a", 200, 10, now),
		entry("POST", "/a", 500, 10, now),
	}
	families := MetricFamilies(Aggregate(history, Options{Window: WindowAll, Now: now}))

	byName := map[string]int{}
	for _, f := range families {
		byName[f.GetName()] = len(f.GetMetric())
	}
	assert.Equal(t, 2, byName["apicli_endpoint_requests"])
	assert.Equal(t, 6, byName["apicli_endpoint_health"])
	assert.Equal(t, 2, byName["apicli_endpoint_responses"])
}
