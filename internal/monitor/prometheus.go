package monitor

import (
	"fmt"
	"io"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

const metricPrefix = "apicli_endpoint_"

type gaugeDef struct {
	name  string
	help  string
	value func(m *EndpointMetrics) float64
}

var gauges = []gaugeDef{
	{"requests", "Requests recorded in the selected window.", func(m *EndpointMetrics) float64 { return float64(m.TotalRequests) }},
	{"success_rate_percent", "Share of responses with status 200-399.", func(m *EndpointMetrics) float64 { return m.SuccessRate }},
	{"error_rate_percent", "Share of responses outside 200-399.", func(m *EndpointMetrics) float64 { return m.ErrorRate }},
	{"response_time_avg_ms", "Mean response time in milliseconds.", func(m *EndpointMetrics) float64 { return m.AverageResponseTime }},
	{"response_time_p95_ms", "Nearest-rank 95th percentile response time in milliseconds.", func(m *EndpointMetrics) float64 { return m.P95ResponseTime }},
	{"throughput_rpm", "Requests per minute since the endpoint was first observed.", func(m *EndpointMetrics) float64 { return m.Throughput }},
}

// MetricFamilies converts endpoint metrics into Prometheus metric families
func MetricFamilies(endpoints map[string]*EndpointMetrics) []*dto.MetricFamily {
	keys := SortedKeys(endpoints)
	families := make([]*dto.MetricFamily, 0, len(gauges)+2)

	for _, g := range gauges {
		family := newGaugeFamily(metricPrefix+g.name, g.help)
		for _, key := range keys {
			m := endpoints[key]
			family.Metric = append(family.Metric, gauge(g.value(m), endpointLabels(m)...))
		}
		families = append(families, family)
	}

	health := newGaugeFamily(metricPrefix+"health", "Endpoint health, one series per level set to 1 for the current level.")
	for _, key := range keys {
		m := endpoints[key]
		for _, level := range []Health{HealthHealthy, HealthDegraded, HealthDown} {
			value := 0.0
			if m.Status == level {
				value = 1
			}
			labels := append(endpointLabels(m), label("status", string(level)))
			health.Metric = append(health.Metric, gauge(value, labels...))
		}
	}
	families = append(families, health)

	codes := newGaugeFamily(metricPrefix+"responses", "Responses per status code; code 0 is a transport failure.")
	for _, key := range keys {
		m := endpoints[key]
		for _, code := range m.StatusCodeList() {
			labels := append(endpointLabels(m), label("code", strconv.Itoa(code)))
			codes.Metric = append(codes.Metric, gauge(float64(m.StatusCodes[code]), labels...))
		}
	}
	families = append(families, codes)

	return families
}

// WriteText writes endpoint metrics in the Prometheus text exposition format
func WriteText(w io.Writer, endpoints map[string]*EndpointMetrics) error {
	for _, family := range MetricFamilies(endpoints) {
		if len(family.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("write metric family %s: %w", family.GetName(), err)
		}
	}
	return nil
}

func newGaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(value float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(value)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func endpointLabels(m *EndpointMetrics) []*dto.LabelPair {
	return []*dto.LabelPair{label("method", m.Method), label("url", m.URL)}
}
