package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/vedsharma/apiclient/internal/monitor"
)

const (
	trendSamples  = 30
	recentErrors  = 5
	sparkSlowMs   = 2000
	sparkLevels   = "▁▂▃▄▅▆▇█"
	urlColumnSize = 48
)

// FormatDuration renders milliseconds as "Nms" under a second, else "N.Ns"
func FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", int64(math.Round(ms)))
	}
	return fmt.Sprintf("%.1fs", ms/1000)
}

// FormatThroughput renders requests per minute in the most readable unit
func FormatThroughput(rpm float64) string {
	switch {
	case rpm < 1:
		return fmt.Sprintf("%.1f req/hour", rpm*60)
	case rpm >= 60:
		return fmt.Sprintf("%.1f req/sec", rpm/60)
	default:
		return fmt.Sprintf("%.1f req/min", rpm)
	}
}

// FormatSize renders a body size
func FormatSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

func healthColor(h monitor.Health) func(format string, a ...any) string {
	switch h {
	case monitor.HealthHealthy:
		return successColor.Sprintf
	case monitor.HealthDegraded:
		return redirectColor.Sprintf
	default:
		return clientErrColor.Sprintf
	}
}

// PrintSummary prints endpoint counts by health
func PrintSummary(window monitor.Window, s monitor.Summary) {
	headerKeyColor.Fprintf(Output, "%s", window.Label())
	dimColor.Fprintf(Output, "  %d endpoints  ", s.Endpoints)
	outf("%s  %s  %s\n\n",
		successColor.Sprintf("%d healthy", s.Healthy),
		redirectColor.Sprintf("%d degraded", s.Degraded),
		clientErrColor.Sprintf("%d down", s.Down))
}

// PrintMetricsTable prints one line per endpoint, busiest first
func PrintMetricsTable(endpoints map[string]*monitor.EndpointMetrics) {
	if len(endpoints) == 0 {
		dimColor.Fprintln(Output, "No requests in the selected window")
		return
	}

	dimColor.Fprintf(Output, "%-9s %-7s %-*s %8s %9s %9s %14s %8s\n",
		"STATUS", "METHOD", urlColumnSize, "URL", "REQUESTS", "AVG", "P95", "THROUGHPUT", "SUCCESS")

	for _, key := range monitor.SortedKeys(endpoints) {
		m := endpoints[key]
		outf("%s ", healthColor(m.Status)("%-9s", m.Status))
		methodColor.Fprintf(Output, "%-7s ", m.Method)
		urlColor.Fprintf(Output, "%-*s ", urlColumnSize, sanitizeOutput(truncate(m.URL, urlColumnSize)))
		outf("%8d %9s %9s %14s %7.1f%%\n",
			m.TotalRequests,
			FormatDuration(m.AverageResponseTime),
			FormatDuration(m.P95ResponseTime),
			FormatThroughput(m.Throughput),
			m.SuccessRate)
	}
}

// PrintEndpointDetail prints the trend, status distribution and recent
// errors of one endpoint.
func PrintEndpointDetail(m *monitor.EndpointMetrics, window monitor.Window) {
	methodColor.Fprintf(Output, "%s ", m.Method)
	urlColor.Fprintln(Output, sanitizeOutput(m.URL))
	outf("Status: %s  ", healthColor(m.Status)("%s", m.Status))
	dimColor.Fprintf(Output, "Updated %s\n", m.LastChecked.Format("15:04:05"))
	outln(strings.Repeat("-", 40))

	scope := "in total"
	if window != monitor.WindowAll {
		scope = "in last " + string(window)
	}
	outf("Success rate:   %.1f%%\n", m.SuccessRate)
	outf("Avg response:   %s (P95: %s)\n", FormatDuration(m.AverageResponseTime), FormatDuration(m.P95ResponseTime))
	outf("Throughput:     %s\n", FormatThroughput(m.Throughput))
	outf("Requests:       %d %s\n\n", m.TotalRequests, scope)

	outln("Response time trend:")
	samples := m.RecentSamples(trendSamples)
	if len(samples) == 0 {
		dimColor.Fprintln(Output, "  No response time data available")
	} else {
		outf("  %s\n", Sparkline(samples, m.P95ResponseTime))
	}
	outln()

	outln("Status codes:")
	for _, code := range m.StatusCodeList() {
		count := m.StatusCodes[code]
		share := 0.0
		if m.TotalRequests > 0 {
			share = float64(count) / float64(m.TotalRequests) * 100
		}
		label := fmt.Sprintf("%d", code)
		if code == 0 {
			label = "ERR"
		}
		outf("  %s %5d  %5.1f%%\n", getStatusColor(code).Sprintf("%-4s", label), count, share)
	}

	errs := m.RecentErrors(recentErrors)
	if len(errs) > 0 {
		outln()
		outln("Recent errors:")
		for _, e := range errs {
			dimColor.Fprintf(Output, "  %s ", e.Timestamp.Format("15:04:05"))
			clientErrColor.Fprintf(Output, "%d ", e.Status)
			outln(sanitizeOutput(e.Message))
		}
	}
}

// Sparkline draws samples as bars scaled against ref (usually the p95).
// Samples slower than two seconds are drawn in the error color.
func Sparkline(samples []monitor.Sample, ref float64) string {
	levels := []rune(sparkLevels)
	if ref <= 0 {
		for _, s := range samples {
			ref = math.Max(ref, s.Value)
		}
	}

	var b strings.Builder
	for _, s := range samples {
		idx := len(levels) - 1
		if ref > 0 {
			idx = int(math.Round(s.Value / ref * float64(len(levels)-1)))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		bar := string(levels[idx])
		if s.Value > sparkSlowMs {
			bar = clientErrColor.Sprint(bar)
		}
		b.WriteString(bar)
	}
	return b.String()
}
