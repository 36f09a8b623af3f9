package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/cloudwatch"
	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/monitor"
	"github.com/vedsharma/apiclient/internal/server"
)

const (
	outputTable      = "table"
	outputJSON       = "json"
	outputPrometheus = "prometheus"
)

func init() {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show endpoint health from request history",
		Long: `Aggregate request history into per-endpoint metrics.

Endpoints are grouped by exact method and URL. Health is degraded once
5% of requests in the window fail or the average response time exceeds
2s, and down at 25% failures or beyond 5s.

Example:
  apicli monitor --window 1h
  apicli monitor --endpoint "GET-https://api.example.com/users"
  apicli monitor --format prometheus`,
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}
	addMonitorFlags(monitorCmd)
	monitorCmd.Flags().String("endpoint", "", "Show details for one endpoint (METHOD-url key or a unique part of it)")
	monitorCmd.Flags().Bool("watch", false, "Refresh continuously")
	monitorCmd.Flags().String("format", outputTable, "Output format: table, json or prometheus")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve endpoint metrics over HTTP",
		Long: `Serve endpoint metrics over HTTP.

Routes:
  /metrics    Prometheus text exposition
  /endpoints  JSON summary and per-endpoint metrics
  /healthz    liveness`,
		Args: cobra.NoArgs,
		RunE: runMonitorServe,
	}
	addMonitorFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish endpoint metrics to CloudWatch Logs",
		Args:  cobra.NoArgs,
		RunE:  runMonitorPublish,
	}
	addMonitorFlags(publishCmd)
	publishCmd.Flags().String("log-group", "", "Log group (default from config)")
	publishCmd.Flags().String("log-stream", "", "Log stream (default: hostname)")
	publishCmd.Flags().Bool("history", false, "Also publish the raw history entries")

	monitorCmd.AddCommand(serveCmd, publishCmd)
	rootCmd.AddCommand(monitorCmd)
}

func addMonitorFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("window", "w", "", "Time window: 1h, 3h, 6h, 12h, 24h or all (default from config)")
	cmd.Flags().String("view", "", "View mode: all or active-tabs (default from config)")
}

// monitorOptions reads the window and view mode, falling back to config
func monitorOptions(cmd *cobra.Command) (monitor.Window, monitor.ViewMode, error) {
	windowName, _ := cmd.Flags().GetString("window")
	if windowName == "" {
		windowName = cfg.Monitor.Window
	}
	window, err := monitor.ParseWindow(windowName)
	if err != nil {
		return "", "", err
	}

	viewName, _ := cmd.Flags().GetString("view")
	if viewName == "" {
		viewName = cfg.Monitor.View
	}
	view, err := monitor.ParseViewMode(viewName)
	if err != nil {
		return "", "", err
	}
	return window, view, nil
}

// historySource reloads persisted state on every refresh, so requests sent
// from other terminals show up
func historySource(ctx context.Context) ([]model.Request, []model.Tab, error) {
	st, err := loadState()
	if err != nil {
		return nil, nil, err
	}
	return st.History, st.Tabs, nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	window, view, err := monitorOptions(cmd)
	if err != nil {
		return err
	}
	endpointRef, _ := cmd.Flags().GetString("endpoint")
	watch, _ := cmd.Flags().GetBool("watch")
	output, _ := cmd.Flags().GetString("format")
	switch output {
	case outputTable, outputJSON, outputPrometheus:
	default:
		return fmt.Errorf("invalid format %q (expected table, json or prometheus)", output)
	}

	render := func(endpoints map[string]*monitor.EndpointMetrics) error {
		return renderMetrics(window, endpoints, endpointRef, output)
	}

	refresher := monitor.NewRefresher(historySource, window, view, cfg.Monitor.RefreshInterval)
	if !watch {
		endpoints, err := refresher.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		return render(endpoints)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher.OnUpdate = func(endpoints map[string]*monitor.EndpointMetrics) {
		if output == outputTable {
			// Clear the screen and home the cursor
			fmt.Fprint(format.Output, "\033[H\033[2J")
		}
		if err := render(endpoints); err != nil {
			slog.Error("Failed to render metrics", "error", err)
		}
		if output == outputTable {
			format.PrintWarning(fmt.Sprintf("Refreshing every %s, Ctrl+C to stop", cfg.Monitor.RefreshInterval))
		}
	}
	return refresher.Run(ctx)
}

func renderMetrics(window monitor.Window, endpoints map[string]*monitor.EndpointMetrics, endpointRef, output string) error {
	if endpointRef != "" {
		m, err := findEndpoint(endpoints, endpointRef)
		if err != nil {
			return err
		}
		endpoints = map[string]*monitor.EndpointMetrics{m.Key: m}
		if output == outputTable {
			format.PrintEndpointDetail(m, window)
			return nil
		}
	}

	switch output {
	case outputJSON:
		enc := json.NewEncoder(format.Output)
		enc.SetIndent("", "  ")
		return enc.Encode(metricsReport{
			Window:    window,
			Summary:   monitor.Summarize(endpoints),
			Endpoints: endpoints,
		})
	case outputPrometheus:
		return monitor.WriteText(format.Output, endpoints)
	default:
		format.PrintSummary(window, monitor.Summarize(endpoints))
		format.PrintMetricsTable(endpoints)
		return nil
	}
}

type metricsReport struct {
	Window    monitor.Window                      `json:"window"`
	Summary   monitor.Summary                     `json:"summary"`
	Endpoints map[string]*monitor.EndpointMetrics `json:"endpoints"`
}

// findEndpoint matches an exact endpoint key, or a unique substring of one
func findEndpoint(endpoints map[string]*monitor.EndpointMetrics, ref string) (*monitor.EndpointMetrics, error) {
	if m, ok := endpoints[ref]; ok {
		return m, nil
	}

	var match *monitor.EndpointMetrics
	for _, key := range monitor.SortedKeys(endpoints) {
		if !strings.Contains(key, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("endpoint %q is ambiguous", ref)
		}
		match = endpoints[key]
	}
	if match == nil {
		return nil, fmt.Errorf("no metrics for endpoint %q in this window", ref)
	}
	return match, nil
}

func runMonitorServe(cmd *cobra.Command, args []string) error {
	window, view, err := monitorOptions(cmd)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher := monitor.NewRefresher(historySource, window, view, cfg.Monitor.RefreshInterval)
	if _, err := refresher.Refresh(ctx); err != nil {
		return err
	}

	srv := server.New(refresher, window, slog.Default()).HTTPServer(addr)

	errCh := make(chan error, 2)
	go func() {
		if err := refresher.Run(ctx); err != nil {
			errCh <- fmt.Errorf("refresh metrics: %w", err)
		}
	}()
	go func() {
		slog.Info("Serving endpoint metrics", "addr", addr, "window", window, "view", view)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		_ = srv.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("Shutting down metrics server")
	return srv.Shutdown(shutdownCtx)
}

func runMonitorPublish(cmd *cobra.Command, args []string) error {
	window, view, err := monitorOptions(cmd)
	if err != nil {
		return err
	}
	withHistory, _ := cmd.Flags().GetBool("history")

	logGroup, _ := cmd.Flags().GetString("log-group")
	if logGroup == "" {
		logGroup = cfg.CloudWatch.LogGroup
	}
	logStream, _ := cmd.Flags().GetString("log-stream")
	if logStream == "" {
		logStream = cfg.CloudWatch.LogStream
	}
	if logStream == "" {
		host, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("determine log stream: %w", err)
		}
		logStream = host
	}

	ctx := cmd.Context()
	st, err := loadState()
	if err != nil {
		return err
	}

	now := time.Now()
	endpoints := monitor.Aggregate(st.History, monitor.Options{
		Window:   window,
		ViewMode: view,
		Tabs:     st.Tabs,
		Now:      now,
	})

	client, err := cloudwatch.NewClient(ctx, cfg.CloudWatch.Profile, cfg.CloudWatch.Region)
	if err != nil {
		return fmt.Errorf("failed to create CloudWatch client: %w", err)
	}
	if err := client.EnsureStream(ctx, logGroup, logStream); err != nil {
		return err
	}

	published, err := client.PublishMetrics(ctx, logGroup, logStream, window, endpoints, now)
	if err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Published metrics for %d endpoints to %s/%s", published, logGroup, logStream))

	if withHistory {
		n, err := client.PublishHistory(ctx, logGroup, logStream, st.History)
		if err != nil {
			return err
		}
		format.PrintSuccess(fmt.Sprintf("Published %d history entries", n))
	}
	return nil
}
