package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/monitor"
)

// maxBatchEvents is the PutLogEvents limit on events per call
const maxBatchEvents = 10000

// CloudWatchLogsAPI defines the CloudWatch Logs operations used for publishing
type CloudWatchLogsAPI interface {
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// Client wraps AWS CloudWatch Logs client
type Client struct {
	api CloudWatchLogsAPI
}

// NewClient creates a new CloudWatch client with AWS SDK configuration
func NewClient(ctx context.Context, profile, region string) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		api: cloudwatchlogs.NewFromConfig(cfg),
	}, nil
}

// NewClientWithAPI creates a new CloudWatch client with a custom API implementation
// This is primarily used for testing
func NewClientWithAPI(api CloudWatchLogsAPI) *Client {
	return &Client{
		api: api,
	}
}

// EnsureStream creates the log stream, tolerating one that already exists
func (c *Client) EnsureStream(ctx context.Context, logGroup, logStream string) error {
	_, err := c.api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(logStream),
	})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return fmt.Errorf("create log stream %s/%s: %w", logGroup, logStream, err)
	}
	return nil
}

// outcomeEvent is the JSON message published for one history entry
type outcomeEvent struct {
	ID         string `json:"id"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	TimeMs     int64  `json:"timeMs"`
}

// metricsEvent is the JSON message published for one endpoint snapshot
type metricsEvent struct {
	Endpoint      string         `json:"endpoint"`
	Method        string         `json:"method"`
	URL           string         `json:"url"`
	Window        string         `json:"window"`
	Health        monitor.Health `json:"health"`
	TotalRequests int            `json:"totalRequests"`
	SuccessRate   float64        `json:"successRate"`
	ErrorRate     float64        `json:"errorRate"`
	AvgMs         float64        `json:"avgResponseTimeMs"`
	P95Ms         float64        `json:"p95ResponseTimeMs"`
	ThroughputRPM float64        `json:"throughputRpm"`
	StatusCodes   map[int]int    `json:"statusCodes"`
}

// PublishHistory sends one event per sent history entry, oldest first.
// Entries that were never sent are skipped. Returns the number published.
func (c *Client) PublishHistory(ctx context.Context, logGroup, logStream string, history []model.Request) (int, error) {
	var events []types.InputLogEvent
	for _, req := range history {
		outcome, ok := req.Outcome()
		if !ok {
			continue
		}
		msg, err := json.Marshal(outcomeEvent{
			ID:         req.ID,
			Method:     req.Method,
			URL:        req.URL,
			Status:     outcome.Status,
			StatusText: outcome.StatusText,
			TimeMs:     outcome.Time,
		})
		if err != nil {
			return 0, err
		}
		events = append(events, types.InputLogEvent{
			Message:   aws.String(string(msg)),
			Timestamp: aws.Int64(outcome.Timestamp),
		})
	}
	return c.put(ctx, logGroup, logStream, events)
}

// PublishMetrics sends one event per endpoint, all stamped with now
func (c *Client) PublishMetrics(ctx context.Context, logGroup, logStream string, window monitor.Window, endpoints map[string]*monitor.EndpointMetrics, now time.Time) (int, error) {
	var events []types.InputLogEvent
	for _, key := range monitor.SortedKeys(endpoints) {
		m := endpoints[key]
		msg, err := json.Marshal(metricsEvent{
			Endpoint:      key,
			Method:        m.Method,
			URL:           m.URL,
			Window:        string(window),
			Health:        m.Status,
			TotalRequests: m.TotalRequests,
			SuccessRate:   m.SuccessRate,
			ErrorRate:     m.ErrorRate,
			AvgMs:         m.AverageResponseTime,
			P95Ms:         m.P95ResponseTime,
			ThroughputRPM: m.Throughput,
			StatusCodes:   m.StatusCodes,
		})
		if err != nil {
			return 0, err
		}
		events = append(events, types.InputLogEvent{
			Message:   aws.String(string(msg)),
			Timestamp: aws.Int64(now.UnixMilli()),
		})
	}
	return c.put(ctx, logGroup, logStream, events)
}

// put sends events in chronological batches
func (c *Client) put(ctx context.Context, logGroup, logStream string, events []types.InputLogEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	sort.SliceStable(events, func(i, j int) bool {
		return aws.ToInt64(events[i].Timestamp) < aws.ToInt64(events[j].Timestamp)
	})

	sent := 0
	for start := 0; start < len(events); start += maxBatchEvents {
		end := start + maxBatchEvents
		if end > len(events) {
			end = len(events)
		}

		_, err := c.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(logGroup),
			LogStreamName: aws.String(logStream),
			LogEvents:     events[start:end],
		})
		if err != nil {
			return sent, fmt.Errorf("put log events: %w", err)
		}
		sent += end - start
	}
	return sent, nil
}
