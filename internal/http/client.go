package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/vedsharma/apiclient/internal/model"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024
)

// Client sends composed requests and normalizes what comes back. It sets no
// timeout of its own; callers bound a send through its context.
type Client struct {
	client           *http.Client
	maxResponseBytes int64
	blockMetadata    bool
	logger           *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying net/http client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithMaxResponseBytes caps how much of a response body is read
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

// WithMetadataBlocking toggles refusal of cloud metadata hosts
func WithMetadataBlocking(enabled bool) Option {
	return func(c *Client) {
		c.blockMetadata = enabled
	}
}

// WithLogger sets the logger used for transport warnings
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new HTTP client
func NewClient(opts ...Option) *Client {
	c := &Client{
		client:           &http.Client{},
		maxResponseBytes: MaxResponseSize,
		blockMetadata:    true,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send resolves and issues req. The only error it returns is a
// *UrlParseError from resolution; every transport failure, including a
// JSON body that fails to parse, comes back as a response with status 0.
func (c *Client) Send(ctx context.Context, req model.Request) (*model.Response, error) {
	resolved, err := Resolve(req)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, resolved), nil
}

// Exchange sends req and returns a copy of it annotated with the outcome
func (c *Client) Exchange(ctx context.Context, req model.Request) (model.Request, *model.Response, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return req, nil, err
	}
	return req.WithOutcome(resp.Outcome(req.ID)), resp, nil
}

// Do issues an already resolved request
func (c *Client) Do(ctx context.Context, r *ResolvedRequest) *model.Response {
	start := time.Now()

	if err := c.checkDestination(r.URL); err != nil {
		return failure(err, start)
	}

	var bodyReader io.Reader
	if r.HasBody && r.Body != "" {
		bodyReader = strings.NewReader(r.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bodyReader)
	if err != nil {
		return failure(err, start)
	}
	for key, value := range r.Headers {
		// net/http ignores a Host entry in the header map
		if strings.EqualFold(key, "Host") {
			httpReq.Host = value
			continue
		}
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return failure(err, start)
	}
	defer resp.Body.Close()

	elapsed := millis(time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return failure(err, start)
	}
	if int64(len(raw)) > c.maxResponseBytes {
		raw = raw[:c.maxResponseBytes]
		c.logger.Warn("Response body truncated", "url", r.URL, "limit", c.maxResponseBytes)
	}

	headers := flattenHeaders(resp.Header)

	var body any
	if strings.Contains(headers["content-type"], "application/json") {
		if err := json.Unmarshal(raw, &body); err != nil {
			return failure(fmt.Errorf("parse JSON body: %w", err), start)
		}
	} else {
		body = string(raw)
	}

	return &model.Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    headers,
		Body:       body,
		Size:       BodySize(body),
		Time:       elapsed,
		Timestamp:  start.UnixMilli(),
	}
}

// BodySize approximates a body's display size as the UTF-16 length of its
// JSON encoding. Compression, headers and multi-byte encodings are ignored.
func BodySize(body any) int {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return 0
	}
	encoded := strings.TrimSuffix(buf.String(), "\n")
	return len(utf16.Encode([]rune(encoded)))
}

func failure(err error, start time.Time) *model.Response {
	message := ""
	if err != nil {
		message = err.Error()
	}

	statusText := message
	if statusText == "" {
		statusText = "Network Error"
	}
	bodyMessage := message
	if bodyMessage == "" {
		bodyMessage = "Unknown error"
	}

	return &model.Response{
		Status:     model.StatusTransportFailure,
		StatusText: statusText,
		Headers:    map[string]string{},
		Body:       map[string]any{"error": bodyMessage},
		Size:       0,
		Time:       millis(time.Since(start)),
		Timestamp:  start.UnixMilli(),
	}
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	return out
}

func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func millis(d time.Duration) int64 {
	return int64(math.Round(float64(d) / float64(time.Millisecond)))
}

// checkDestination warns about risky targets and refuses cloud metadata hosts
func (c *Client) checkDestination(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	if strings.EqualFold(parsed.Scheme, "http") {
		c.logger.Warn("Using insecure HTTP connection, data will be transmitted unencrypted", "url", rawURL)
	}

	hostname := parsed.Hostname()
	if c.blockMetadata && isCloudMetadataEndpoint(hostname) {
		return fmt.Errorf("%w: cloud metadata endpoint %s", ErrBlockedDestination, hostname)
	}

	if isLoopbackHost(hostname) {
		c.logger.Debug("Request to loopback address", "host", hostname)
	} else if isPrivateOrReservedHost(hostname) {
		c.logger.Warn("Request to private or link-local address", "host", hostname)
	}

	return nil
}

// ErrBlockedDestination is the cause recorded for refused metadata hosts
var ErrBlockedDestination = errors.New("blocked destination")

func isLoopbackHost(hostname string) bool {
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

func isPrivateOrReservedHost(hostname string) bool {
	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

func isCloudMetadataEndpoint(hostname string) bool {
	metadataHosts := map[string]bool{
		"169.254.169.254":          true, // AWS, GCP, Azure
		"metadata.google.internal": true,
		"metadata.goog":            true,
		"100.100.100.200":          true, // Alibaba Cloud
		"169.254.170.2":            true, // AWS ECS task metadata
	}
	return metadataHosts[strings.ToLower(hostname)]
}
