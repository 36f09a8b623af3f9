package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTP methods a request may use
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
	MethodPatch  = "PATCH"
	MethodHead   = "HEAD"
)

// Methods lists the supported HTTP methods in display order
var Methods = []string{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead}

// KeyValuePair is a single query parameter or header entry. Disabled entries
// are kept so they can be toggled back on, but never reach the wire.
type KeyValuePair struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// NewKeyValuePair creates an enabled pair with a fresh identity
func NewKeyValuePair(key, value string) KeyValuePair {
	return KeyValuePair{
		ID:      uuid.NewString(),
		Key:     key,
		Value:   value,
		Enabled: true,
	}
}

// Active reports whether the pair takes part in request resolution
func (p KeyValuePair) Active() bool {
	return p.Enabled && strings.TrimSpace(p.Key) != ""
}

// Request is a composed HTTP request. The trailing outcome fields are set
// from the last completed send and are empty for a request that was never sent.
type Request struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Method      string         `json:"method"`
	URL         string         `json:"url"`
	Params      []KeyValuePair `json:"params"`
	Headers     []KeyValuePair `json:"headers"`
	Body        string         `json:"body"`
	Description string         `json:"description,omitempty"`

	Timestamp  *int64 `json:"timestamp,omitempty"`
	Status     *int   `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
	Time       *int64 `json:"time,omitempty"`
}

// NewRequest returns an untitled GET request with one blank param and header row
func NewRequest() Request {
	return Request{
		ID:      uuid.NewString(),
		Name:    "Untitled",
		Method:  MethodGet,
		Params:  []KeyValuePair{NewKeyValuePair("", "")},
		Headers: []KeyValuePair{NewKeyValuePair("", "")},
	}
}

// EndpointKey groups requests by exact method and URL text
func (r Request) EndpointKey() string {
	return EndpointKey(r.Method, r.URL)
}

// EndpointKey builds the "METHOD-url" key used for monitoring
func EndpointKey(method, url string) string {
	return method + "-" + url
}

// Clone returns a deep copy sharing no slices or pointers with r
func (r Request) Clone() Request {
	c := r
	c.Params = clonePairs(r.Params)
	c.Headers = clonePairs(r.Headers)
	if r.Timestamp != nil {
		ts := *r.Timestamp
		c.Timestamp = &ts
	}
	if r.Status != nil {
		st := *r.Status
		c.Status = &st
	}
	if r.Time != nil {
		d := *r.Time
		c.Time = &d
	}
	return c
}

// CloneWithNewID copies r under a fresh identity so edits to the copy never
// alias the history or collection entry it was opened from.
func (r Request) CloneWithNewID() Request {
	c := r.Clone()
	c.ID = uuid.NewString()
	return c
}

// WithOutcome returns a copy of r annotated with the result of a send
func (r Request) WithOutcome(o RequestOutcome) Request {
	c := r.Clone()
	ts, st, d := o.Timestamp, o.Status, o.Time
	c.Timestamp = &ts
	c.Status = &st
	c.StatusText = o.StatusText
	c.Time = &d
	return c
}

// WithoutOutcome returns a copy of r with the outcome fields cleared
func (r Request) WithoutOutcome() Request {
	c := r.Clone()
	c.Timestamp = nil
	c.Status = nil
	c.StatusText = ""
	c.Time = nil
	return c
}

// Outcome returns the recorded result of the last send, if any
func (r Request) Outcome() (RequestOutcome, bool) {
	if r.Status == nil {
		return RequestOutcome{}, false
	}
	o := RequestOutcome{
		RequestID:  r.ID,
		Status:     *r.Status,
		StatusText: r.StatusText,
	}
	if r.Time != nil {
		o.Time = *r.Time
	}
	if r.Timestamp != nil {
		o.Timestamp = *r.Timestamp
	}
	return o, true
}

// SentAt returns the send timestamp, or fallback when none was recorded
func (r Request) SentAt(fallback time.Time) time.Time {
	if r.Timestamp == nil {
		return fallback
	}
	return time.UnixMilli(*r.Timestamp)
}

// RequestOutcome is the observed result of one send, joined to its request by ID
type RequestOutcome struct {
	RequestID  string `json:"requestId"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	Time       int64  `json:"time"`
	Timestamp  int64  `json:"timestamp"`
}

func clonePairs(pairs []KeyValuePair) []KeyValuePair {
	if pairs == nil {
		return nil
	}
	out := make([]KeyValuePair, len(pairs))
	copy(out, pairs)
	return out
}
