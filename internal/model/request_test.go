package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest()

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "Untitled", req.Name)
	assert.Equal(t, MethodGet, req.Method)
	require.Len(t, req.Params, 1)
	require.Len(t, req.Headers, 1)
	assert.False(t, req.Params[0].Active())

	_, sent := req.Outcome()
	assert.False(t, sent)
}

func TestKeyValuePairActive(t *testing.T) {
	assert.True(t, NewKeyValuePair("id", "1").Active())
	assert.False(t, NewKeyValuePair("   ", "1").Active())

	p := NewKeyValuePair("id", "1")
	p.Enabled = false
	assert.False(t, p.Active())
}

func TestCloneDoesNotAlias(t *testing.T) {
	req := NewRequest().WithOutcome(RequestOutcome{Status: 200, StatusText: "OK", Time: 12, Timestamp: 1000})
	clone := req.Clone()

	clone.Params[0].Key = "changed"
	*clone.Status = 500
	*clone.Time = 99

	assert.Equal(t, "", req.Params[0].Key)
	assert.Equal(t, 200, *req.Status)
	assert.Equal(t, int64(12), *req.Time)
}

func TestCloneWithNewID(t *testing.T) {
	req := NewRequest()
	req.URL = "https://api.example.com"

	clone := req.CloneWithNewID()
	assert.NotEqual(t, req.ID, clone.ID)
	assert.Equal(t, req.URL, clone.URL)
	assert.Equal(t, req.Params, clone.Params)
}

func TestWithOutcomeLeavesOriginalUntouched(t *testing.T) {
	req := NewRequest()
	sent := req.WithOutcome(RequestOutcome{RequestID: req.ID, Status: 404, StatusText: "Not Found", Time: 30, Timestamp: 1714564800000})

	_, ok := req.Outcome()
	assert.False(t, ok)
	assert.Nil(t, req.Status)

	outcome, ok := sent.Outcome()
	require.True(t, ok)
	assert.Equal(t, RequestOutcome{RequestID: req.ID, Status: 404, StatusText: "Not Found", Time: 30, Timestamp: 1714564800000}, outcome)
	assert.True(t, time.UnixMilli(1714564800000).Equal(sent.SentAt(time.Time{})))
}

func TestEndpointKey(t *testing.T) {
	req := Request{Method: "GET", URL: "https://api.example.com/users"}
	assert.Equal(t, "GET-https://api.example.com/users", req.EndpointKey())
	assert.NotEqual(t, req.EndpointKey(), Request{Method: "GET", URL: "https://api.example.com/users/"}.EndpointKey())
}

func TestResponseOutcome(t *testing.T) {
	resp := Response{Status: 0, StatusText: "dial tcp: connection refused", Time: 3, Timestamp: 10}
	assert.True(t, resp.Failed())

	o := resp.Outcome("req-1")
	assert.Equal(t, "req-1", o.RequestID)
	assert.Equal(t, 0, o.Status)
	assert.Equal(t, int64(3), o.Time)
}

func TestSettingsActiveEnvironment(t *testing.T) {
	s := DefaultSettings()
	_, ok := s.ActiveEnvironment()
	assert.False(t, ok)

	s.Environments = []Environment{{ID: "e1", Name: "dev", Variables: []EnvironmentVariable{{Key: "host", Value: "localhost"}}}}
	s.ActiveEnvironmentID = "e1"

	env, ok := s.ActiveEnvironment()
	require.True(t, ok)
	v, ok := env.Lookup("host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)
}

func TestCollectionFindRequest(t *testing.T) {
	c := NewCollection("users")
	c.Requests = append(c.Requests, Request{ID: "a"}, Request{ID: "b"})

	assert.Equal(t, 1, c.FindRequest("b"))
	assert.Equal(t, -1, c.FindRequest("z"))
}

func TestWithoutOutcome(t *testing.T) {
	req := NewRequest().WithOutcome(RequestOutcome{Status: 200, StatusText: "OK", Time: 5, Timestamp: 10})
	draft := req.WithoutOutcome()

	_, ok := draft.Outcome()
	assert.False(t, ok)
	assert.Empty(t, draft.StatusText)
	assert.Nil(t, draft.Time)
	assert.Nil(t, draft.Timestamp)
	assert.Equal(t, req.ID, draft.ID)

	_, ok = req.Outcome()
	assert.True(t, ok)
}
