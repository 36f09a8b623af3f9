package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apiclient/internal/model"
)

type captured struct {
	method  string
	query   string
	headers http.Header
	body    string
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *captured) {
	t.Helper()
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen.method = r.Method
		seen.query = r.URL.RawQuery
		seen.headers = r.Header.Clone()
		seen.body = string(body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestClient_SendJSON(t *testing.T) {
	srv, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 7, "tags": ["x"]}`)
	})

	req := model.Request{
		ID:      "req-1",
		Method:  "POST",
		URL:     srv.URL + "/users",
		Params:  []model.KeyValuePair{pair("notify", "true", true)},
		Headers: []model.KeyValuePair{pair("X-Token", "abc", true), pair("X-Off", "1", false)},
		Body:    `{"name":"Ada"}`,
	}

	resp, err := NewClient().Send(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, "Created", resp.StatusText)
	assert.Equal(t, map[string]any{"id": float64(7), "tags": []any{"x"}}, resp.Body)
	assert.Equal(t, "a, b", resp.Headers["x-multi"])
	assert.Contains(t, resp.Headers["content-type"], "application/json")
	// Size is the length of the re-encoded body, not of the bytes on the wire.
	assert.Equal(t, len(`{"id":7,"tags":["x"]}`), resp.Size)
	assert.GreaterOrEqual(t, resp.Time, int64(0))
	assert.NotZero(t, resp.Timestamp)

	assert.Equal(t, "POST", seen.method)
	assert.Equal(t, "notify=true", seen.query)
	assert.Equal(t, "abc", seen.headers.Get("X-Token"))
	assert.Empty(t, seen.headers.Get("X-Off"))
	assert.Equal(t, `{"name":"Ada"}`, seen.body)
}

func TestClient_HostHeaderOverridesRequestHost(t *testing.T) {
	for _, key := range []string{"Host", "host"} {
		t.Run(key, func(t *testing.T) {
			var host string
			srv, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				host = r.Host
				w.WriteHeader(http.StatusNoContent)
			})

			req := model.Request{
				Method:  "GET",
				URL:     srv.URL,
				Headers: []model.KeyValuePair{pair(key, "api.internal.example", true)},
			}
			resp, err := NewClient().Send(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, 204, resp.Status)
			assert.Equal(t, "api.internal.example", host)
			assert.Empty(t, seen.headers.Values("Host"))
		})
	}
}

func TestClient_SendText(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	})

	resp, err := NewClient().Send(context.Background(), model.Request{Method: "GET", URL: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "hello", resp.Body)
	// "hello" encodes as "\"hello\"", seven characters.
	assert.Equal(t, 7, resp.Size)
}

func TestClient_GetAndHeadNeverSendBody(t *testing.T) {
	for _, method := range []string{"GET", "HEAD"} {
		t.Run(method, func(t *testing.T) {
			srv, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			req := model.Request{Method: method, URL: srv.URL, Body: `{"should":"vanish"}`}
			resp, err := NewClient().Send(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, 204, resp.Status)
			assert.Empty(t, seen.body)
			assert.Empty(t, seen.headers.Get("Content-Length"))
		})
	}
}

func TestClient_ErrorStatusesAreRealResponses(t *testing.T) {
	for _, code := range []int{400, 404, 500, 503} {
		srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		resp, err := NewClient().Send(context.Background(), model.Request{Method: "GET", URL: srv.URL})
		require.NoError(t, err)
		assert.Equal(t, code, resp.Status)
		assert.False(t, resp.Failed())
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	resp, err := NewClient().Send(context.Background(), model.Request{Method: "GET", URL: addr})
	require.NoError(t, err)

	assert.True(t, resp.Failed())
	assert.Equal(t, model.StatusTransportFailure, resp.Status)
	assert.NotEmpty(t, resp.StatusText)
	assert.Equal(t, map[string]string{}, resp.Headers)
	assert.Equal(t, map[string]any{"error": resp.StatusText}, resp.Body)
	assert.Equal(t, 0, resp.Size)
}

func TestClient_InvalidJSONIsTransportFailure(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{not json")
	})

	resp, err := NewClient().Send(context.Background(), model.Request{Method: "GET", URL: srv.URL})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Status)
	assert.Contains(t, resp.StatusText, "parse JSON body")
}

func TestClient_CanceledContextIsTransportFailure(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp, err := NewClient().Send(ctx, model.Request{Method: "GET", URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Status)
	assert.Contains(t, resp.StatusText, "context deadline exceeded")
}

func TestClient_MetadataEndpointBlocked(t *testing.T) {
	resp, err := NewClient().Send(context.Background(), model.Request{Method: "GET", URL: "http://169.254.169.254/latest/meta-data"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Status)
	assert.True(t, strings.HasPrefix(resp.StatusText, ErrBlockedDestination.Error()))
}

func TestClient_UrlParseErrorPropagates(t *testing.T) {
	resp, err := NewClient().Send(context.Background(), model.Request{Method: "GET", URL: "https://exa mple.com"})
	assert.Nil(t, resp)

	var parseErr *UrlParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestClient_ExchangeAnnotatesCopy(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	req := model.Request{ID: "abc", Method: "DELETE", URL: srv.URL + "/items/1"}
	sent, resp, err := NewClient().Exchange(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, req.Status, "original request must not be mutated")
	require.NotNil(t, sent.Status)
	assert.Equal(t, 202, *sent.Status)
	assert.Equal(t, resp.StatusText, sent.StatusText)
	assert.Equal(t, resp.Time, *sent.Time)
	assert.Equal(t, resp.Timestamp, *sent.Timestamp)
	assert.Equal(t, "abc", sent.ID)
}

func TestClient_TruncatesLargeBodies(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 64))
	})

	resp, err := NewClient(WithMaxResponseBytes(16)).Send(context.Background(), model.Request{Method: "GET", URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 16), resp.Body)
}

func TestBodySize(t *testing.T) {
	tests := []struct {
		name string
		body any
		size int
	}{
		{"empty string", "", 2},
		{"html characters are not escaped", "<a>", 5},
		{"object", map[string]any{"a": float64(1)}, 7},
		{"nil", nil, 4},
		{"astral rune counts as two", "😀", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, BodySize(tt.body))
		})
	}
}
