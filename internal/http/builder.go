package http

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/vedsharma/apiclient/internal/model"
)

// UrlParseError reports a base URL the builder could not resolve
type UrlParseError struct {
	URL string
	Err error
}

func (e *UrlParseError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *UrlParseError) Unwrap() error {
	return e.Err
}

// ResolvedRequest is a request ready for the wire
type ResolvedRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	// HasBody is false for GET and HEAD, whatever Body holds.
	HasBody bool
}

// Resolve turns a composed request into its wire form
func Resolve(req model.Request) (*ResolvedRequest, error) {
	fullURL, err := BuildURL(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = model.MethodGet
	}

	resolved := &ResolvedRequest{
		Method:  method,
		URL:     fullURL,
		Headers: BuildHeaders(req.Headers),
		HasBody: !omitsBody(method),
	}
	if resolved.HasBody {
		resolved.Body = req.Body
	}
	return resolved, nil
}

// BuildURL appends every active param to base in list order. Repeated keys
// are all kept. A base without a scheme is treated as https.
func BuildURL(base string, params []model.KeyValuePair) (string, error) {
	raw := withScheme(strings.TrimSpace(base))

	u, err := url.Parse(raw)
	if err != nil {
		return "", &UrlParseError{URL: base, Err: err}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", &UrlParseError{URL: base, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Hostname() == "" {
		return "", &UrlParseError{URL: base, Err: errors.New("missing host")}
	}
	if u.Path == "" {
		u.Path = "/"
	}

	var query []string
	for _, p := range params {
		if !p.Active() {
			continue
		}
		query = append(query, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	if len(query) > 0 {
		if u.RawQuery != "" {
			u.RawQuery += "&"
		}
		u.RawQuery += strings.Join(query, "&")
	}

	return u.String(), nil
}

// BuildHeaders collects active headers into a map; a later duplicate key
// overwrites an earlier one.
func BuildHeaders(headers []model.KeyValuePair) map[string]string {
	result := make(map[string]string)
	for _, h := range headers {
		if !h.Active() {
			continue
		}
		result[h.Key] = h.Value
	}
	return result
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

func withScheme(raw string) string {
	if schemePattern.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

func omitsBody(method string) bool {
	return method == model.MethodGet || method == model.MethodHead
}
