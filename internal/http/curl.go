package http

import (
	"fmt"
	"strings"

	"github.com/vedsharma/apiclient/internal/model"
)

// CurlCommand renders req as an equivalent curl invocation
func CurlCommand(req model.Request) (string, error) {
	fullURL, err := BuildURL(req.URL, req.Params)
	if err != nil {
		return "", err
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = model.MethodGet
	}

	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s \"%s\"", method, fullURL)

	for _, h := range req.Headers {
		if !h.Active() {
			continue
		}
		fmt.Fprintf(&b, " \\\n  -H \"%s: %s\"", h.Key, h.Value)
	}

	if !omitsBody(method) && strings.TrimSpace(req.Body) != "" {
		fmt.Fprintf(&b, " \\\n  -d '%s'", req.Body)
	}

	return b.String(), nil
}
