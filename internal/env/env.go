// Package env substitutes {{name}} placeholders with environment variables.
package env

import (
	"regexp"
	"strings"

	"github.com/vedsharma/apiclient/internal/model"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Lookup resolves a variable name
type Lookup func(name string) (string, bool)

// FromEnvironment looks variables up in e
func FromEnvironment(e model.Environment) Lookup {
	return e.Lookup
}

// Expand replaces every known placeholder in s. Unknown placeholders are
// left verbatim.
func Expand(s string, lookup Lookup) string {
	if lookup == nil || !strings.Contains(s, "{{") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if value, ok := lookup(name); ok {
			return value
		}
		return match
	})
}

// Strip removes every placeholder from s, leaving only its literal text
func Strip(s string) string {
	return placeholder.ReplaceAllString(s, "")
}

// Unresolved lists placeholder names in s that lookup cannot resolve
func Unresolved(s string, lookup Lookup) []string {
	var missing []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if lookup == nil {
			missing = append(missing, name)
			continue
		}
		if _, ok := lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Apply returns a copy of req with placeholders expanded in the URL, param
// and header keys and values, and body.
func Apply(req model.Request, lookup Lookup) model.Request {
	out := req.Clone()
	out.URL = Expand(out.URL, lookup)
	out.Body = Expand(out.Body, lookup)
	for i := range out.Params {
		out.Params[i].Key = Expand(out.Params[i].Key, lookup)
		out.Params[i].Value = Expand(out.Params[i].Value, lookup)
	}
	for i := range out.Headers {
		out.Headers[i].Key = Expand(out.Headers[i].Key, lookup)
		out.Headers[i].Value = Expand(out.Headers[i].Value, lookup)
	}
	return out
}
