package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"

	"github.com/vedsharma/apiclient/internal/model"
)

// Output is where every Print function writes
var Output io.Writer = color.Output

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			// Make ANSI escape sequences visible instead of interpreting them
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
	warnColor      = color.New(color.FgYellow)
)

func outln(a ...any) {
	fmt.Fprintln(Output, a...)
}

func outf(format string, a ...any) {
	fmt.Fprintf(Output, format, a...)
}

// PrintResponse prints a formatted HTTP response
func PrintResponse(resp *model.Response, showHeaders bool) {
	printStatusLine(resp.Status, resp.StatusText)
	dimColor.Fprintf(Output, "  Time: %s  Size: %s\n\n", FormatDuration(float64(resp.Time)), FormatSize(resp.Size))

	if showHeaders {
		printHeaders(resp.Headers)
	}

	printBody(resp.Body)
}

func printStatusLine(status int, statusText string) {
	if status == model.StatusTransportFailure {
		serverErrColor.Fprintf(Output, "Network Error: %s\n", sanitizeOutput(statusText))
		return
	}
	getStatusColor(status).Fprintf(Output, "%d %s\n", status, sanitizeOutput(statusText))
}

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	outln("Headers:")

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		headerKeyColor.Fprintf(Output, "  %s: ", sanitizeOutput(key))
		outln(sanitizeOutput(headers[key]))
	}
	outln()
}

func printPairs(title string, pairs []model.KeyValuePair) {
	var active []model.KeyValuePair
	for _, p := range pairs {
		if p.Active() {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return
	}

	outln(title + ":")
	for _, p := range active {
		headerKeyColor.Fprintf(Output, "  %s: ", sanitizeOutput(p.Key))
		outln(sanitizeOutput(p.Value))
	}
	outln()
}

func printBody(body any) {
	text := BodyText(body)
	if text == "" {
		dimColor.Fprintln(Output, "(empty body)")
		return
	}
	outln(sanitizeOutput(text))
}

// BodyText renders a response body for display, pretty-printing JSON
func BodyText(body any) string {
	switch b := body.(type) {
	case nil:
		return ""
	case string:
		return prettyJSON(b)
	default:
		out, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Sprint(b)
		}
		return string(out)
	}
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		// Not valid JSON, return as-is
		return s
	}
	return out.String()
}

func formatTimestamp(ms *int64) string {
	if ms == nil {
		return "never sent"
	}
	return time.UnixMilli(*ms).Format("2006-01-02 15:04:05")
}

// PrintRequest prints a formatted HTTP request summary
func PrintRequest(req *model.Request) {
	methodColor.Fprintf(Output, "%s ", req.Method)
	urlColor.Fprintln(Output, sanitizeOutput(req.URL))
	dimColor.Fprintf(Output, "  ID: %s\n", req.ID)
	dimColor.Fprintf(Output, "  Time: %s\n", formatTimestamp(req.Timestamp))

	if outcome, ok := req.Outcome(); ok {
		outf("  Status: ")
		printStatusLine(outcome.Status, outcome.StatusText)
	}
}

// PrintRequestDetail prints a request and its recorded outcome
func PrintRequestDetail(req *model.Request) {
	outln("Request:")
	outln(strings.Repeat("-", 40))
	if req.Name != "" {
		headerKeyColor.Fprintln(Output, sanitizeOutput(req.Name))
	}
	methodColor.Fprintf(Output, "%s ", req.Method)
	urlColor.Fprintln(Output, sanitizeOutput(req.URL))
	dimColor.Fprintf(Output, "ID: %s\n", req.ID)
	dimColor.Fprintf(Output, "Sent: %s\n\n", formatTimestamp(req.Timestamp))

	printPairs("Params", req.Params)
	printPairs("Headers", req.Headers)

	if strings.TrimSpace(req.Body) != "" {
		outln("Body:")
		outln(sanitizeOutput(prettyJSON(req.Body)))
		outln()
	}

	if outcome, ok := req.Outcome(); ok {
		outln("Outcome:")
		outln(strings.Repeat("-", 40))
		printStatusLine(outcome.Status, outcome.StatusText)
		dimColor.Fprintf(Output, "  Time: %s\n", FormatDuration(float64(outcome.Time)))
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// PrintHistoryList prints history entries in a compact format
func PrintHistoryList(requests []model.Request, limit int) {
	if len(requests) == 0 {
		dimColor.Fprintln(Output, "No requests in history")
		return
	}

	count := len(requests)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		dimColor.Fprintf(Output, "[%d] ", i+1)
		printHistoryLine(requests[i])
	}

	if limit > 0 && len(requests) > limit {
		dimColor.Fprintf(Output, "\n... and %d more requests\n", len(requests)-limit)
	}
}

// PrintHistoryMatches prints search results; entries are listed by id
// since their positions differ from the full history
func PrintHistoryMatches(query string, matches []model.Request) {
	if len(matches) == 0 {
		dimColor.Fprintf(Output, "No requests in history match '%s'\n", sanitizeOutput(query))
		return
	}
	for _, req := range matches {
		if req.Name != "" {
			outf("%s  ", sanitizeOutput(req.Name))
		}
		printHistoryLine(req)
	}
}

func printHistoryLine(req model.Request) {
	dimColor.Fprintf(Output, "%s ", shortID(req.ID))
	methodColor.Fprintf(Output, "%-7s ", req.Method)
	urlColor.Fprintf(Output, "%-60s ", sanitizeOutput(truncate(req.URL, 60)))

	if outcome, ok := req.Outcome(); ok {
		getStatusColor(outcome.Status).Fprintf(Output, "%d ", outcome.Status)
		dimColor.Fprintf(Output, "(%s)", FormatDuration(float64(outcome.Time)))
	}
	outln()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintCollectionList prints a list of collections
func PrintCollectionList(collections []model.Collection) {
	if len(collections) == 0 {
		dimColor.Fprintln(Output, "No collections found")
		return
	}

	outln("Collections:")
	for _, col := range collections {
		headerKeyColor.Fprintf(Output, "  %s ", sanitizeOutput(col.Name))
		dimColor.Fprintf(Output, "(%d requests) %s\n", len(col.Requests), shortID(col.ID))
	}
}

// PrintCollectionRequests prints requests in a collection
func PrintCollectionRequests(col *model.Collection) {
	if len(col.Requests) == 0 {
		dimColor.Fprintf(Output, "Collection '%s' is empty\n", sanitizeOutput(col.Name))
		return
	}

	headerKeyColor.Fprintf(Output, "Collection: %s\n", sanitizeOutput(col.Name))
	outln(strings.Repeat("-", 40))

	for i, req := range col.Requests {
		dimColor.Fprintf(Output, "[%d] ", i+1)
		if req.Name != "" {
			outf("%s: ", sanitizeOutput(req.Name))
		}
		methodColor.Fprintf(Output, "%s ", req.Method)
		urlColor.Fprintln(Output, sanitizeOutput(req.URL))
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Fprintf(Output, "✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Fprintf(Output, "✗ %s\n", msg)
}

// PrintAliasList prints aliases sorted by name
func PrintAliasList(aliases map[string]string) {
	if len(aliases) == 0 {
		dimColor.Fprintln(Output, "No aliases found")
		return
	}

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	outln("Aliases:")
	for _, name := range names {
		outf("  ")
		PrintAlias(name, aliases[name])
	}
}

// PrintAlias prints a single alias
func PrintAlias(name, url string) {
	headerKeyColor.Fprintf(Output, "%s ", sanitizeOutput(name))
	dimColor.Fprint(Output, "→ ")
	urlColor.Fprintln(Output, sanitizeOutput(url))
}

// PrintAnalysis prints AI commentary on a response
func PrintAnalysis(text string) {
	outln()
	headerKeyColor.Fprintln(Output, "AI Analysis")
	outln(strings.Repeat("-", 40))
	outln(sanitizeOutput(text))
}
