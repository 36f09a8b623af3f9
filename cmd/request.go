package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/analysis"
	"github.com/vedsharma/apiclient/internal/env"
	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

// sensitiveHeaders is a list of headers that should be redacted before storing in history
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	// Session and token headers
	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	// AWS credentials
	"x-amz-security-token": true,
	"x-amz-credential":     true,
	"x-amz-signature":      true,

	// GCP credentials
	"x-goog-authenticated-user-email": true,
	"x-goog-authenticated-user-id":    true,
	"x-goog-iap-jwt-assertion":        true,

	// Azure credentials
	"x-ms-client-principal":    true,
	"x-ms-client-principal-id": true,
	"x-ms-token-aad-id-token":  true,

	// Other common auth headers
	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

const redacted = "[REDACTED]"

// requestFlags are the flags shared by every request verb
type requestFlags struct {
	headers    []string
	params     []string
	data       string
	name       string
	noHistory  bool
	collection string
	envName    string
	analyze    bool
}

var reqFlags requestFlags

func init() {
	verbs := []struct {
		method string
		short  string
	}{
		{model.MethodGet, "Send a GET request"},
		{model.MethodPost, "Send a POST request"},
		{model.MethodPut, "Send a PUT request"},
		{model.MethodPatch, "Send a PATCH request"},
		{model.MethodDelete, "Send a DELETE request"},
		{model.MethodHead, "Send a HEAD request"},
	}

	for _, v := range verbs {
		c := &cobra.Command{
			Use:   strings.ToLower(v.method) + " <url>",
			Short: v.short,
			Args:  cobra.ExactArgs(1),
			RunE:  runRequest(v.method),
		}
		addRequestFlags(c)
		rootCmd.AddCommand(c)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&reqFlags.headers, "header", "H", []string{}, "Add header as 'Key: Value' (can be used multiple times)")
	cmd.Flags().StringArrayVarP(&reqFlags.params, "param", "p", []string{}, "Add query parameter as key=value (can be used multiple times)")
	cmd.Flags().StringVarP(&reqFlags.data, "data", "d", "", "Request body (JSON string or @filename)")
	cmd.Flags().StringVar(&reqFlags.name, "name", "", "Request name used in history and collections")
	cmd.Flags().BoolVar(&reqFlags.noHistory, "no-history", false, "Don't save to history")
	cmd.Flags().StringVarP(&reqFlags.collection, "collection", "c", "", "Save to collection")
	cmd.Flags().StringVarP(&reqFlags.envName, "env", "e", "", "Environment to use instead of the active one")
	cmd.Flags().BoolVar(&reqFlags.analyze, "analyze", false, "Ask OpenAI to analyze the response")
}

func runRequest(method string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		req, err := composeRequest(method, args[0], reqFlags)
		if err != nil {
			return err
		}

		st, err := loadState()
		if err != nil {
			return err
		}

		if !reqFlags.noHistory {
			warnIfSensitiveBody(req.Body)
		}
		if verbose(cmd) {
			format.PrintRequest(&req)
		}

		resp, sent, err := send(cmd.Context(), req, st, reqFlags.envName)
		if err != nil {
			return err
		}

		format.PrintResponse(resp, verbose(cmd))

		var actions []state.Action
		if !reqFlags.noHistory {
			actions = append(actions, state.AddToHistory{Request: redact(sent)})
		}
		if reqFlags.collection != "" {
			actions = append(actions, saveToCollectionActions(st, reqFlags.collection, redact(req.WithoutOutcome()))...)
		}
		if len(actions) > 0 {
			if _, err := dispatch(actions...); err != nil {
				// Storage problems shouldn't hide a response that was already printed
				slog.Warn("Failed to record request", "error", err)
			} else if reqFlags.collection != "" {
				format.PrintSuccess(fmt.Sprintf("Saved to collection '%s'", reqFlags.collection))
			}
		}

		if reqFlags.analyze {
			runAnalysis(cmd.Context(), st, resp)
		}
		return nil
	}
}

// composeRequest builds a request from command-line input
func composeRequest(method, url string, flags requestFlags) (model.Request, error) {
	req := model.NewRequest()
	req.Method = method
	req.URL = url
	if flags.name != "" {
		req.Name = flags.name
	}

	params, err := parseParams(flags.params)
	if err != nil {
		return req, err
	}
	req.Params = params
	req.Headers = parseHeaders(flags.headers)

	body := flags.data
	if strings.HasPrefix(body, "@") {
		content, err := readBodyFromFile(strings.TrimPrefix(body, "@"))
		if err != nil {
			return req, fmt.Errorf("failed to read file: %w", err)
		}
		body = content
	}
	req.Body = body
	return req, nil
}

// send resolves aliases and environment variables, then executes req.
// The returned request is the composed one annotated with the outcome.
func send(ctx context.Context, req model.Request, st state.State, envName string) (*model.Response, model.Request, error) {
	prepared, err := prepare(req, st, envName)
	if err != nil {
		return nil, req, err
	}

	_, resp, err := newClient().Exchange(ctx, prepared)
	if err != nil {
		return nil, req, err
	}
	return resp, req.WithOutcome(resp.Outcome(req.ID)), nil
}

func runAnalysis(ctx context.Context, st state.State, resp *model.Response) {
	apiKey, modelName := cfg.OpenAI.APIKey, cfg.OpenAI.Model
	if s := st.Settings.OpenAI; s != nil {
		if apiKey == "" {
			apiKey = s.APIKey
		}
		if s.Model != "" {
			modelName = s.Model
		}
	}

	text, err := analysis.NewAnalyzer(apiKey, modelName, cfg.OpenAI.BaseURL, nil).Analyze(ctx, resp)
	if err != nil {
		format.PrintError(err.Error())
		return
	}
	format.PrintAnalysis(text)
}

func parseHeaders(headerStrings []string) []model.KeyValuePair {
	pairs := make([]model.KeyValuePair, 0, len(headerStrings))
	for _, h := range headerStrings {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			slog.Warn("Ignoring malformed header", "header", h)
			continue
		}
		pairs = append(pairs, model.NewKeyValuePair(strings.TrimSpace(key), strings.TrimSpace(value)))
	}
	return pairs
}

func parseParams(paramStrings []string) ([]model.KeyValuePair, error) {
	pairs := make([]model.KeyValuePair, 0, len(paramStrings))
	for _, p := range paramStrings {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", p)
		}
		pairs = append(pairs, model.NewKeyValuePair(key, value))
	}
	return pairs, nil
}

// authSchemes may appear next to a placeholder without making a value secret
var authSchemes = map[string]bool{
	"basic":  true,
	"bearer": true,
	"digest": true,
	"token":  true,
	"apikey": true,
}

// redact returns a copy of req with sensitive header values replaced.
// Values that only reference environment variables are kept so they still
// expand when the request is sent again.
func redact(req model.Request) model.Request {
	out := req.Clone()
	for i, h := range out.Headers {
		if sensitiveHeaders[strings.ToLower(strings.TrimSpace(h.Key))] && !templatedSecret(h.Value) {
			out.Headers[i].Value = redacted
		}
	}
	return out
}

// templatedSecret reports whether value holds a placeholder and no literal
// text other than an auth scheme
func templatedSecret(value string) bool {
	literal := env.Strip(value)
	if literal == value {
		return false
	}
	for _, word := range strings.Fields(literal) {
		if !authSchemes[strings.ToLower(word)] {
			return false
		}
	}
	return true
}

// saveToCollectionActions saves req into the collection named by ref,
// creating the collection when it doesn't exist.
func saveToCollectionActions(st state.State, ref string, req model.Request) []state.Action {
	if col, err := st.Collection(ref); err == nil {
		return []state.Action{state.SaveRequest{CollectionID: col.ID, Request: req}}
	}
	col := model.NewCollection(ref)
	return []state.Action{
		state.AddCollection{ID: col.ID, Name: col.Name},
		state.SaveRequest{CollectionID: col.ID, Request: req},
	}
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	if !withinDir(cleanPath, wd) {
		return "", fmt.Errorf("access denied: file must be within current directory")
	}

	// Symlink targets must stay inside the working directory too
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if realWd, err := filepath.EvalSymlinks(wd); err == nil && !withinDir(realPath, realWd) && !withinDir(realPath, wd) {
		return "", fmt.Errorf("access denied: symlink target must be within current directory")
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func withinDir(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// sensitiveBodyPatterns contains patterns that suggest sensitive data in request bodies
var sensitiveBodyPatterns = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"private_key", "privatekey",
	"credit_card", "creditcard", "card_number",
	"ssn", "social_security",
	"access_token", "refresh_token",
	"client_secret", "auth",
}

// warnIfSensitiveBody warns when a body that will be stored in history
// looks like it carries credentials
func warnIfSensitiveBody(body string) {
	if body == "" {
		return
	}

	lowerBody := strings.ToLower(body)
	for _, pattern := range sensitiveBodyPatterns {
		if strings.Contains(lowerBody, pattern) {
			slog.Warn("Request body may contain sensitive data and will be stored in history; use --no-history to skip", "pattern", pattern)
			return
		}
	}
}
