// Package analysis asks a chat completion model to explain an API response.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vedsharma/apiclient/internal/model"
)

const (
	DefaultModel   = "gpt-3.5-turbo"
	DefaultBaseURL = "https://api.openai.com/v1"

	temperature = 0.7
	maxTokens   = 1000
)

// ErrAnalysisFailed is the only error callers see; the cause is logged
var ErrAnalysisFailed = errors.New("Failed to analyze response")

// ErrMissingAPIKey is returned before any call is made without a key
var ErrMissingAPIKey = errors.New("OpenAI API key is not configured")

// Analyzer calls the OpenAI chat completions API
type Analyzer struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewAnalyzer creates an analyzer. Empty model and baseURL use the defaults.
func NewAnalyzer(apiKey, modelName, baseURL string, httpClient *http.Client) *Analyzer {
	if modelName == "" {
		modelName = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(baseURL, "/")
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &Analyzer{
		apiKey: apiKey,
		model:  modelName,
		client: openai.NewClientWithConfig(config),
	}
}

// Analyze returns the model's commentary on resp
func (a *Analyzer) Analyze(ctx context.Context, resp *model.Response) (string, error) {
	if a.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	text, err := a.complete(ctx, Prompt(resp))
	if err != nil {
		slog.Error("OpenAI API error", "error", err)
		return "", ErrAnalysisFailed
	}
	return text, nil
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	reply, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(reply.Choices) == 0 {
		return "", errors.New("reply has no choices")
	}
	return reply.Choices[0].Message.Content, nil
}

// Prompt renders the analysis request for resp
func Prompt(resp *model.Response) string {
	headers, _ := json.MarshalIndent(resp.Headers, "", "  ")
	body, _ := json.MarshalIndent(resp.Body, "", "  ")

	return fmt.Sprintf(`Analyze this API response and provide insights:

Status: %d %s
Headers: %s
Body: %s

Please provide:
1. A summary of the response
2. Any potential issues or concerns
3. Suggestions for improvement
4. Data structure analysis
`, resp.Status, resp.StatusText, headers, body)
}
