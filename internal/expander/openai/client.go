// Package openai implements expander.Completer over the OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/italolelis/lineexpander/internal/expander"
	"github.com/italolelis/lineexpander/internal/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	// Provider is the name the client reports in errors and metrics.
	Provider = "openai"

	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "gpt-3.5-turbo"

	completionsPath = "/v1/chat/completions"
	maxErrorBody    = 4 << 10
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the chat completions endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a client authenticating with apiKey as a bearer token. An empty baseURL or
// model selects the defaults.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if model == "" {
		model = DefaultModel
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: tokenSource,
				Base:   otelhttp.NewTransport(http.DefaultTransport),
			},
		},
	}
}

// Complete sends the prompt as a system plus user message pair and returns the first choice.
func (c *Client) Complete(ctx context.Context, p expander.Prompt) (string, error) {
	logger := logctx.LoggerFromContext(ctx).With("provider", Provider, "model", c.model)

	messages := make([]message, 0, 2)
	if p.System != "" {
		messages = append(messages, message{Role: "system", Content: p.System})
	}

	messages = append(messages, message{Role: "user", Content: p.User})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	logger.DebugContext(ctx, "sending completion request", "prompt", p.User, "max_tokens", p.MaxTokens)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "completion request failed", "err", err)

		return "", &expander.CompletionError{Provider: Provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		msg := strings.TrimSpace(string(raw))

		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}

		logger.ErrorContext(ctx, "completion API returned an error", "status", resp.StatusCode, "body", msg)

		return "", &expander.CompletionError{Provider: Provider, StatusCode: resp.StatusCode, Message: msg}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.ErrorContext(ctx, "failed to decode completion response", "err", err)

		return "", &expander.CompletionError{Provider: Provider, StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
	}

	if len(out.Choices) == 0 {
		return "", &expander.CompletionError{Provider: Provider, StatusCode: resp.StatusCode, Message: "response has no choices"}
	}

	text := out.Choices[0].Message.Content

	logger.DebugContext(ctx, "received completion", "text", text)

	return text, nil
}
