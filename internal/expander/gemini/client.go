// Package gemini implements expander.Completer over the Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/italolelis/lineexpander/internal/expander"
	"github.com/italolelis/lineexpander/internal/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

const (
	// Provider is the name the client reports in errors and metrics.
	Provider = "gemini"

	DefaultModel = "gemini-2.0-flash"
)

// Client generates completions with a Gemini model.
type Client struct {
	client *genai.Client
	model  string
}

// Options tune the underlying GenAI client.
type Options struct {
	Model   string
	BaseURL string // overrides the public endpoint, mainly for tests
	Timeout time.Duration
}

// NewClient creates a client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Complete sends the user prompt with the system prompt as system instruction.
func (c *Client) Complete(ctx context.Context, p expander.Prompt) (string, error) {
	logger := logctx.LoggerFromContext(ctx).With("provider", Provider, "model", c.model)

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.Temperature),
	}

	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}

	logger.DebugContext(ctx, "sending completion request", "prompt", p.User, "max_tokens", p.MaxTokens)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(p.User), cfg)
	if err != nil {
		logger.ErrorContext(ctx, "completion request failed", "err", err)

		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &expander.CompletionError{Provider: Provider, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}

		return "", &expander.CompletionError{Provider: Provider, Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &expander.CompletionError{Provider: Provider, StatusCode: http.StatusOK, Message: "response has no text"}
	}

	logger.DebugContext(ctx, "received completion", "text", text)

	return text, nil
}
