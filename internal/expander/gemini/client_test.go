package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/italolelis/lineexpander/internal/expander"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/"+DefaultModel+":generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Built REST APIs at scale"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "test-key", Options{BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), expander.Prompt{
		System:      "be brief",
		User:        "Expand this sentence by approximately 20 characters: Built APIs",
		MaxTokens:   20,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Built REST APIs at scale", text)

	assert.Contains(t, body, "contents")
	assert.Contains(t, body, "systemInstruction")
	assert.Contains(t, body, "generationConfig")
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), "bad-key", Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), expander.Prompt{User: "x"})
	require.Error(t, err)

	var completionErr *expander.CompletionError
	require.True(t, errors.As(err, &completionErr))
	assert.Equal(t, Provider, completionErr.Provider)
	assert.Equal(t, http.StatusBadRequest, completionErr.StatusCode)
	assert.Equal(t, "API key not valid", completionErr.Message)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", Options{})
	require.Error(t, err)
}
