package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordNotifier_Notify(t *testing.T) {
	var got map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewDiscordNotifier(server.URL)
	require.NoError(t, n.Notify(context.Background(), "expansion failed for cv.docx"))
	assert.Equal(t, "expansion failed for cv.docx", got["content"])
}

func TestDiscordNotifier_TruncatesLongContent(t *testing.T) {
	var got map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewDiscordNotifier(server.URL)
	require.NoError(t, n.Notify(context.Background(), strings.Repeat("é", 3000)))
	assert.Equal(t, maxContentLength, utf8.RuneCountInString(got["content"]))
}

func TestDiscordNotifier_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := NewDiscordNotifier(server.URL).Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")

	err = (&DiscordNotifier{}).Notify(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoWebhook)
}

func TestNew(t *testing.T) {
	assert.IsType(t, Nop{}, New(""))
	assert.IsType(t, &DiscordNotifier{}, New("https://discord.example.com/api/webhooks/1"))
	assert.NoError(t, Nop{}.Notify(context.Background(), "ignored"))
}
