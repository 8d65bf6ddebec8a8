package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.CompletionProvider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, "uploads", cfg.StorageDir)
	assert.Equal(t, "http://127.0.0.1:3001", cfg.PublicURL)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadSize)
	assert.Equal(t, 24*time.Hour, cfg.KeepDocumentsFor)
	assert.Equal(t, 10*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, "0.0.0.0:3001", cfg.Web.BindAddress)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "resumes")
	t.Setenv("S3_ACCESS_KEY_ID", "minio")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("TELEMETRY_ENABLED", "false")
	t.Setenv("TELEMETRY_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("WEB_BIND_ADDRESS", "127.0.0.1:8080")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.CompletionProvider)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "resumes", cfg.S3.Bucket)
	assert.Equal(t, "minio", cfg.S3.AccessKeyID)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "otel:4317", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "127.0.0.1:8080", cfg.Web.BindAddress)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing openai key",
			env:  map[string]string{},
			want: "OPENAI_API_KEY is required",
		},
		{
			name: "unknown provider",
			env:  map[string]string{"COMPLETION_PROVIDER": "llama"},
			want: "invalid COMPLETION_PROVIDER",
		},
		{
			name: "s3 without bucket",
			env:  map[string]string{"OPENAI_API_KEY": "k", "STORAGE_BACKEND": "s3"},
			want: "S3_BUCKET is required",
		},
		{
			name: "relative public url",
			env:  map[string]string{"OPENAI_API_KEY": "k", "PUBLIC_URL": "/downloads"},
			want: "invalid PUBLIC_URL",
		},
		{
			name: "non positive upload limit",
			env:  map[string]string{"OPENAI_API_KEY": "k", "MAX_UPLOAD_SIZE": "0"},
			want: "MAX_UPLOAD_SIZE must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWidgetConfig(t *testing.T) {
	cfg, err := LoadWidgetConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3001/upload/", cfg.Endpoint)
	assert.Zero(t, cfg.Timeout)

	t.Setenv("LINEEXPANDER_ENDPOINT", "https://expander.example.com/upload/")
	t.Setenv("LINEEXPANDER_TIMEOUT", "45s")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err = LoadWidgetConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://expander.example.com/upload/", cfg.Endpoint)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}
