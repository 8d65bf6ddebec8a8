package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config struct for environment variables.
type Config struct {
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"INFO"`
	DBPath            string        `envconfig:"DB_PATH" default:"lineexpander.db"`
	PublicURL         string        `envconfig:"PUBLIC_URL" default:"http://127.0.0.1:3001"`
	MaxUploadSize     int64         `envconfig:"MAX_UPLOAD_SIZE" default:"20971520"`
	KeepDocumentsFor  time.Duration `envconfig:"KEEP_DOCUMENTS_FOR" default:"24h"`
	CleanupInterval   time.Duration `envconfig:"CLEANUP_INTERVAL" default:"10m"`
	DiscordWebhookURL string        `envconfig:"DISCORD_WEBHOOK_URL"`

	CompletionProvider string `envconfig:"COMPLETION_PROVIDER" default:"openai"`

	OpenAI struct {
		APIKey  string        `split_words:"true"`
		BaseURL string        `split_words:"true" default:"https://api.openai.com"`
		Model   string        `split_words:"true" default:"gpt-3.5-turbo"`
		Timeout time.Duration `split_words:"true" default:"60s"`
	}

	Gemini struct {
		APIKey  string        `split_words:"true"`
		Model   string        `split_words:"true" default:"gemini-2.0-flash"`
		Timeout time.Duration `split_words:"true" default:"60s"`
	}

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	StorageDir     string `envconfig:"STORAGE_DIR" default:"uploads"`

	S3 struct {
		Bucket          string
		Prefix          string
		Region          string `default:"us-east-1"`
		Endpoint        string
		AccessKeyID     string `split_words:"true"`
		SecretAccessKey string `split_words:"true"`
	}

	Telemetry struct {
		Enabled      bool   `default:"true"`
		OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
	}

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:3001"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"120s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error

	switch c.CompletionProvider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when COMPLETION_PROVIDER=openai"))
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when COMPLETION_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid COMPLETION_PROVIDER: %q", c.CompletionProvider))
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.StorageDir == "" {
			errs = append(errs, errors.New("STORAGE_DIR is required when STORAGE_BACKEND=local"))
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_BACKEND: %q", c.StorageBackend))
	}

	if u, err := url.Parse(c.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid PUBLIC_URL: %q", c.PublicURL))
	}

	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

// WidgetConfig configures the upload widget.
type WidgetConfig struct {
	Endpoint string        `envconfig:"LINEEXPANDER_ENDPOINT" default:"http://127.0.0.1:3001/upload/"`
	Timeout  time.Duration `envconfig:"LINEEXPANDER_TIMEOUT" default:"0s"`
	LogLevel string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

// LoadWidgetConfig reads the widget settings from the environment.
func LoadWidgetConfig() (*WidgetConfig, error) {
	var cfg WidgetConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *WidgetConfig) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
