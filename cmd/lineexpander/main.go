package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/italolelis/lineexpander/internal/artifact"
	"github.com/italolelis/lineexpander/internal/cleanup"
	"github.com/italolelis/lineexpander/internal/config"
	"github.com/italolelis/lineexpander/internal/expander"
	"github.com/italolelis/lineexpander/internal/expander/gemini"
	"github.com/italolelis/lineexpander/internal/expander/openai"
	"github.com/italolelis/lineexpander/internal/http/rest"
	"github.com/italolelis/lineexpander/internal/logctx"
	"github.com/italolelis/lineexpander/internal/notifier"
	"github.com/italolelis/lineexpander/internal/storage/sqlite"
	"github.com/italolelis/lineexpander/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(logctx.NewContextHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("line expander starting...", "log_level", cfg.LogLevel, "version", version)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "lineexpander",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown telemetry", "err", err)
		}
	}()

	// =========================================================================
	// Start Database
	database, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		logger.Error("DB error", "err", err)

		return err
	}
	defer database.Close()

	repo := sqlite.NewInstrumentedDocumentRepository(database, tel)

	// =========================================================================
	// Start Artifact Store
	store, err := buildArtifactStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build artifact store: %w", err)
	}

	// =========================================================================
	// Start Completion Client
	completer, err := buildCompleter(ctx, cfg, tel)
	if err != nil {
		return fmt.Errorf("failed to build completion client: %w", err)
	}

	// =========================================================================
	// Start API Service
	docs := rest.NewDocumentHandler(
		repo,
		store,
		expander.New(completer),
		notifier.New(cfg.DiscordWebhookURL),
		tel,
		rest.Options{PublicURL: cfg.PublicURL, MaxUploadSize: cfg.MaxUploadSize},
	)

	server := &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      rest.NewRouter(docs, tel),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Initializing API support", "host", cfg.Web.BindAddress, "public_url", cfg.PublicURL)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err = server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		return nil
	})

	// =========================================================================
	// Start Cleanup
	janitor := cleanup.NewJanitor(repo, store, cfg.KeepDocumentsFor, tel)

	g.Go(func() error {
		logger.Info("waiting for documents...",
			"provider", cfg.CompletionProvider,
			"storage", cfg.StorageBackend,
			"retention", cfg.KeepDocumentsFor.String(),
			"cleanup_interval", cfg.CleanupInterval.String(),
		)

		return janitor.Run(ctx, cfg.CleanupInterval)
	})

	return g.Wait()
}

// buildArtifactStore is an abstract factory for the artifact store.
func buildArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return artifact.NewLocalStore(cfg.StorageDir)
	case config.StorageS3:
		client, err := artifact.NewS3Client(ctx, artifact.S3Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}

		return artifact.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	}

	return nil, fmt.Errorf("invalid storage backend: %s", cfg.StorageBackend)
}

// buildCompleter is an abstract factory for the completion client.
func buildCompleter(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry) (expander.Completer, error) {
	switch cfg.CompletionProvider {
	case config.ProviderOpenAI:
		c := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Timeout)

		return expander.NewInstrumentedCompleter(c, tel, openai.Provider), nil
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, gemini.Options{
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Gemini.Timeout,
		})
		if err != nil {
			return nil, err
		}

		return expander.NewInstrumentedCompleter(c, tel, gemini.Provider), nil
	}

	return nil, fmt.Errorf("invalid completion provider: %s", cfg.CompletionProvider)
}
