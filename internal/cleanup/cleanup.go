package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/italolelis/lineexpander/internal/artifact"
	"github.com/italolelis/lineexpander/internal/logctx"
	"github.com/italolelis/lineexpander/internal/storage"
	"github.com/italolelis/lineexpander/internal/telemetry"
)

// Janitor removes the artifacts of documents kept longer than the retention period.
type Janitor struct {
	repo      storage.DocumentRepository
	store     artifact.Store
	retention time.Duration
	telemetry *telemetry.Telemetry

	now func() time.Time
}

func NewJanitor(repo storage.DocumentRepository, store artifact.Store, retention time.Duration, tel *telemetry.Telemetry) *Janitor {
	return &Janitor{
		repo:      repo,
		store:     store,
		retention: retention,
		telemetry: tel,
		now:       time.Now,
	}
}

// DeleteExpired removes the stored and expanded artifacts of every record older than the retention
// period and flags the record as expired. It returns the number of records cleaned. A record whose
// artifacts cannot be removed stays unflagged and is retried on the next run.
func (j *Janitor) DeleteExpired(ctx context.Context) (int, error) {
	logger := logctx.LoggerFromContext(ctx)

	records, err := j.repo.GetExpiredDocuments(ctx, j.now().Add(-j.retention))
	if err != nil {
		logger.ErrorContext(ctx, "failed to get expired documents", "err", err)

		return 0, fmt.Errorf("failed to get expired documents: %w", err)
	}

	var (
		cleaned int
		errs    []error
	)

	for _, rec := range records {
		if err := j.deleteArtifacts(ctx, rec); err != nil {
			logger.ErrorContext(ctx, "failed to delete expired artifacts", "document_id", rec.ID, "err", err)
			errs = append(errs, err)

			continue
		}

		if err := j.repo.MarkExpired(ctx, rec.ID); err != nil {
			logger.ErrorContext(ctx, "failed to mark document as expired", "document_id", rec.ID, "err", err)
			errs = append(errs, err)

			continue
		}

		logger.InfoContext(ctx, "deleted expired document", "document_id", rec.ID, "created_at", rec.CreatedAt)

		cleaned++
	}

	if j.telemetry != nil {
		j.telemetry.RecordArtifactsExpired(ctx, cleaned)
	}

	return cleaned, errors.Join(errs...)
}

func (j *Janitor) deleteArtifacts(ctx context.Context, rec storage.DocumentRecord) error {
	for _, name := range []string{rec.StoredName, rec.ExpandedName} {
		if name == "" {
			continue
		}

		if err := j.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("failed to delete artifact %s: %w", name, err)
		}
	}

	return nil
}

// Run calls DeleteExpired every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	logger := logctx.LoggerFromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "cleanup goroutine shutting down")

			return nil
		case <-ticker.C:
			if _, err := j.DeleteExpired(ctx); err != nil {
				logger.ErrorContext(ctx, "failed to delete expired documents", "err", err)
			}
		}
	}
}
