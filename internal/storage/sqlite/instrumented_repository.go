package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/italolelis/lineexpander/internal/storage"
	"github.com/italolelis/lineexpander/internal/telemetry"
)

// InstrumentedDocumentRepository wraps DocumentRepository with telemetry.
type InstrumentedDocumentRepository struct {
	repo      *DocumentRepository
	telemetry *telemetry.Telemetry
}

// NewInstrumentedDocumentRepository creates a new instrumented document repository.
func NewInstrumentedDocumentRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedDocumentRepository {
	return &InstrumentedDocumentRepository{
		repo:      NewDocumentRepository(dbConn),
		telemetry: tel,
	}
}

// TrackDocument tracks a document with telemetry.
func (r *InstrumentedDocumentRepository) TrackDocument(ctx context.Context, rec storage.DocumentRecord) error {
	return r.telemetry.InstrumentDBOperation(ctx, "track_document", func(ctx context.Context) error {
		return r.repo.TrackDocument(ctx, rec)
	})
}

// CompleteDocument completes a document with telemetry.
func (r *InstrumentedDocumentRepository) CompleteDocument(ctx context.Context, id string, o storage.Outcome) error {
	return r.telemetry.InstrumentDBOperation(ctx, "complete_document", func(ctx context.Context) error {
		return r.repo.CompleteDocument(ctx, id, o)
	})
}

// FailDocument fails a document with telemetry.
func (r *InstrumentedDocumentRepository) FailDocument(ctx context.Context, id string, reason string) error {
	return r.telemetry.InstrumentDBOperation(ctx, "fail_document", func(ctx context.Context) error {
		return r.repo.FailDocument(ctx, id, reason)
	})
}

// MarkExpired marks a document as expired with telemetry.
func (r *InstrumentedDocumentRepository) MarkExpired(ctx context.Context, id string) error {
	return r.telemetry.InstrumentDBOperation(ctx, "mark_expired", func(ctx context.Context) error {
		return r.repo.MarkExpired(ctx, id)
	})
}

// GetDocument retrieves a document with telemetry.
func (r *InstrumentedDocumentRepository) GetDocument(ctx context.Context, id string) (*storage.DocumentRecord, error) {
	var result *storage.DocumentRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(ctx, "get_document", func(ctx context.Context) error {
		result, err = r.repo.GetDocument(ctx, id)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

// GetExpiredDocuments retrieves expired documents with telemetry.
func (r *InstrumentedDocumentRepository) GetExpiredDocuments(ctx context.Context, cutoff time.Time) ([]storage.DocumentRecord, error) {
	var result []storage.DocumentRecord

	var err error

	instrumentedErr := r.telemetry.InstrumentDBOperation(ctx, "get_expired_documents", func(ctx context.Context) error {
		result, err = r.repo.GetExpiredDocuments(ctx, cutoff)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}
