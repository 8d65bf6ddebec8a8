package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/italolelis/lineexpander/internal/storage"
)

const timeLayout = time.RFC3339

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(dbConn *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: dbConn}
}

// TrackDocument inserts a freshly received upload.
func (r *DocumentRepository) TrackDocument(ctx context.Context, rec storage.DocumentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if rec.Status == "" {
		rec.Status = storage.StatusReceived
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, original_name, stored_name, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.OriginalName, rec.StoredName, string(rec.Status), rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to track document: %w", err)
	}

	return nil
}

// CompleteDocument records the result of a successful processing run.
func (r *DocumentRepository) CompleteDocument(ctx context.Context, id string, o storage.Outcome) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, expanded_name = ?, bullet_text = ?, expanded_text = ?, error = ''
		WHERE id = ?`,
		string(o.Status), o.ExpandedName, o.BulletText, o.ExpandedText, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete document: %w", err)
	}

	return requireRow(res, id)
}

// FailDocument marks a document as failed with the given reason.
func (r *DocumentRepository) FailDocument(ctx context.Context, id string, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ? WHERE id = ?`,
		string(storage.StatusFailed), reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark document as failed: %w", err)
	}

	return requireRow(res, id)
}

// MarkExpired flags a document whose artifacts were removed.
func (r *DocumentRepository) MarkExpired(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET expired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark document as expired: %w", err)
	}

	return requireRow(res, id)
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*storage.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, original_name, stored_name, expanded_name, status, bullet_text, expanded_text, error, created_at, expired
		FROM documents WHERE id = ?`, id)

	rec, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	return rec, nil
}

// GetExpiredDocuments returns the records created before cutoff that are not flagged as expired.
func (r *DocumentRepository) GetExpiredDocuments(ctx context.Context, cutoff time.Time) ([]storage.DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, original_name, stored_name, expanded_name, status, bullet_text, expanded_text, error, created_at, expired
		FROM documents
		WHERE expired = 0 AND created_at < ?
		ORDER BY created_at`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query expired documents: %w", err)
	}
	defer rows.Close()

	var records []storage.DocumentRecord

	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*storage.DocumentRecord, error) {
	var (
		rec       storage.DocumentRecord
		status    string
		createdAt string
	)

	err := s.Scan(&rec.ID, &rec.OriginalName, &rec.StoredName, &rec.ExpandedName, &status,
		&rec.BulletText, &rec.ExpandedText, &rec.Error, &createdAt, &rec.Expired)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	rec.Status = storage.Status(status)

	rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at of document %s: %w", rec.ID, err)
	}

	return &rec, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}

	return nil
}
