package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("document record not found")

// Status is the processing state of an uploaded document.
type Status string

const (
	StatusReceived  Status = "received"
	StatusExpanded  Status = "expanded"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// DocumentRecord tracks one upload and the artifacts it produced.
type DocumentRecord struct {
	ID           string
	OriginalName string
	StoredName   string
	ExpandedName string
	Status       Status
	BulletText   string
	ExpandedText string
	Error        string
	CreatedAt    time.Time
	Expired      bool
}

// Outcome is what processing produced for a document.
type Outcome struct {
	Status       Status
	ExpandedName string
	BulletText   string
	ExpandedText string
}

type DocumentReadRepository interface {
	GetDocument(ctx context.Context, id string) (*DocumentRecord, error)
	// GetExpiredDocuments returns the records created before cutoff whose artifacts were not removed yet.
	GetExpiredDocuments(ctx context.Context, cutoff time.Time) ([]DocumentRecord, error)
}

type DocumentWriteRepository interface {
	TrackDocument(ctx context.Context, rec DocumentRecord) error
	CompleteDocument(ctx context.Context, id string, outcome Outcome) error
	FailDocument(ctx context.Context, id string, reason string) error
	MarkExpired(ctx context.Context, id string) error
}

// DocumentRepository is the full record store.
type DocumentRepository interface {
	DocumentReadRepository
	DocumentWriteRepository
}
