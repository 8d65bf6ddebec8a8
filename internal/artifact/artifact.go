// Package artifact stores the uploaded and expanded documents.
package artifact

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	// ErrNotExist is returned when an artifact cannot be found.
	ErrNotExist = errors.New("artifact does not exist")
	// ErrInvalidName is returned for names that could escape the store.
	ErrInvalidName = errors.New("invalid artifact name")
)

// Object is an opened artifact. Callers must close it.
type Object struct {
	io.ReadCloser

	Size    int64
	ModTime time.Time
}

// Store keeps artifacts under flat names.
type Store interface {
	// Put stores r under name, replacing any previous artifact, and returns the bytes written.
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open returns ErrNotExist when there is no artifact named name.
	Open(ctx context.Context, name string) (*Object, error)
	// Delete removes the artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, name string) error
}

// ValidName reports whether name can be used as an artifact name: non-empty, no path separators
// and not a relative path element.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
