package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/italolelis/lineexpander/internal/logctx"
)

// LocalStore keeps artifacts as files in a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir when needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return filepath.Join(s.dir, name), nil
}

// Put writes to a temporary file first so readers never see a partial artifact.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	logger := logctx.LoggerFromContext(ctx).With("artifact", name)

	path, err := s.path(name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		logger.ErrorContext(ctx, "failed to create temporary file", "err", err)

		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		logger.ErrorContext(ctx, "failed to write artifact", "err", err)

		return n, fmt.Errorf("failed to write artifact %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return n, fmt.Errorf("failed to close artifact %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		logger.ErrorContext(ctx, "failed to move artifact into place", "err", err)

		return n, fmt.Errorf("failed to store artifact %s: %w", name, err)
	}

	return n, nil
}

func (s *LocalStore) Open(_ context.Context, name string) (*Object, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
		}

		return nil, fmt.Errorf("failed to open artifact %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("failed to stat artifact %s: %w", name, err)
	}

	if info.IsDir() {
		f.Close()

		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}

	return &Object{ReadCloser: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact %s: %w", name, err)
	}

	return nil
}
