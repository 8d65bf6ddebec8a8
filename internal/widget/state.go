// Package widget holds the upload widget: a view-state record with explicit transitions
// and a terminal front end built on bubbletea.
package widget

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/italolelis/lineexpander/internal/logctx"
	"github.com/italolelis/lineexpander/internal/upload"
)

const (
	MessageSelectFirst = "Please select a file first."
	MessageSuccess     = "File processed successfully! You can download it below."
	MessageFailure     = "Error uploading file."
	MessageBusy        = "Upload already in progress."
)

// Phase is the coarse lifecycle of the widget.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// File is a document chosen by the user.
type File struct {
	Name string
	Path string
	Size int64
}

// Open returns the document content.
func (f File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// FileFromPath builds a File from a filesystem path.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}

	return File{Name: filepath.Base(path), Path: path, Size: info.Size()}, nil
}

// Uploader is the network side of a submission.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*upload.Result, error)
}

// State is the widget's view state. The zero value is the initial state.
type State struct {
	SelectedFile  *File
	StatusMessage string
	DownloadLink  string
	Phase         Phase
}

// Pending reports whether a submission is in flight.
func (s State) Pending() bool {
	return s.Phase == PhasePending
}

// Select overwrites the selected file. Selection is allowed at any time, including while
// a submission is pending; the in-flight request keeps the file it was started with.
func (s *State) Select(f File) {
	file := f
	s.SelectedFile = &file
}

// Begin validates a submission attempt. It returns the file to send and true when the
// caller must perform the upload; otherwise the state already carries the message to show.
func (s *State) Begin() (File, bool) {
	if s.Pending() {
		s.StatusMessage = MessageBusy

		return File{}, false
	}

	if s.SelectedFile == nil {
		s.StatusMessage = MessageSelectFirst

		return File{}, false
	}

	s.Phase = PhasePending

	return *s.SelectedFile, true
}

// Resolve applies the outcome of the upload started by Begin. Any error collapses to the
// generic failure text; the caller is responsible for logging it.
func (s *State) Resolve(result *upload.Result, err error) {
	if err != nil {
		s.Phase = PhaseFailed
		s.StatusMessage = MessageFailure

		return
	}

	s.Phase = PhaseSucceeded
	s.StatusMessage = MessageSuccess

	if result.HasDownload() {
		s.DownloadLink = result.DownloadURL
	}
}

// Submit runs a whole submission synchronously: validation, upload, resolution.
func (s *State) Submit(ctx context.Context, u Uploader) {
	file, ok := s.Begin()
	if !ok {
		return
	}

	s.Resolve(Send(ctx, u, file))
}

// Send uploads file with u. Failures to open the file are logged here, upload failures by u.
func Send(ctx context.Context, u Uploader, file File) (*upload.Result, error) {
	logger := logctx.LoggerFromContext(ctx).With("filename", file.Name)

	content, err := file.Open()
	if err != nil {
		logger.ErrorContext(ctx, "Error uploading file", "err", err)

		return nil, err
	}
	defer content.Close()

	return u.Upload(ctx, file.Name, content)
}
