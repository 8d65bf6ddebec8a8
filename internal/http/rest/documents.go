package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/italolelis/lineexpander/internal/artifact"
	"github.com/italolelis/lineexpander/internal/docx"
	"github.com/italolelis/lineexpander/internal/expander"
	"github.com/italolelis/lineexpander/internal/logctx"
	"github.com/italolelis/lineexpander/internal/notifier"
	"github.com/italolelis/lineexpander/internal/storage"
	"github.com/italolelis/lineexpander/internal/telemetry"
)

const (
	// DefaultMaxUploadSize limits request bodies when no limit is configured.
	DefaultMaxUploadSize = 20 << 20

	uploadField     = "file"
	expandedPrefix  = "expanded_"
	defaultFilename = "document.docx"
)

// UploadResponse is returned for a processed upload.
type UploadResponse struct {
	DownloadURL string `json:"download_url"`
}

// DocumentHandler accepts resumes, expands them and serves the results.
type DocumentHandler struct {
	repo          storage.DocumentRepository
	store         artifact.Store
	expander      *expander.Expander
	notifier      notifier.Notifier
	telemetry     *telemetry.Telemetry
	publicURL     string
	maxUploadSize int64
}

// Options configures a DocumentHandler.
type Options struct {
	// PublicURL prefixes the download links, e.g. http://127.0.0.1:3001.
	PublicURL     string
	MaxUploadSize int64
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(
	repo storage.DocumentRepository,
	store artifact.Store,
	exp *expander.Expander,
	notif notifier.Notifier,
	tel *telemetry.Telemetry,
	opts Options,
) *DocumentHandler {
	if notif == nil {
		notif = notifier.Nop{}
	}

	if tel == nil {
		tel = &telemetry.Telemetry{}
	}

	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}

	return &DocumentHandler{
		repo:          repo,
		store:         store,
		expander:      exp,
		notifier:      notif,
		telemetry:     tel,
		publicURL:     strings.TrimRight(opts.PublicURL, "/"),
		maxUploadSize: opts.MaxUploadSize,
	}
}

func (h *DocumentHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/upload/", h.HandleUpload)
	r.Post("/upload", h.HandleUpload)
	r.Get("/download/{filename}", h.HandleDownload)

	return r
}

// HandleUpload stores the uploaded resume, expands its shortest bullet point and answers with the
// link of the resulting document.
func (h *DocumentHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logctx.LoggerFromContext(ctx)

	if r.ContentLength > h.maxUploadSize {
		logger.WarnContext(ctx, "upload rejected", "size", humanize.Bytes(uint64(r.ContentLength)))
		writeDetail(w, r, http.StatusRequestEntityTooLarge, "File too large, the limit is "+humanize.Bytes(uint64(h.maxUploadSize)))

		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.WarnContext(ctx, "upload rejected", "limit", maxErr.Limit)
			writeDetail(w, r, http.StatusRequestEntityTooLarge, "File too large, the limit is "+humanize.Bytes(uint64(h.maxUploadSize)))

			return
		}

		logger.WarnContext(ctx, "missing file in upload", "err", err)
		writeDetail(w, r, http.StatusBadRequest, "No file part named \"file\" in the request")

		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "err", err)
		writeDetail(w, r, http.StatusBadRequest, "Failed to read the uploaded file")

		return
	}

	id := uuid.NewString()
	rec := storage.DocumentRecord{
		ID:           id,
		OriginalName: header.Filename,
		StoredName:   id + "_" + sanitizeFilename(header.Filename),
		Status:       storage.StatusReceived,
	}

	ctx, logger = logctx.With(ctx, "document_id", id, "filename", rec.OriginalName)

	logger.InfoContext(ctx, "file uploaded", "size", humanize.Bytes(uint64(len(data))))
	h.telemetry.RecordUploadSize(ctx, int64(len(data)))

	if _, err := h.store.Put(ctx, rec.StoredName, bytes.NewReader(data)); err != nil {
		logger.ErrorContext(ctx, "failed to store upload", "err", err)
		writeDetail(w, r, http.StatusInternalServerError, "Error processing file: "+err.Error())

		return
	}

	if err := h.repo.TrackDocument(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "failed to track document", "err", err)
		writeDetail(w, r, http.StatusInternalServerError, "Error processing file: "+err.Error())

		return
	}

	var outcome storage.Outcome

	err = h.telemetry.InstrumentDocument(ctx, func(ctx context.Context) (string, error) {
		var err error

		outcome, err = h.process(ctx, rec, data)

		return string(outcome.Status), err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to process document", "err", err)
		h.fail(ctx, rec, err)
		writeDetail(w, r, http.StatusInternalServerError, "Error processing file: "+err.Error())

		return
	}

	if err := h.repo.CompleteDocument(ctx, id, outcome); err != nil {
		logger.ErrorContext(ctx, "failed to complete document", "err", err)
		writeDetail(w, r, http.StatusInternalServerError, "Error processing file: "+err.Error())

		return
	}

	logger.InfoContext(ctx, "document processed", "status", outcome.Status, "artifact", outcome.ExpandedName)

	if outcome.Status == storage.StatusExpanded {
		h.notify(ctx, "✅ Expanded bullet point of "+rec.OriginalName+" ("+id+")")
	}

	writeJSON(w, r, http.StatusOK, UploadResponse{DownloadURL: h.downloadURL(outcome.ExpandedName)})
}

// process expands the document and stores the result. The returned outcome carries
// StatusFailed when err is not nil.
func (h *DocumentHandler) process(ctx context.Context, rec storage.DocumentRecord, data []byte) (storage.Outcome, error) {
	failed := storage.Outcome{Status: storage.StatusFailed}

	doc, err := docx.Parse(data)
	if err != nil {
		return failed, fmt.Errorf("error opening document: %w", err)
	}

	res, err := h.expander.Expand(ctx, doc)
	if err != nil {
		return failed, fmt.Errorf("error expanding text: %w", err)
	}

	out, err := doc.Bytes()
	if err != nil {
		return failed, fmt.Errorf("error saving the file: %w", err)
	}

	name := expandedPrefix + rec.StoredName

	if _, err := h.store.Put(ctx, name, bytes.NewReader(out)); err != nil {
		return failed, fmt.Errorf("error saving the file: %w", err)
	}

	outcome := storage.Outcome{
		Status:       storage.StatusUnchanged,
		ExpandedName: name,
		BulletText:   res.Bullet,
	}

	if res.Changed {
		outcome.Status = storage.StatusExpanded
		outcome.ExpandedText = res.Expanded
	}

	return outcome, nil
}

func (h *DocumentHandler) fail(ctx context.Context, rec storage.DocumentRecord, cause error) {
	logger := logctx.LoggerFromContext(ctx)

	if err := h.repo.FailDocument(ctx, rec.ID, cause.Error()); err != nil {
		logger.ErrorContext(ctx, "failed to mark document as failed", "err", err)
	}

	h.notify(ctx, "❌ Expansion failed for "+rec.OriginalName+" ("+rec.ID+"): "+cause.Error())
}

func (h *DocumentHandler) notify(ctx context.Context, content string) {
	if err := h.notifier.Notify(ctx, content); err != nil {
		logctx.LoggerFromContext(ctx).ErrorContext(ctx, "failed to send notification", "err", err)
	}
}

// HandleDownload streams a stored document as an attachment.
func (h *DocumentHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logctx.LoggerFromContext(ctx)
	name := chi.URLParam(r, "filename")

	if !artifact.ValidName(name) {
		logger.WarnContext(ctx, "invalid download name", "filename", name)
		writeDetail(w, r, http.StatusNotFound, "File not found")

		return
	}

	obj, err := h.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotExist) {
			writeDetail(w, r, http.StatusNotFound, "File not found")

			return
		}

		logger.ErrorContext(ctx, "failed to open artifact", "filename", name, "err", err)
		writeDetail(w, r, http.StatusInternalServerError, "Failed to read file")

		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", docx.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))

	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}

	if !obj.ModTime.IsZero() {
		w.Header().Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}

	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj); err != nil {
		logger.ErrorContext(ctx, "failed to stream artifact", "filename", name, "err", err)
	}
}

func (h *DocumentHandler) downloadURL(name string) string {
	return h.publicURL + "/download/" + url.PathEscape(name)
}

// sanitizeFilename keeps the base name of an uploaded file and replaces anything outside
// [A-Za-z0-9._-] with an underscore.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	name = strings.TrimLeft(name, ".")
	if name == "" || strings.Trim(name, "_") == "" {
		return defaultFilename
	}

	return name
}
