package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/lineexpander/internal/logctx"
	"github.com/italolelis/lineexpander/internal/progress"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// FieldName is the multipart part that carries the document.
	FieldName = "file"

	// DefaultEndpoint is where the backend listens when nothing else is configured.
	DefaultEndpoint = "http://127.0.0.1:3001/upload/"

	maxErrorBody     = 4 * 1024
	progressInterval = 256 * 1024
)

// Result is the JSON object returned by the processing endpoint.
type Result struct {
	DownloadURL string `json:"download_url,omitempty"`
}

// HasDownload reports whether the server offered a download location.
func (r *Result) HasDownload() bool {
	return r != nil && r.DownloadURL != ""
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds the whole request. Zero keeps the request unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client posting to endpoint. Redirects are followed with the
// standard library policy, 307/308 included, since the body can be replayed.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoint returns the address documents are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// UploadFile opens path and uploads its content under its base name.
func (c *Client) UploadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return c.Upload(ctx, filepath.Base(path), f)
}

// Upload sends content as a multipart/form-data POST with a single "file" part and
// decodes the JSON answer.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*Result, error) {
	logger := logctx.LoggerFromContext(ctx).With("endpoint", c.endpoint, "filename", filename)

	payload, contentType, err := encodeForm(filename, content)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build multipart body", "err", err)

		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create request", "err", err)

		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	size := int64(len(payload))
	newBody := func() io.ReadCloser {
		return io.NopCloser(progress.NewReader(bytes.NewReader(payload), size, progressInterval, func(sent, total int64) {
			logger.DebugContext(ctx, "upload progress",
				"sent", humanize.Bytes(uint64(sent)),
				"total", humanize.Bytes(uint64(total)),
			)
		}))
	}

	req.Body = newBody()
	req.GetBody = func() (io.ReadCloser, error) { return newBody(), nil }
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	logger.InfoContext(ctx, "uploading document", "size", humanize.Bytes(uint64(size)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "failed to send upload request", "err", err)

		return nil, fmt.Errorf("failed to send upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.ErrorContext(ctx, "non-2xx response", "status", resp.StatusCode, "body", string(b))

		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		logger.ErrorContext(ctx, "decode error", "err", err)

		return nil, &DecodeError{ContentType: resp.Header.Get("Content-Type"), Err: err}
	}

	logger.InfoContext(ctx, "document uploaded", "has_download", result.HasDownload())

	return result, nil
}

// decodeResult requires the whole body to be a single JSON object.
func decodeResult(body io.Reader) (*Result, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}

	if fields == nil {
		return nil, ErrNotObject
	}

	var result Result
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func encodeForm(filename string, content io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(FieldName, filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("failed to read document: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}
