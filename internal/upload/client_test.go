package upload_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/italolelis/lineexpander/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_SendsMultipartFilePart(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/", r.URL.Path)

		file, header, err := r.FormFile(upload.FieldName)
		require.NoError(t, err)
		defer file.Close()

		body, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "resume.docx", header.Filename)
		assert.Equal(t, "docx bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"download_url": "https://x/y.docx"}`)
	}))
	defer ts.Close()

	client := upload.NewClient(ts.URL + "/upload/")

	result, err := client.Upload(context.Background(), "resume.docx", strings.NewReader("docx bytes"))
	require.NoError(t, err)
	assert.True(t, result.HasDownload())
	assert.Equal(t, "https://x/y.docx", result.DownloadURL)
}

func TestUpload_Responses(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		body         string
		wantURL      string
		wantStatus   int
		wantDecode   bool
		wantDownload bool
	}{
		{"download url", http.StatusOK, `{"download_url": "https://x/y.docx"}`, "https://x/y.docx", 0, false, true},
		{"empty object", http.StatusOK, `{}`, "", 0, false, false},
		{"created", http.StatusCreated, `{"download_url": "https://x/z.docx"}`, "https://x/z.docx", 0, false, true},
		{"server error", http.StatusInternalServerError, `{"detail": "boom"}`, "", http.StatusInternalServerError, false, false},
		{"not found", http.StatusNotFound, `not json`, "", http.StatusNotFound, false, false},
		{"malformed json", http.StatusOK, `{"download_url":`, "", 0, true, false},
		{"non json body", http.StatusOK, `<html></html>`, "", 0, true, false},
		{"trailing garbage", http.StatusOK, `{"download_url":"https://x/y.docx"} trailing-garbage`, "", 0, true, false},
		{"extra closing brace", http.StatusOK, `{}}`, "", 0, true, false},
		{"two objects", http.StatusOK, `{} {}`, "", 0, true, false},
		{"null", http.StatusOK, `null`, "", 0, true, false},
		{"array", http.StatusOK, `[]`, "", 0, true, false},
		{"string", http.StatusOK, `"https://x/y.docx"`, "", 0, true, false},
		{"trailing newline", http.StatusOK, "{\"download_url\":\"https://x/n.docx\"}\n", "https://x/n.docx", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			result, err := upload.NewClient(ts.URL).Upload(context.Background(), "cv.docx", strings.NewReader("x"))

			switch {
			case tt.wantStatus != 0:
				var statusErr *upload.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
				assert.Nil(t, result)
			case tt.wantDecode:
				var decodeErr *upload.DecodeError
				require.ErrorAs(t, err, &decodeErr)
				assert.Nil(t, result)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, result.DownloadURL)
				assert.Equal(t, tt.wantDownload, result.HasDownload())
			}
		})
	}
}

func TestUpload_NullBodyIsNotAnObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "null")
	}))
	defer ts.Close()

	result, err := upload.NewClient(ts.URL).Upload(context.Background(), "cv.docx", strings.NewReader("x"))
	require.ErrorIs(t, err, upload.ErrNotObject)
	assert.Nil(t, result)

	var decodeErr *upload.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "application/json", decodeErr.ContentType)
}

func TestUpload_FollowsRedirectWithBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/upload/", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/upload/", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile(upload.FieldName)
		require.NoError(t, err)
		assert.Equal(t, "cv.docx", header.Filename)

		fmt.Fprint(w, `{"download_url": "https://x/redirected.docx"}`)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	result, err := upload.NewClient(ts.URL+"/upload").Upload(context.Background(), "cv.docx", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://x/redirected.docx", result.DownloadURL)
}

func TestUpload_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL
	ts.Close()

	_, err := upload.NewClient(endpoint).Upload(context.Background(), "cv.docx", strings.NewReader("x"))
	require.Error(t, err)

	var statusErr *upload.StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestUploadFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile(upload.FieldName)
		require.NoError(t, err)
		assert.Equal(t, "resume.docx", header.Filename)

		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	path := filepath.Join(t.TempDir(), "resume.docx")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

	result, err := upload.NewClient(ts.URL).UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, result.HasDownload())

	_, err = upload.NewClient(ts.URL).UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.docx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStatusError_Error(t *testing.T) {
	err := &upload.StatusError{StatusCode: 500}
	assert.Equal(t, "HTTP error! Status: 500", err.Error())
}
