package widget_test

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/italolelis/lineexpander/internal/upload"
	"github.com/italolelis/lineexpander/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m tea.Model, msg tea.Msg) (widget.Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	wm, ok := next.(widget.Model)
	require.True(t, ok)

	return wm, cmd
}

// runUpload executes the batch returned by a submission and returns the upload outcome.
func runUpload(t *testing.T, cmd tea.Cmd) widget.UploadDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	for _, c := range batch {
		if c == nil {
			continue
		}

		if done, ok := c().(widget.UploadDoneMsg); ok {
			return done
		}
	}

	t.Fatal("no upload command in batch")

	return widget.UploadDoneMsg{}
}

func uploadKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")}
}

func TestModel_SubmitWithoutFile(t *testing.T) {
	u := &mockUploader{}
	m := widget.NewModel(context.Background(), u, t.TempDir())

	m, cmd := update(t, m, uploadKey())

	assert.Nil(t, cmd)
	assert.Equal(t, widget.MessageSelectFirst, m.State().StatusMessage)
	assert.Contains(t, m.View(), widget.MessageSelectFirst)
	assert.Zero(t, u.calls)
}

func TestModel_SubmitSuccess(t *testing.T) {
	u := &mockUploader{result: &upload.Result{DownloadURL: "https://x/y.docx"}}
	m := widget.NewModel(context.Background(), u, t.TempDir())

	m, _ = update(t, m, widget.SelectFileMsg{File: writeDocument(t, "cv.docx", "docx")})
	assert.Contains(t, m.View(), "Selected: cv.docx")

	m, cmd := update(t, m, uploadKey())
	assert.True(t, m.State().Pending())
	assert.Contains(t, m.View(), "Uploading...")

	done := runUpload(t, cmd)
	m, _ = update(t, m, done)

	assert.Equal(t, widget.MessageSuccess, m.State().StatusMessage)
	assert.Equal(t, "https://x/y.docx", m.State().DownloadLink)
	assert.Contains(t, m.View(), "Download Expanded Resume")
	assert.Equal(t, 1, u.calls)
}

func TestModel_EnterDoesNotUpload(t *testing.T) {
	u := &mockUploader{result: &upload.Result{}}
	m := widget.NewModel(context.Background(), u, t.TempDir())

	m, _ = update(t, m, widget.SelectFileMsg{File: writeDocument(t, "cv.docx", "docx")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, widget.PhaseIdle, m.State().Phase)
	assert.Contains(t, m.View(), "u: Upload Resume")
	assert.Zero(t, u.calls)
}

func TestModel_PendingRejectsSecondSubmit(t *testing.T) {
	u := &mockUploader{result: &upload.Result{}}
	m := widget.NewModel(context.Background(), u, t.TempDir())

	m, _ = update(t, m, widget.SelectFileMsg{File: writeDocument(t, "cv.docx", "docx")})
	m, first := update(t, m, widget.SubmitMsg{})
	require.NotNil(t, first)

	m, second := update(t, m, widget.SubmitMsg{})
	assert.Nil(t, second)
	assert.Equal(t, widget.MessageBusy, m.State().StatusMessage)
	assert.Contains(t, m.View(), widget.MessageBusy)

	m, _ = update(t, m, runUpload(t, first))
	assert.Equal(t, widget.MessageSuccess, m.State().StatusMessage)
	assert.Empty(t, m.State().DownloadLink)
	assert.Equal(t, 1, u.calls)
}

func TestModel_UploadFailure(t *testing.T) {
	u := &mockUploader{err: errors.New("connection refused")}
	m := widget.NewModel(context.Background(), u, t.TempDir())

	m, _ = update(t, m, widget.SelectFileMsg{File: writeDocument(t, "cv.docx", "docx")})
	m, cmd := update(t, m, widget.SubmitMsg{})
	m, _ = update(t, m, runUpload(t, cmd))

	assert.Equal(t, widget.PhaseFailed, m.State().Phase)
	assert.Equal(t, widget.MessageFailure, m.State().StatusMessage)
	assert.NotContains(t, m.View(), "Download Expanded Resume")
}

func TestModel_Quit(t *testing.T) {
	m := widget.NewModel(context.Background(), &mockUploader{}, t.TempDir())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
