package widget

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/italolelis/lineexpander/internal/logctx"
	"github.com/italolelis/lineexpander/internal/upload"
)

// DocumentExtension is the only extension the picker offers.
const DocumentExtension = ".docx"

// SelectFileMsg selects a file without going through the picker.
type SelectFileMsg struct {
	File File
}

// SubmitMsg triggers a submission, same as pressing the upload key.
type SubmitMsg struct{}

// UploadDoneMsg carries the outcome of the upload started by a submission.
type UploadDoneMsg struct {
	Result *upload.Result
	Err    error
}

type styles struct {
	title    lipgloss.Style
	help     lipgloss.Style
	selected lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	link     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).MarginBottom(1),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		link:     lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Underline(true),
	}
}

// Model is the terminal rendition of the upload widget.
type Model struct {
	ctx      context.Context
	uploader Uploader

	state   State
	picker  filepicker.Model
	spinner spinner.Model
	styles  styles

	quitting bool
}

// NewModel creates the widget. ctx carries the diagnostic logger and bounds uploads;
// startDir is where the picker opens.
func NewModel(ctx context.Context, uploader Uploader, startDir string) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{DocumentExtension}
	fp.CurrentDirectory = startDir

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		uploader: uploader,
		picker:   fp,
		spinner:  sp,
		styles:   defaultStyles(),
	}
}

// State returns a copy of the current view state.
func (m Model) State() State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return m.picker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true

			return m, tea.Quit
		case "u":
			return m.submit()
		}
	case SelectFileMsg:
		m.state.Select(msg.File)

		return m, nil
	case SubmitMsg:
		return m.submit()
	case UploadDoneMsg:
		m.state.Resolve(msg.Result, msg.Err)

		return m, nil
	case spinner.TickMsg:
		if !m.state.Pending() {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		file, err := FileFromPath(path)
		if err != nil {
			logctx.LoggerFromContext(m.ctx).ErrorContext(m.ctx, "failed to stat selected file", "path", path, "err", err)
		} else {
			m.state.Select(file)
		}
	}

	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	file, ok := m.state.Begin()
	if !ok {
		return m, nil
	}

	ctx, uploader := m.ctx, m.uploader
	send := func() tea.Msg {
		result, err := Send(ctx, uploader, file)

		return UploadDoneMsg{Result: result, Err: err}
	}

	return m, tea.Batch(send, m.spinner.Tick)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.title.Render("Welcome to LineExpander"))
	b.WriteString("\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n")

	if f := m.state.SelectedFile; f != nil {
		b.WriteString(m.styles.selected.Render("Selected: " + f.Name + " (" + humanize.Bytes(uint64(f.Size)) + ")"))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.help.Render("enter: choose file • u: Upload Resume • q: quit"))
	b.WriteString("\n\n")

	switch {
	case m.state.Pending():
		b.WriteString(m.spinner.View() + " Uploading...")

		if m.state.StatusMessage == MessageBusy {
			b.WriteString("\n" + m.state.StatusMessage)
		}
	case m.state.Phase == PhaseFailed:
		b.WriteString(m.styles.failure.Render(m.state.StatusMessage))
	case m.state.Phase == PhaseSucceeded:
		b.WriteString(m.styles.success.Render(m.state.StatusMessage))
	default:
		b.WriteString(m.state.StatusMessage)
	}

	b.WriteString("\n")

	if m.state.DownloadLink != "" {
		b.WriteString("Download Expanded Resume: " + m.styles.link.Render(m.state.DownloadLink))
		b.WriteString("\n")
	}

	return b.String()
}
