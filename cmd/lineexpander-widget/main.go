package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/italolelis/lineexpander/internal/config"
	"github.com/italolelis/lineexpander/internal/logctx"
	"github.com/italolelis/lineexpander/internal/upload"
	"github.com/italolelis/lineexpander/internal/widget"
	"github.com/spf13/cobra"
)

var version = "dev"

// errSubmissionFailed makes the process exit non-zero after the status was printed.
var errSubmissionFailed = errors.New("submission failed")

type options struct {
	endpoint string
	timeout  time.Duration
	file     string
	logFile  string
	dir      string
	level    slog.Level
}

func main() {
	cfg, err := config.LoadWidgetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(1)
	}

	if err := rootCmd(cfg).Execute(); err != nil {
		if !errors.Is(err, errSubmissionFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}

		os.Exit(1)
	}
}

func rootCmd(cfg *config.WidgetConfig) *cobra.Command {
	opts := options{level: cfg.SlogLevel()}

	cmd := &cobra.Command{
		Use:   "lineexpander-widget",
		Short: "Upload a .docx resume and get back the expanded version",
		Long: `Pick a .docx document, send it to the line expander service and show the link
of the processed document.

Without --file an interactive picker opens: navigate with the arrow keys, choose a
file with enter, upload it with "u" and quit with "q". With --file the document is
uploaded right away and the outcome is printed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.file != "" {
				return runHeadless(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
			}

			return runInteractive(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.endpoint, "endpoint", cfg.Endpoint, "upload endpoint of the line expander service")
	flags.DurationVar(&opts.timeout, "timeout", cfg.Timeout, "upper bound for the whole upload, 0 means none")
	flags.StringVarP(&opts.file, "file", "f", "", "upload this document without opening the picker")
	flags.StringVar(&opts.logFile, "log-file", filepath.Join(os.TempDir(), "lineexpander-widget.log"), "diagnostic log of the interactive mode")
	flags.StringVar(&opts.dir, "dir", cwd, "directory the picker opens in")

	return cmd
}

func newUploader(opts options) *upload.Client {
	return upload.NewClient(opts.endpoint, upload.WithTimeout(opts.timeout))
}

// runHeadless submits opts.file once and prints the resulting status and link.
func runHeadless(ctx context.Context, stdout, stderr io.Writer, opts options) error {
	logger := slog.New(logctx.NewContextHandler(
		slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: opts.level}),
	))
	ctx = logctx.WithLogger(ctx, logger)

	var state widget.State

	file, err := widget.FileFromPath(opts.file)
	if err != nil {
		logger.ErrorContext(ctx, "Error uploading file", "filename", opts.file, "err", err)
		state.Resolve(nil, err)
	} else {
		state.Select(file)
		state.Submit(ctx, newUploader(opts))
	}

	fmt.Fprintln(stdout, state.StatusMessage)

	if state.DownloadLink != "" {
		fmt.Fprintln(stdout, state.DownloadLink)
	}

	if state.Phase != widget.PhaseSucceeded {
		return errSubmissionFailed
	}

	return nil
}

// runInteractive opens the terminal widget. Logs go to opts.logFile because the terminal
// belongs to the program.
func runInteractive(ctx context.Context, stdout io.Writer, opts options) error {
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	logger := slog.New(logctx.NewContextHandler(
		slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.level}),
	))
	ctx = logctx.WithLogger(ctx, logger)

	logger.InfoContext(ctx, "widget starting", "endpoint", opts.endpoint, "version", version)

	p := tea.NewProgram(widget.NewModel(ctx, newUploader(opts), opts.dir), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.ErrorContext(ctx, "widget stopped", "err", err)

		return fmt.Errorf("failed to run widget: %w", err)
	}

	if m, ok := final.(widget.Model); ok && m.State().DownloadLink != "" {
		fmt.Fprintln(stdout, m.State().DownloadLink)
	}

	return nil
}
