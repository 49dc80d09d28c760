package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/custommodel/document"
	errfmt "github.com/robinvdvleuten/custommodel/errors"
	"github.com/robinvdvleuten/custommodel/telemetry"
	"github.com/robinvdvleuten/custommodel/watch"
)

type CheckCmd struct {
	VocabularyFlags

	File   FileOrStdin `help:"Custom model document (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Format string      `help:"Output format (${enum})." enum:"text,json" default:"text" short:"f"`
	Watch  bool        `help:"Check again whenever the document or the vocabulary changes." short:"w"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	if cmd.Watch {
		if cmd.File.IsStdin() {
			return fmt.Errorf("--watch needs a document file, not stdin")
		}
		return cmd.watch(ctx, globals)
	}

	runCtx, report := globals.startTelemetry(context.Background(), ctx.Stderr,
		fmt.Sprintf("check %s", filepath.Base(cmd.File.Filename)))
	defer report()

	_, err := cmd.check(runCtx, ctx.Stdout, ctx.Stderr)
	return err
}

// check runs a single check and returns the files it depended on.
func (cmd *CheckCmd) check(ctx context.Context, stdout, stderr io.Writer) ([]string, error) {
	files := []string{cmd.File.AbsoluteFilename(), cmd.Vocabulary}

	loadTimer := telemetry.Start(ctx, fmt.Sprintf("check.load_vocabulary %s", filepath.Base(cmd.Vocabulary)))
	vocab, err := cmd.load(ctx)
	loadTimer.End()
	if err != nil {
		printError(stderr, err.Error())
		return files, NewCommandError(1)
	}
	files = append(files[:1], vocab.Files()...)

	text, err := cmd.File.Read()
	if err != nil {
		return files, fmt.Errorf("failed to read document: %w", err)
	}

	checkTimer := telemetry.Start(ctx, "check.document")
	report := document.Check(string(text), vocab.Vocabulary.Categories)
	checkTimer.End()

	logger().Debug("checked document",
		"file", cmd.File.Filename,
		"conditions", len(report.Conditions),
		"diagnostics", len(report.Diagnostics))

	if cmd.Format == "json" {
		formatter := errfmt.NewJSONFormatter(errfmt.WithSource(text), errfmt.WithFilename(cmd.File.Filename))
		_, _ = fmt.Fprintln(stdout, formatter.FormatAll(errfmt.DiagnosticErrors(report.Diagnostics)))
		if len(report.Diagnostics) > 0 {
			return files, NewCommandError(1)
		}
		return files, nil
	}

	if len(report.Diagnostics) > 0 {
		renderer := NewErrorRenderer(text, cmd.File.Filename)
		_, _ = fmt.Fprintln(stderr, renderer.RenderAll(errfmt.DiagnosticErrors(report.Diagnostics)))
		_, _ = fmt.Fprintln(stderr)
		printError(stderr, fmt.Sprintf("%d error(s) found", len(report.Diagnostics)))
		return files, NewCommandError(1)
	}

	printSuccess(stdout, fmt.Sprintf("Check passed (%d condition(s))", len(report.Conditions)))
	return files, nil
}

func (cmd *CheckCmd) watch(ctx *kong.Context, globals *Globals) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := cmd.check(runCtx, ctx.Stdout, ctx.Stderr)
	if _, failed := err.(*CommandError); err != nil && !failed {
		return err
	}

	w, err := watch.New(files...)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	w.Logger = logger()

	printInfof(ctx.Stdout, "Watching %s for changes", pathStyle.Render(cmd.File.Filename))

	return w.Run(runCtx, func(changeCtx context.Context) []string {
		_, _ = fmt.Fprintln(ctx.Stdout)
		checkCtx, report := globals.startTelemetry(changeCtx, ctx.Stderr, "check")
		defer report()

		files, err := cmd.check(checkCtx, ctx.Stdout, ctx.Stderr)
		if _, failed := err.(*CommandError); err != nil && !failed {
			printError(ctx.Stderr, err.Error())
		}
		return files
	})
}
