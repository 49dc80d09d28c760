package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/robinvdvleuten/custommodel/output"
	"github.com/robinvdvleuten/custommodel/telemetry"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	LogLevel  string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"warn"`
}

// Level returns the slog level selected with --log-level.
func (g *Globals) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(g.LogLevel))); err != nil {
		return slog.LevelWarn
	}
	return level
}

// startTelemetry returns a context carrying a timing collector when telemetry
// is enabled, plus a function that ends the root timer and prints the report.
// The function is safe to call more than once.
func (g *Globals) startTelemetry(ctx context.Context, w io.Writer, name string) (context.Context, func()) {
	if !g.Telemetry {
		return ctx, func() {}
	}

	collector := telemetry.NewTimingCollector()
	ctx = telemetry.WithCollector(ctx, collector)
	timer := collector.Start(name)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			timer.End()
			_, _ = fmt.Fprintln(w)
			collector.Report(w, output.NewStyles(w))
		})
	}
}

// logger is the process logger; main configures the default.
func logger() *slog.Logger {
	return slog.Default()
}

type Commands struct {
	Globals

	Check    CheckCmd    `cmd:"" help:"Check a custom model document against a vocabulary."`
	Parse    ParseCmd    `cmd:"" help:"Parse a single condition expression."`
	Complete CompleteCmd `cmd:"" help:"Suggest what can be typed at a position of an expression."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging expressions and vocabularies."`
	Web      WebCmd      `cmd:"" help:"Start the editor backend."`
}
