// Package telemetry provides hierarchical timing collection for checks,
// completions and reloads.
//
// Collectors travel through context so instrumented code never needs to know
// whether timing is enabled. Without a collector every call is a no-op.
//
// Example usage:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.Start(ctx, "check model.yaml")
//	vocab := timer.Child("load vocabulary")
//	// ... work ...
//	vocab.End()
//	timer.End()
//
//	collector.Report(os.Stderr, nil)
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/custommodel/output"
)

type contextKey struct{}

var collectorKey = contextKey{}

// Collector is the main interface for collecting telemetry data.
type Collector interface {
	// Start begins timing an operation and returns a Timer.
	// The timer should be ended with End() when the operation completes.
	Start(name string) Timer

	// Report writes the collected timings to w. Styles are optional.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation's timing.
// Timers support hierarchical nesting via Child().
type Timer interface {
	// End stops the timer and records the duration.
	End()

	// Child creates a nested timer under this timer.
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext extracts the collector from context.
// If no collector is present, returns a collector that does nothing.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// Start is shorthand for FromContext(ctx).Start(name).
func Start(ctx context.Context, name string) Timer {
	return FromContext(ctx).Start(name)
}
