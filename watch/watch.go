// Package watch reports changes to a set of files. Editors often save in
// several steps (write to a temporary file, rename over the original), so the
// parent directories are watched and bursts of events are debounced into a
// single notification.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches files for writes, creations, removals and renames.
type Watcher struct {
	Debounce time.Duration
	Logger   *slog.Logger

	fs    *fsnotify.Watcher
	files map[string]bool
	dirs  map[string]bool
}

// New creates a Watcher for files. Paths are made absolute.
func New(files ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		Debounce: DefaultDebounce,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		fs:       fs,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	if err := w.Set(files); err != nil {
		_ = fs.Close()
		return nil, err
	}
	return w, nil
}

// Set replaces the watched files. It must not be called concurrently with a
// running Run; use the return value of the change callback instead.
func (w *Watcher) Set(files []string) error {
	wanted := make(map[string]bool, len(files))
	dirs := make(map[string]bool, len(files))
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for %s: %w", file, err)
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range w.dirs {
		if !dirs[dir] {
			_ = w.fs.Remove(dir)
		}
	}
	for dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.files = wanted
	w.dirs = dirs
	return nil
}

// Run blocks until ctx is done, calling onChange once per burst of changes to
// the watched files. A non-nil result of onChange replaces the watched files.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context) []string) error {
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			w.Logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			pending = time.After(w.Debounce)

		case <-pending:
			pending = nil
			if files := onChange(ctx); files != nil {
				if err := w.Set(files); err != nil {
					w.Logger.Warn("failed to update watched files", "error", err)
				}
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("file watcher error", "error", err)
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
