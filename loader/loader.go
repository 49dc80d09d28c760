// Package loader reads vocabulary files: the categories and extra area names
// that condition expressions are checked against.
//
// A vocabulary file is YAML (or JSON, which is valid YAML):
//
//	include: [shared.yaml]
//	categories:
//	  road_class: {type: enum, values: [MOTORWAY, PRIMARY]}
//	  max_weight: {type: numeric}
//	  get_off_bike: {type: boolean}
//	areas: [city]
//
// Every file is checked against an embedded JSON Schema before it is
// converted. Categories keep the order in which they are declared, so
// completion lists follow the file.
//
// The loader supports two modes of operation:
//   - Simple mode: only the given file is read and include lists are ignored
//   - Follow mode: included files are loaded recursively and merged
//
// Example usage:
//
//	ldr := loader.New(loader.WithFollowIncludes())
//	result, err := ldr.Load(ctx, "vocabulary.yaml")
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robinvdvleuten/custommodel/parser"
	"golang.org/x/exp/slices"
)

// Loader reads vocabulary files with optional include resolution.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithFollowIncludes())
type Loader struct {
	// FollowIncludes determines whether included files are loaded and
	// merged. When false, includes are only listed in the result.
	FollowIncludes bool

	logger *slog.Logger
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFollowIncludes configures the loader to recursively load and merge all
// included files. Relative paths are resolved from the directory of the
// including file and files included more than once are loaded once.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// WithLogger sets the logger used to report loaded files.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is a loaded vocabulary.
type Result struct {
	Vocabulary parser.Vocabulary

	// Root is the absolute path of the loaded file.
	Root string

	// Includes are the absolute paths of the included files that were
	// loaded. It is empty unless includes are followed.
	Includes []string
}

// Files returns the root and every included file, for watching.
func (r *Result) Files() []string {
	return append([]string{r.Root}, r.Includes...)
}

// Load reads filename and, in follow mode, everything it includes. The
// merged vocabulary is validated before it is returned.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	root, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	state := &loaderState{
		loader:  l,
		visited: make(map[string]bool),
		result:  &Result{Root: root, Includes: []string{}},
	}
	if err := state.load(ctx, root); err != nil {
		return nil, err
	}

	if err := state.result.Vocabulary.Validate(); err != nil {
		return nil, &Error{Filename: root, Err: err}
	}
	return state.result, nil
}

// loaderState tracks state during recursive loading.
type loaderState struct {
	loader  *Loader
	visited map[string]bool // Absolute paths of files already loaded
	result  *Result
}

func (s *loaderState) load(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.visited[path] {
		return nil
	}
	s.visited[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	file, err := Parse(path, data)
	if err != nil {
		return err
	}
	s.loader.logger.Debug("loaded vocabulary file", "path", path, "categories", len(file.Categories), "includes", len(file.Includes))

	vocab := &s.result.Vocabulary
	vocab.Categories = append(vocab.Categories, file.Categories...)
	for _, area := range file.Areas {
		if !slices.Contains(vocab.Areas, area) {
			vocab.Areas = append(vocab.Areas, area)
		}
	}

	if !s.loader.FollowIncludes {
		return nil
	}

	baseDir := filepath.Dir(path)
	for _, inc := range file.Includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(baseDir, inc)
		}
		if !slices.Contains(s.result.Includes, inc) && inc != s.result.Root {
			s.result.Includes = append(s.result.Includes, inc)
		}
		if err := s.load(ctx, inc); err != nil {
			return fmt.Errorf("in file %s: %w", path, err)
		}
	}
	return nil
}
