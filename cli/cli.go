// Package cli implements the custommodel command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/custommodel/loader"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
	hintStyle    = lipgloss.NewStyle().Faint(true)
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

// promptSelect lets the user pick one of options.
func promptSelect(title string, options []string) (string, error) {
	var choice string

	form := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&choice)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	return choice, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// FileOrStdin accepts either a file path or "-" for stdin.
// For stdin: Filename="<stdin>", Contents populated.
// For files: Filename set, Contents read on demand.
type FileOrStdin struct {
	Filename string
	Contents []byte
}

const stdinName = "<stdin>"

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == "-" || filename == "" {
		return f.readStdin()
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	f.Contents = nil

	return nil
}

func (f *FileOrStdin) readStdin() error {
	contents, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}
	f.Filename = stdinName
	f.Contents = contents
	return nil
}

// EnsureContents populates Contents from stdin if Filename is empty.
func (f *FileOrStdin) EnsureContents() error {
	if f.Filename == "" {
		return f.readStdin()
	}
	return nil
}

// IsStdin reports whether the input came from stdin.
func (f *FileOrStdin) IsStdin() bool {
	return f.Filename == stdinName
}

// Read returns the current content, re-reading files from disk.
func (f *FileOrStdin) Read() ([]byte, error) {
	if f.IsStdin() {
		return f.Contents, nil
	}
	return os.ReadFile(f.Filename)
}

// AbsoluteFilename returns the absolute path, or "<stdin>" for stdin.
func (f *FileOrStdin) AbsoluteFilename() string {
	if f.IsStdin() {
		return f.Filename
	}
	absPath, err := filepath.Abs(f.Filename)
	if err != nil {
		return f.Filename
	}
	return absPath
}

// VocabularyFlags selects the vocabulary expressions are checked against.
type VocabularyFlags struct {
	Vocabulary     string `help:"Vocabulary file with categories and areas (YAML or JSON)." short:"V" required:"" type:"existingfile"`
	FollowIncludes bool   `help:"Also load the files listed under 'include' in the vocabulary."`
}

func (f *VocabularyFlags) load(ctx context.Context) (*loader.Result, error) {
	opts := []loader.Option{loader.WithLogger(logger())}
	if f.FollowIncludes {
		opts = append(opts, loader.WithFollowIncludes())
	}
	return loader.New(opts...).Load(ctx, f.Vocabulary)
}
