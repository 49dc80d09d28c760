// Package output styles terminal output with ANSI colours. Styles fall back
// to plain text when the writer is not a colour terminal, so the same code
// path serves pipes, files and tests.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// ANSI colour indexes.
const (
	red     = "1"
	yellow  = "3"
	magenta = "5"
	cyan    = "6"
)

// Styles renders text for one writer.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates Styles for w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

func (s *Styles) color(text, color string) termenv.Style {
	return s.output.String(text).Foreground(s.output.Color(color))
}

// FilePath styles a file name (cyan).
func (s *Styles) FilePath(text string) string {
	return s.color(text, cyan).String()
}

// Category styles a category name (bold).
func (s *Styles) Category(text string) string {
	return s.Keyword(text)
}

// Value styles an allowed enum value (magenta).
func (s *Styles) Value(text string) string {
	return s.color(text, magenta).String()
}

// Area styles an area reference such as in_city (yellow).
func (s *Styles) Area(text string) string {
	return s.color(text, yellow).String()
}

// Keyword styles a name that introduces a line (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim styles secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Timing styles a duration. Slow operations are red, the rest is dimmed.
func (s *Styles) Timing(text string, slow bool) string {
	if slow {
		return s.color(text, red).String()
	}
	return s.Dim(text)
}
