// Package errors provides error formatting for custom model diagnostics.
// It separates presentation from the validator and the parser, allowing
// diagnostics to be rendered in multiple formats for different consumers
// (CLI, web UI, API).
//
// The package defines a Formatter interface and provides two implementations:
//   - TextFormatter: source excerpts with a caret run under the offending range
//   - JSONFormatter: structured JSON with byte ranges and line/column positions
//
// Domain error types remain in their respective packages (document, parser);
// this package only locates and renders them.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/robinvdvleuten/custommodel/completion"
	"github.com/robinvdvleuten/custommodel/document"
	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/robinvdvleuten/custommodel/source"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// Option configures a formatter.
type Option func(*settings)

type settings struct {
	filename string
	source   []byte
	index    *source.Index
}

// WithSource sets the text the error ranges refer to. Without it, errors are
// rendered without context or positions.
func WithSource(src []byte) Option {
	return func(s *settings) {
		s.source = src
		s.index = source.NewIndex(string(src))
	}
}

// WithFilename sets the name printed in front of positions.
func WithFilename(filename string) Option {
	return func(s *settings) {
		s.filename = filename
	}
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// located is the common view on errors that refer to a range of the source.
type located struct {
	path        string
	message     string
	span        source.Span
	completions []string
}

func locate(err error) (located, bool) {
	switch e := err.(type) {
	case document.Error:
		return located{path: e.Path, message: e.Message, span: e.Span, completions: e.Completions}, true
	case *document.Error:
		return located{path: e.Path, message: e.Message, span: e.Span, completions: e.Completions}, true
	case *parser.SyntaxError:
		return located{message: e.Message, span: e.Span, completions: e.Completions}, true
	}
	return located{}, false
}

// DiagnosticErrors converts diagnostics to plain errors for FormatAll.
func DiagnosticErrors(diagnostics []document.Error) []error {
	errs := make([]error, len(diagnostics))
	for i, d := range diagnostics {
		errs[i] = d
	}
	return errs
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	settings
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...Option) *TextFormatter {
	return &TextFormatter{settings: newSettings(opts)}
}

// Format formats a single error. Located errors get a position header, the
// surrounding source lines and a caret run when the source is known.
func (tf *TextFormatter) Format(err error) string {
	loc, ok := locate(err)
	if !ok {
		return err.Error()
	}

	var buf bytes.Buffer
	if tf.index != nil {
		pos := tf.index.Position(loc.span.Start)
		pos.Filename = tf.filename
		buf.WriteString(pos.String())
		buf.WriteString(": ")
	} else if tf.filename != "" {
		buf.WriteString(tf.filename)
		buf.WriteString(": ")
	}
	if loc.path != "" {
		buf.WriteString(loc.path)
		buf.WriteString(": ")
	}
	buf.WriteString(loc.message)

	if tf.index != nil {
		buf.WriteString("\n\n")
		tf.writeSourceContext(&buf, loc.span)
	}
	if expected := expectedList(loc.completions); expected != "" {
		if tf.index == nil {
			buf.WriteByte('\n')
		}
		buf.WriteString("   expected: ")
		buf.WriteString(expected)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		// Add blank line between errors (but not after the last one)
		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// writeSourceContext shows the lines around span, two before and one after,
// with a caret run under the part of span on its first line.
func (tf *TextFormatter) writeSourceContext(buf *bytes.Buffer, span source.Span) {
	text := string(tf.source)
	pos := tf.index.Position(span.Start)

	first := max(pos.Line-2, 1)
	last := min(pos.Line+1, tf.index.LineCount())
	for line := first; line <= last; line++ {
		lineText := tf.index.LineText(line)
		buf.WriteString("   ")
		buf.WriteString(lineText)
		buf.WriteByte('\n')

		if line != pos.Line {
			continue
		}
		lineSpan := tf.index.Line(line)
		end := min(span.End, lineSpan.End)
		before := text[lineSpan.Start:min(span.Start, lineSpan.End)]
		marked := ""
		if end > span.Start {
			marked = text[span.Start:end]
		}

		buf.WriteString("   ")
		buf.WriteString(strings.Repeat(" ", runewidth.StringWidth(before)))
		buf.WriteString(strings.Repeat("^", max(runewidth.StringWidth(marked), 1)))
		buf.WriteByte('\n')
	}
}

// expectedList renders completions for humans. Hints are shown as text.
func expectedList(completions []string) string {
	items := make([]string, len(completions))
	for i, c := range completions {
		if completion.IsHint(c) {
			items[i] = "<" + completion.HintText(c) + ">"
			continue
		}
		items[i] = c
	}
	return strings.Join(items, ", ")
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct {
	settings
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts ...Option) *JSONFormatter {
	return &JSONFormatter{settings: newSettings(opts)}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type        string        `json:"type"`
	Message     string        `json:"message"`
	Path        string        `json:"path,omitempty"`
	Range       *source.Span  `json:"range,omitempty"`
	Position    *PositionJSON `json:"position,omitempty"`
	Completions []string      `json:"completions,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	errJSON := jf.toJSON(err)
	data, _ := json.Marshal(errJSON)
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	jsonErrors := jf.FormatAllToSlice(errs)
	data, _ := json.MarshalIndent(jsonErrors, "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

// toJSON converts an error to ErrorJSON.
func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	loc, ok := locate(err)
	if !ok {
		return errJSON
	}
	errJSON.Message = loc.message
	errJSON.Path = loc.path
	errJSON.Range = &loc.span
	errJSON.Completions = loc.completions

	if jf.index != nil {
		pos := jf.index.Position(loc.span.Start)
		errJSON.Position = &PositionJSON{
			Filename: jf.filename,
			Line:     pos.Line,
			Column:   pos.Column,
		}
	}
	return errJSON
}
