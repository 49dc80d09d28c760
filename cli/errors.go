package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/custommodel/completion"
	"github.com/robinvdvleuten/custommodel/document"
	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/robinvdvleuten/custommodel/source"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	source   string
	filename string
	index    *source.Index
}

// NewErrorRenderer creates a renderer with source content for context.
func NewErrorRenderer(src []byte, filename string) *ErrorRenderer {
	r := &ErrorRenderer{filename: filename}
	if src != nil {
		r.source = string(src)
		r.index = source.NewIndex(r.source)
	}
	return r
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	switch e := err.(type) {
	case document.Error:
		return r.render(e.Path, e.Message, e.Span, e.Completions)
	case *document.Error:
		return r.render(e.Path, e.Message, e.Span, e.Completions)
	case *parser.SyntaxError:
		return r.render("", e.Message, e.Span, e.Completions)
	}
	return errorStyle.Render(err.Error())
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) render(path, message string, span source.Span, completions []string) string {
	var buf strings.Builder

	if r.index != nil {
		pos := r.index.Position(span.Start)
		pos.Filename = r.filename
		buf.WriteString(pathStyle.Render(pos.String()))
		buf.WriteString(": ")
	}
	if path != "" {
		buf.WriteString(hintStyle.Render(path))
		buf.WriteString(": ")
	}
	buf.WriteString(errorStyle.Render(message))

	if r.index != nil {
		buf.WriteString("\n\n")
		r.writeSourceContext(&buf, span)
	}

	if len(completions) > 0 {
		if r.index == nil {
			buf.WriteByte('\n')
		}
		buf.WriteString("   expected: ")
		buf.WriteString(displayCompletions(completions))
	}

	return strings.TrimRight(buf.String(), "\n")
}

func (r *ErrorRenderer) writeSourceContext(buf *strings.Builder, span source.Span) {
	pos := r.index.Position(span.Start)

	first := max(1, pos.Line-2)
	last := min(r.index.LineCount(), pos.Line+1)
	for line := first; line <= last; line++ {
		text := r.index.Line(line).Text(r.source)
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(text))
		buf.WriteByte('\n')

		if line != pos.Line {
			continue
		}

		lineSpan := r.index.Line(line)
		end := min(span.End, lineSpan.End)
		indent := runewidth.StringWidth(r.source[lineSpan.Start:pos.Offset])
		width := max(1, runewidth.StringWidth(r.source[pos.Offset:max(end, pos.Offset)]))

		buf.WriteString("   ")
		buf.WriteString(strings.Repeat(" ", indent))
		buf.WriteString(errCaretStyle.Render(strings.Repeat("^", width)))
		buf.WriteByte('\n')
	}
}

// displayCompletions joins completions for humans, showing hints as <text>.
func displayCompletions(completions []string) string {
	display := make([]string, len(completions))
	for i, c := range completions {
		if completion.IsHint(c) {
			display[i] = fmt.Sprintf("<%s>", completion.HintText(c))
		} else {
			display[i] = c
		}
	}
	return strings.Join(display, ", ")
}
