package document

import (
	"github.com/robinvdvleuten/custommodel/completion"
	"github.com/robinvdvleuten/custommodel/parser"
)

// Report is a validation result together with the diagnostics an editor
// should display for it.
type Report struct {
	*Result

	// Diagnostics holds the schema errors if there are any. Otherwise it
	// holds the YAML syntax errors followed by the errors of every
	// condition, in document coordinates.
	Diagnostics []Error `json:"diagnostics"`
}

// Check validates text and parses every condition against categories and
// the areas the document declares.
func Check(text string, categories []parser.Category) *Report {
	result := Validate(text)
	report := &Report{Result: result, Diagnostics: []Error{}}
	if len(result.Errors) > 0 {
		report.Diagnostics = append(report.Diagnostics, result.Errors...)
		return report
	}

	report.Diagnostics = append(report.Diagnostics, result.SyntaxErrors...)
	vocab := parser.Vocabulary{Categories: categories, Areas: result.AreaNames}
	for _, c := range result.Conditions {
		switch err := parser.Parse(c.Span.Text(text), vocab).(type) {
		case *parser.SyntaxError:
			report.Diagnostics = append(report.Diagnostics, Error{
				Path:        c.Path,
				Message:     err.Message,
				Span:        err.Span.Shift(c.Span.Start),
				Completions: err.Completions,
			})
		case *parser.VocabularyError:
			report.Diagnostics = append(report.Diagnostics, Error{Path: c.Path, Message: err.Message, Span: c.Span})
		}
	}
	return report
}

// CompleteAt computes completions for the cursor at offset in text. The
// cursor must be inside or at the edge of a condition; the returned range is
// in document coordinates. A nil engine uses the default placeholder.
func CompleteAt(text string, offset int, categories []parser.Category, engine *completion.Engine) completion.Result {
	result := Validate(text)
	for _, c := range result.Conditions {
		if !c.Span.Touches(offset) {
			continue
		}
		vocab := parser.Vocabulary{Categories: categories, Areas: result.AreaNames}
		expression := c.Span.Text(text)
		if engine == nil {
			return completion.Complete(expression, offset-c.Span.Start, vocab).Shift(c.Span.Start)
		}
		return engine.Complete(expression, offset-c.Span.Start, vocab).Shift(c.Span.Start)
	}
	return completion.Result{Suggestions: []string{}}
}
