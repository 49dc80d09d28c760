// Package completion suggests tokens for a cursor position in a condition
// expression.
//
// Suggestions are never derived from a second, partial grammar. The engine
// inserts a single placeholder rune at the cursor, runs the real parser over
// the modified text and harvests the completions of the first error, provided
// that error sits exactly on the placeholder token.
package completion

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/robinvdvleuten/custommodel/source"
)

// DefaultPlaceholder stands in for whatever is being typed at the cursor.
const DefaultPlaceholder = '…'

// Result holds the suggestions for a cursor position and the byte range they
// replace. Range is nil iff Suggestions is empty.
type Result struct {
	Suggestions []string     `json:"suggestions"`
	Range       *source.Span `json:"range"`
}

// Empty reports whether there is nothing to suggest.
func (r Result) Empty() bool {
	return len(r.Suggestions) == 0
}

// Shift moves the replacement range by delta bytes.
func (r Result) Shift(delta int) Result {
	if r.Range != nil {
		shifted := r.Range.Shift(delta)
		r.Range = &shifted
	}
	return r
}

// Engine computes completions using a fixed placeholder rune.
type Engine struct {
	placeholder string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlaceholder sets the rune inserted at the cursor. It must not be
// whitespace or a character the tokenizer treats as a symbol.
func WithPlaceholder(r rune) Option {
	return func(e *Engine) {
		e.placeholder = string(r)
	}
}

// New creates an Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{placeholder: string(DefaultPlaceholder)}
	for _, opt := range opts {
		opt(e)
	}

	r, _ := utf8.DecodeRuneInString(e.placeholder)
	if r == utf8.RuneError || unicode.IsSpace(r) || strings.ContainsRune(parser.SymbolRunes, r) {
		return nil, fmt.Errorf("invalid placeholder %q", e.placeholder)
	}
	return e, nil
}

var defaultEngine = &Engine{placeholder: string(DefaultPlaceholder)}

// Complete computes suggestions with the default placeholder.
func Complete(expression string, pos int, vocab parser.Vocabulary) Result {
	return defaultEngine.Complete(expression, pos, vocab)
}

// Complete returns the suggestions for the cursor at byte offset pos.
// Positions past the end of expression behave as if it was padded with spaces.
func (e *Engine) Complete(expression string, pos int, vocab parser.Vocabulary) Result {
	if pos < 0 {
		return Result{Suggestions: []string{}}
	}
	if pos >= len(strings.TrimRightFunc(expression, unicode.IsSpace)) {
		return e.completeAtEnd(expression, pos, vocab)
	}
	return e.completeInside(expression, pos, vocab)
}

// completeAtEnd handles a cursor behind the last non-whitespace character.
func (e *Engine) completeAtEnd(expression string, pos int, vocab parser.Vocabulary) Result {
	if len(expression) < pos {
		expression += strings.Repeat(" ", pos-len(expression))
	}
	text := expression[:pos] + e.placeholder

	tok, _ := parser.TokenAtPos(text, pos)
	return e.harvest(text, vocab, tok.Start, text[tok.Start:pos], source.Span{Start: tok.Start, End: pos})
}

// completeInside handles a cursor within a token or within whitespace that is
// followed by more tokens.
func (e *Engine) completeInside(expression string, pos int, vocab parser.Vocabulary) Result {
	orig, _ := parser.TokenAtPos(expression, pos)
	if orig != nil {
		text := expression[:orig.Start] + e.placeholder + expression[orig.End:]
		tok, _ := parser.TokenAtPos(text, orig.Start)
		return e.harvest(text, vocab, tok.Start, expression[orig.Start:pos], source.Span{Start: tok.Start, End: orig.End})
	}

	text := expression[:pos] + e.placeholder + expression[pos:]
	tok, _ := parser.TokenAtPos(text, pos)
	return e.harvest(text, vocab, tok.Start, text[tok.Start:pos], source.Span{Start: tok.Start, End: pos})
}

// harvest parses text and keeps the completions of its first error when that
// error starts at tokenStart.
func (e *Engine) harvest(text string, vocab parser.Vocabulary, tokenStart int, partial string, replace source.Span) Result {
	serr, ok := parser.Parse(text, vocab).(*parser.SyntaxError)
	if !ok || serr.Span.Start != tokenStart {
		return Result{Suggestions: []string{}}
	}

	suggestions := Filter(serr.Completions, partial)
	if len(suggestions) == 0 {
		return Result{Suggestions: suggestions}
	}
	return Result{Suggestions: suggestions, Range: &replace}
}

// Filter keeps the candidates starting with prefix, case-sensitively.
// Hints are filtered the same way, so a typed prefix normally drops them.
func Filter(candidates []string, prefix string) []string {
	matches := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}

// IsHint reports whether a completion explains what to type rather than
// being insertable text.
func IsHint(completion string) bool {
	return strings.HasPrefix(completion, parser.HintPrefix)
}

// HintText strips the hint marker.
func HintText(completion string) string {
	return strings.TrimPrefix(completion, parser.HintPrefix)
}
