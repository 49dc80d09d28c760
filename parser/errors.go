package parser

import (
	"fmt"

	"github.com/robinvdvleuten/custommodel/source"
)

// HintPrefix marks a completion that explains what to type instead of being
// insertable text.
const HintPrefix = "__hint__"

// NumberHint is offered where a numeric value is expected.
const NumberHint = HintPrefix + "type a number"

// SyntaxError is the first grammar violation found in an expression.
type SyntaxError struct {
	Message string

	// Tokens is the half-open range of token indexes the error refers to.
	// {len(tokens), len(tokens)} means input ended where more was expected.
	Tokens source.Span

	// Span is the half-open byte range inside the expression. It is only
	// populated by Parse, which knows the token offsets.
	Span source.Span

	// Completions lists the tokens that would be accepted at Tokens.Start.
	// Never nil.
	Completions []string
}

func (e *SyntaxError) Error() string {
	return e.Message
}

// VocabularyError reports categories or areas that cannot be used for parsing.
// It is independent of the expression and applies to the whole input.
type VocabularyError struct {
	Message string
}

func (e *VocabularyError) Error() string {
	return e.Message
}

func newVocabularyError(format string, args ...any) *VocabularyError {
	return &VocabularyError{Message: fmt.Sprintf(format, args...)}
}
