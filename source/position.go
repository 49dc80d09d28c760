// Package source holds the coordinate types shared by the expression parser,
// the completion engine and the document validator.
//
// All offsets are byte offsets into the text they were computed from. Spans are
// half-open: Start is inclusive, End is exclusive.
package source

import (
	"fmt"
)

// Position represents a location in a source text.
type Position struct {
	Filename string
	Offset   int // Byte offset
	Line     int // Line number (1-indexed)
	Column   int // Column number in runes (1-indexed)
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// GoString returns a Go-syntax representation of the position.
func (p Position) GoString() string {
	return fmt.Sprintf("Position{Filename: %q, Offset: %d, Line: %d, Column: %d}", p.Filename, p.Offset, p.Line, p.Column)
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// NewSpan is shorthand for Span{Start: start, End: end}.
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether pos lies inside the span, excluding End.
func (s Span) Contains(pos int) bool {
	return s.Start <= pos && pos < s.End
}

// Touches reports whether pos lies inside the span or on either edge.
func (s Span) Touches(pos int) bool {
	return s.Start <= pos && pos <= s.End
}

// Shift moves the span by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// Text extracts the text covered by the span.
// Returns empty string if the span does not fit into text.
func (s Span) Text(text string) string {
	if s.Start < 0 || s.End < s.Start || s.End > len(text) {
		return ""
	}
	return text[s.Start:s.End]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d]", s.Start, s.End)
}

// MarshalJSON encodes the span as a two element array.
func (s Span) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "[%d,%d]", s.Start, s.End), nil
}
