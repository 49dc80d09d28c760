package source

import (
	"sort"
	"unicode/utf8"
)

// Index maps byte offsets to line and column positions and back.
type Index struct {
	text  string
	lines []int // byte offset of the first byte of every line
}

// NewIndex builds the line table for text.
func NewIndex(text string) *Index {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Index{text: text, lines: lines}
}

// LineCount returns the number of lines, counting a trailing empty line.
func (x *Index) LineCount() int {
	return len(x.lines)
}

// Position converts a byte offset into a position. Offsets outside the text
// are clamped.
func (x *Index) Position(offset int) Position {
	offset = max(0, min(offset, len(x.text)))
	line := sort.Search(len(x.lines), func(i int) bool { return x.lines[i] > offset }) - 1
	column := utf8.RuneCountInString(x.text[x.lines[line]:offset]) + 1
	return Position{Offset: offset, Line: line + 1, Column: column}
}

// Offset converts a 1-indexed line and rune column into a byte offset.
// Columns past the end of the line resolve to the end of the line.
func (x *Index) Offset(line, column int) int {
	if line < 1 {
		return 0
	}
	if line > len(x.lines) {
		return len(x.text)
	}
	span := x.Line(line)
	pos := span.Start
	for col := 1; col < column && pos < span.End; col++ {
		_, size := utf8.DecodeRuneInString(x.text[pos:])
		pos += size
	}
	return pos
}

// Line returns the span of a 1-indexed line without its line terminator.
func (x *Index) Line(line int) Span {
	if line < 1 || line > len(x.lines) {
		return Span{Start: len(x.text), End: len(x.text)}
	}
	start := x.lines[line-1]
	end := len(x.text)
	if line < len(x.lines) {
		end = x.lines[line] - 1
	}
	if end > start && x.text[end-1] == '\r' {
		end--
	}
	return Span{Start: start, End: end}
}

// LineText returns the text of a 1-indexed line without its line terminator.
func (x *Index) LineText(line int) string {
	return x.Line(line).Text(x.text)
}
