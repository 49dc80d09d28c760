package document

import (
	"strconv"
	"strings"

	"github.com/robinvdvleuten/custommodel/source"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// tree recovers byte spans for yaml.v3 nodes, which only record where a node
// starts. Ends are found by scanning the source text.
type tree struct {
	text  string
	index *source.Index
	spans map[*yaml.Node]source.Span
}

func newTree(text string) *tree {
	return &tree{
		text:  text,
		index: source.NewIndex(text),
		spans: make(map[*yaml.Node]source.Span),
	}
}

func (t *tree) start(n *yaml.Node) int {
	return t.index.Offset(n.Line, n.Column)
}

// span returns the byte range of n. Empty null scalars have no extent in the
// source and yield an empty span at their reported start.
func (t *tree) span(n *yaml.Node) source.Span {
	if s, ok := t.spans[n]; ok {
		return s
	}
	start := t.start(n)
	s := source.Span{Start: start, End: start}

	switch {
	case n.Kind == yaml.AliasNode:
		s.End = t.wordsEnd(start, "*"+n.Value)
	case n.Kind == yaml.ScalarNode:
		s.End = t.scalarEnd(start, n)
	case n.Style&yaml.FlowStyle != 0:
		if i := strings.IndexAny(t.text[start:], "[{"); i >= 0 {
			s.End = t.closingBracket(start + i)
		}
	default:
		s.End = t.blockEnd(n, start)
	}

	t.spans[n] = s
	return s
}

func (t *tree) scalarEnd(start int, n *yaml.Node) int {
	switch {
	case n.Style&yaml.DoubleQuotedStyle != 0:
		if i := strings.IndexByte(t.text[start:], '"'); i >= 0 {
			return t.skipDoubleQuoted(start+i) + 1
		}
	case n.Style&yaml.SingleQuotedStyle != 0:
		if i := strings.IndexByte(t.text[start:], '\''); i >= 0 {
			return t.skipSingleQuoted(start+i) + 1
		}
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		end := t.wordsEnd(start, n.Value)
		if end == start {
			end = start + 1 // just the indicator
		}
		return end
	}
	return t.wordsEnd(start, n.Value)
}

// wordsEnd finds the end of value in the source starting at from. Scalar
// values are folded and unescaped by the parser, so the words are matched one
// by one.
func (t *tree) wordsEnd(from int, value string) int {
	end := from
	for _, word := range strings.Fields(value) {
		i := strings.Index(t.text[end:], word)
		if i < 0 {
			break
		}
		end += i + len(word)
	}
	return end
}

// blockEnd is the end of the last child of a block collection.
func (t *tree) blockEnd(n *yaml.Node, start int) int {
	end := start
	for i, child := range n.Content {
		var s source.Span
		switch {
		case isEmptyNull(child) && n.Kind == yaml.MappingNode && i%2 == 1:
			s = t.span(n.Content[i-1])
		case isEmptyNull(child) && n.Kind == yaml.SequenceNode:
			s = t.itemSpan(n, i)
		default:
			s = t.span(child)
		}
		end = max(end, s.End)
	}
	return end
}

// itemSpan returns the span of the i-th item in a sequence. Empty items are
// located by their '-' indicator.
func (t *tree) itemSpan(seq *yaml.Node, i int) source.Span {
	item := seq.Content[i]
	if !isEmptyNull(item) || seq.Style&yaml.FlowStyle != 0 {
		return t.span(item)
	}
	from := t.start(seq)
	if i > 0 {
		from = t.itemSpan(seq, i-1).End
	}
	for j := from; j < len(t.text); j++ {
		switch t.text[j] {
		case '#':
			j = t.lineEnd(j)
		case '-':
			return source.Span{Start: j, End: j + 1}
		}
	}
	return t.span(item)
}

// closingBracket returns the offset just past the bracket matching the one at
// open.
func (t *tree) closingBracket(open int) int {
	depth := 0
	for i := open; i < len(t.text); i++ {
		switch c := t.text[i]; c {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"':
			if t.startsScalar(i) {
				i = t.skipDoubleQuoted(i)
			}
		case '\'':
			if t.startsScalar(i) {
				i = t.skipSingleQuoted(i)
			}
		case '#':
			if i > 0 && (t.text[i-1] == ' ' || t.text[i-1] == '\t') {
				i = t.lineEnd(i)
			}
		}
	}
	return len(t.text)
}

// startsScalar reports whether a quote at i opens a quoted scalar rather than
// being part of a plain one.
func (t *tree) startsScalar(i int) bool {
	if i == 0 {
		return true
	}
	return strings.IndexByte("[{,: \t\n\r", t.text[i-1]) >= 0
}

func (t *tree) skipDoubleQuoted(open int) int {
	for i := open + 1; i < len(t.text); i++ {
		switch t.text[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(t.text) - 1
}

func (t *tree) skipSingleQuoted(open int) int {
	for i := open + 1; i < len(t.text); i++ {
		if t.text[i] == '\'' {
			if i+1 < len(t.text) && t.text[i+1] == '\'' {
				i++
				continue
			}
			return i
		}
	}
	return len(t.text) - 1
}

func (t *tree) lineEnd(i int) int {
	if nl := strings.IndexByte(t.text[i:], '\n'); nl >= 0 {
		return i + nl
	}
	return len(t.text)
}

// valueSpan is the span of the text a scalar stands for: quotes and block
// scalar headers are excluded.
func (t *tree) valueSpan(n *yaml.Node) source.Span {
	s := t.span(n)
	switch {
	case n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
		if i := strings.IndexAny(t.text[s.Start:s.End], `"'`); i >= 0 && s.End-1 > s.Start+i {
			return source.Span{Start: s.Start + i + 1, End: s.End - 1}
		}
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		if words := strings.Fields(n.Value); len(words) > 0 {
			header := t.lineEnd(s.Start)
			if i := strings.Index(t.text[header:s.End], words[0]); i >= 0 {
				return source.Span{Start: header + i, End: s.End}
			}
		}
	}
	return s
}

// display returns the value of a scalar, or the source text of a collection.
func (t *tree) display(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	return t.span(n).Text(t.text)
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isEmptyNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" && n.Value == "" && n.Style&yaml.TaggedStyle == 0
}

func isNull(n *yaml.Node) bool {
	n = resolve(n)
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func isObject(n *yaml.Node) bool {
	return resolve(n).Kind == yaml.MappingNode
}

func isList(n *yaml.Node) bool {
	return resolve(n).Kind == yaml.SequenceNode
}

func isBoolean(n *yaml.Node) bool {
	n = resolve(n)
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!bool"
}

func isNumber(n *yaml.Node) bool {
	_, ok := numberValue(n)
	return ok
}

func isString(n *yaml.Node) bool {
	n = resolve(n)
	return n.Kind == yaml.ScalarNode && !isNull(n) && !isBoolean(n) && !isNumber(n)
}

// isPlain reports whether n is an unquoted, non-block scalar.
func isPlain(n *yaml.Node) bool {
	n = resolve(n)
	const quoted = yaml.DoubleQuotedStyle | yaml.SingleQuotedStyle | yaml.LiteralStyle | yaml.FoldedStyle
	return n.Kind == yaml.ScalarNode && n.Style&quoted == 0
}

func numberValue(n *yaml.Node) (decimal.Decimal, bool) {
	n = resolve(n)
	if n.Kind != yaml.ScalarNode {
		return decimal.Zero, false
	}
	plain := strings.ReplaceAll(n.Value, "_", "")
	switch n.ShortTag() {
	case "!!int":
		if i, err := strconv.ParseInt(plain, 0, 64); err == nil {
			return decimal.NewFromInt(i), true
		}
		if strings.HasPrefix(plain, "0o") {
			if i, err := strconv.ParseInt(plain[2:], 8, 64); err == nil {
				return decimal.NewFromInt(i), true
			}
		}
		d, err := decimal.NewFromString(plain)
		return d, err == nil
	case "!!float":
		d, err := decimal.NewFromString(plain)
		return d, err == nil
	}
	return decimal.Zero, false
}

func displayType(n *yaml.Node) string {
	switch {
	case isNull(n):
		return "null"
	case isObject(n):
		return "object"
	case isList(n):
		return "list"
	case isBoolean(n):
		return "boolean"
	case isNumber(n):
		return "number"
	default:
		return "string"
	}
}
