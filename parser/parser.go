// Package parser checks boolean condition expressions such as
//
//	road_class == MOTORWAY && max_weight < 3 || in_urban
//
// against a vocabulary of categories and areas supplied per call.
//
// Grammar:
//
//	expression    := comparison (logicOp comparison)*
//	comparison    := enumCat comparator value
//	               | numericCat numComparator number
//	               | boolean
//	               | boolCat (comparator boolean)?
//	               | 'in_'area (comparator boolean)?
//	               | '(' expression ')'
//	logicOp       := '&&' | '||'
//	comparator    := '==' | '!='
//	numComparator := '<' | '<=' | '>' | '>=' | '==' | '!='
//
// Expressions are only checked, never evaluated. Both logic operators chain
// left to right without precedence. Parsing stops at the first error, which
// carries the offending token range and the tokens that would have been
// accepted there.
package parser

import (
	"github.com/robinvdvleuten/custommodel/source"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

var (
	logicOps       = []string{"||", "&&"}
	comparators    = []string{"==", "!="}
	numComparators = []string{"<", "<=", ">", ">=", "==", "!="}
	booleans       = []string{"true", "false"}
)

// Parser checks one token sequence. It holds the cursor for a single parse and
// must not be reused or shared.
type Parser struct {
	tokens []string
	pos    int
	*lookup
}

// NewParser validates the vocabulary and prepares a parser for tokens.
func NewParser(tokens []string, vocab Vocabulary) (*Parser, error) {
	if err := vocab.Validate(); err != nil {
		return nil, err
	}
	return &Parser{tokens: tokens, lookup: newLookup(vocab)}, nil
}

// ParseTokens checks a token sequence. It returns nil for a valid expression,
// a *VocabularyError when vocab is unusable, or a *SyntaxError describing the
// first problem.
func ParseTokens(tokens []string, vocab Vocabulary) error {
	p, err := NewParser(tokens, vocab)
	if err != nil {
		return err
	}
	return p.Parse()
}

// Parse tokenizes expression and checks it. A returned *SyntaxError also
// carries the byte range of the offending tokens.
func Parse(expression string, vocab Vocabulary) error {
	tokens := Tokenize(expression)
	err := ParseTokens(Texts(tokens), vocab)
	if serr, ok := err.(*SyntaxError); ok {
		serr.Span = byteSpan(tokens, serr.Tokens, len(expression))
	}
	return err
}

// Parse runs the grammar from the first token.
func (p *Parser) Parse() error {
	if err := p.expression(); err != nil {
		return err
	}
	if !p.isAtEnd() {
		return p.errorAt(p.pos, p.pos+1, logicOps, "unexpected token '%s'", p.peek())
	}
	return nil
}

func (p *Parser) expression() error {
	if err := p.comparison(); err != nil {
		return err
	}
	for p.match(logicOps...) {
		if p.isAtEnd() {
			return p.errorAt(p.pos-1, p.pos, nil, "unexpected token '%s'", p.previous())
		}
		if err := p.comparison(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) comparison() error {
	if p.isAtEnd() {
		return p.errorAt(p.pos, p.pos, nil, "empty comparison")
	}

	tok := p.peek()
	if c, ok := p.categories[tok]; ok {
		switch c.Kind {
		case KindEnum:
			return p.triple(comparators, c.Values, func(v string) bool {
				return slices.Contains(c.Values, v)
			})
		case KindNumeric:
			return p.triple(numComparators, []string{NumberHint}, isNumber)
		default:
			return p.optionalComparison()
		}
	}

	switch {
	case isBoolean(tok):
		p.advance()
		return nil
	case isAreaReference(tok):
		return p.area()
	case tok == "(":
		return p.group()
	case p.areas[tok]:
		return p.errorAt(p.pos, p.pos+1, p.inAreas, "area names must be prefixed with 'in_'")
	default:
		return p.errorAt(p.pos, p.pos+1, p.lefts, "unexpected token '%s'", tok)
	}
}

// triple parses `name comparator value`.
func (p *Parser) triple(ops, values []string, valid func(string) bool) error {
	start := p.pos
	p.advance()
	if p.isAtEnd() {
		return p.errorAt(start, start+1, nil, "invalid comparison. missing operator.")
	}
	return p.comparisonTail(start, ops, values, valid)
}

// comparisonTail parses `comparator value` after the name at start.
func (p *Parser) comparisonTail(start int, ops, values []string, valid func(string) bool) error {
	if !slices.Contains(ops, p.peek()) {
		return p.errorAt(p.pos, p.pos+1, ops, "invalid operator '%s'", p.peek())
	}
	p.advance()
	if p.isAtEnd() {
		return p.errorAt(start, start+2, nil, "invalid comparison. missing value.")
	}
	if !valid(p.peek()) {
		return p.errorAt(p.pos, p.pos+1, values, "invalid %s: '%s'", p.tokens[start], p.peek())
	}
	p.advance()
	return nil
}

// optionalComparison parses a boolean operand with an optional
// `comparator boolean` suffix.
func (p *Parser) optionalComparison() error {
	start := p.pos
	p.advance()
	if p.check(comparators...) {
		return p.comparisonTail(start, comparators, booleans, isBoolean)
	}
	return nil
}

func (p *Parser) area() error {
	name := p.peek()[len(areaPrefix):]
	if !p.areas[name] {
		return p.errorAt(p.pos, p.pos+1, p.inAreas, "unknown area: '%s'", name)
	}
	return p.optionalComparison()
}

func (p *Parser) group() error {
	open := p.pos
	p.advance()
	if p.isAtEnd() {
		return p.errorAt(open, p.pos, nil, "unmatched opening '('")
	}
	if err := p.expression(); err != nil {
		return err
	}
	if !p.match(")") {
		return p.errorAt(open, p.pos, nil, "unmatched opening '('")
	}
	return nil
}

func isBoolean(tok string) bool {
	return tok == "true" || tok == "false"
}

func isNumber(tok string) bool {
	_, err := decimal.NewFromString(tok)
	return err == nil
}

// byteSpan translates a token index range into a byte range. Indexes past the
// last token resolve to the end of the expression.
func byteSpan(tokens []Token, r source.Span, length int) source.Span {
	start := length
	if r.Start < len(tokens) {
		start = tokens[r.Start].Start
	}
	if r.End <= r.Start {
		return source.Span{Start: start, End: start}
	}
	end := length
	if r.End-1 < len(tokens) {
		end = tokens[r.End-1].End
	}
	return source.Span{Start: start, End: end}
}
