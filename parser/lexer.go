package parser

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/robinvdvleuten/custommodel/source"
)

// Lexer splits an expression into tokens.
//
// Whitespace separates tokens and is never emitted. Symbols end the current
// word, so "a==a1" yields three tokens. Any other run of characters forms a
// single word token.
type Lexer struct {
	source string // Expression text
	pos    int    // Current byte position
	start  int    // Start of the pending word, -1 if none
	tokens []Token
}

// NewLexer creates a new lexer for the given expression.
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		start:  -1,
		tokens: make([]Token, 0, len(source)/2+1),
	}
}

// ScanAll lexes the entire expression and returns all tokens.
// This is a single-pass scanner with no backtracking.
func (l *Lexer) ScanAll() []Token {
	for l.pos < len(l.source) {
		r, size := utf8.DecodeRuneInString(l.source[l.pos:])

		switch {
		case unicode.IsSpace(r):
			l.flushWord()
			l.pos += size

		case l.pos+1 < len(l.source) && doubleSymbols[l.source[l.pos:l.pos+2]] != EOF:
			l.flushWord()
			l.emit(l.pos, l.pos+2)
			l.pos += 2

		case singleSymbols[l.source[l.pos]] != EOF:
			l.flushWord()
			l.emit(l.pos, l.pos+1)
			l.pos++

		default:
			if l.start < 0 {
				l.start = l.pos
			}
			l.pos += size
		}
	}
	l.flushWord()
	return l.tokens
}

func (l *Lexer) flushWord() {
	if l.start < 0 {
		return
	}
	l.emit(l.start, l.pos)
	l.start = -1
}

func (l *Lexer) emit(start, end int) {
	if start == end {
		return
	}
	l.tokens = append(l.tokens, Token{Text: l.source[start:end], Start: start, End: end})
}

// Tokenize splits text into tokens.
func Tokenize(text string) []Token {
	return NewLexer(text).ScanAll()
}

// TokenAtPos returns the token covering pos. When pos falls into whitespace
// the token is nil and the span is the gap between the neighbouring tokens,
// bounded by 0 and len(text) at the ends.
//
// It panics unless 0 <= pos < len(text).
func TokenAtPos(text string, pos int) (*Token, source.Span) {
	if pos < 0 || pos >= len(text) {
		panic(fmt.Sprintf("parser: position %d out of range [0, %d)", pos, len(text)))
	}

	gapStart := 0
	for _, tok := range Tokenize(text) {
		if tok.Start > pos {
			return nil, source.Span{Start: gapStart, End: tok.Start}
		}
		if pos < tok.End {
			return &tok, tok.Span()
		}
		gapStart = tok.End
	}
	return nil, source.Span{Start: gapStart, End: len(text)}
}
