package parser

import "github.com/robinvdvleuten/custommodel/source"

// TokenType represents the type of token scanned from an expression.
type TokenType uint8

const (
	// Special tokens
	EOF TokenType = iota

	// Literals
	WORD // category names, values, numbers, in_<area>, true/false

	// Symbols
	LPAREN // (
	RPAREN // )
	AND    // &&
	OR     // ||
	EQ     // ==
	NEQ    // !=
	LT     // <
	LTE    // <=
	GT     // >
	GTE    // >=
)

var tokenNames = map[TokenType]string{
	EOF:  "EOF",
	WORD: "WORD",

	LPAREN: "(",
	RPAREN: ")",
	AND:    "&&",
	OR:     "||",
	EQ:     "==",
	NEQ:    "!=",
	LT:     "<",
	LTE:    "<=",
	GT:     ">",
	GTE:    ">=",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Two-character symbols are matched before one-character symbols.
var (
	doubleSymbols = map[string]TokenType{
		"||": OR,
		"&&": AND,
		"==": EQ,
		"!=": NEQ,
		"<=": LTE,
		">=": GTE,
	}
	singleSymbols = map[byte]TokenType{
		'(': LPAREN,
		')': RPAREN,
		'<': LT,
		'>': GT,
	}
)

// SymbolRunes lists every character that can start a symbol token.
const SymbolRunes = "|&=!<>()"

// Token is a lexical unit of an expression together with its byte range.
type Token struct {
	Text  string
	Start int // Byte offset into the expression
	End   int // End offset (exclusive)
}

// Type classifies the token text.
func (t Token) Type() TokenType {
	if typ, ok := doubleSymbols[t.Text]; ok {
		return typ
	}
	if len(t.Text) == 1 {
		if typ, ok := singleSymbols[t.Text[0]]; ok {
			return typ
		}
	}
	return WORD
}

// Span returns the byte range of the token.
func (t Token) Span() source.Span {
	return source.Span{Start: t.Start, End: t.End}
}

// Len returns the length of the token in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}

// Texts returns the text of every token.
func Texts(tokens []Token) []string {
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	return texts
}
