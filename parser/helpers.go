package parser

import (
	"fmt"

	"github.com/robinvdvleuten/custommodel/source"
)

// Helper methods for token navigation

func (p *Parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() string {
	if p.pos == 0 {
		return ""
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) check(texts ...string) bool {
	if p.isAtEnd() {
		return false
	}
	for _, text := range texts {
		if p.tokens[p.pos] == text {
			return true
		}
	}
	return false
}

func (p *Parser) match(texts ...string) bool {
	if p.check(texts...) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) advance() string {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

// Error helpers

func (p *Parser) errorAt(start, end int, completions []string, format string, args ...any) error {
	end = min(end, len(p.tokens))
	start = min(start, end)
	return &SyntaxError{
		Message:     fmt.Sprintf(format, args...),
		Tokens:      source.Span{Start: start, End: end},
		Completions: append(make([]string, 0, len(completions)), completions...),
	}
}
