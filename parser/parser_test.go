package parser

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/custommodel/source"
)

var testVocabulary = Vocabulary{
	Categories: []Category{
		{Name: "a", Kind: KindEnum, Values: []string{"a1", "a2", "a3"}},
		{Name: "b", Kind: KindEnum, Values: []string{"b1", "b2"}},
		{Name: "num1", Kind: KindNumeric},
		{Name: "num2", Kind: KindNumeric},
		{Name: "bool1", Kind: KindBoolean},
		{Name: "bool2", Kind: KindBoolean},
	},
	Areas: []string{"area1", "area2", "area3"},
}

var (
	allowedLefts = []string{
		"a", "b", "num1", "num2", "bool1", "bool2",
		"in_area1", "in_area2", "in_area3",
		"true", "false",
	}
	inAreas = []string{"in_area1", "in_area2", "in_area3"}
	aValues = []string{"a1", "a2", "a3"}
	bValues = []string{"b1", "b2"}
	logic   = []string{"||", "&&"}
	eqOps   = []string{"==", "!="}
	bools   = []string{"true", "false"}
	none    = []string{}
)

func toks(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, " ")
}

func TestParseTokensValid(t *testing.T) {
	tests := []string{
		"a == a1",
		"b == b2",
		"a != a1",
		"num1 <= 0.8",
		"num2 == 0.8",
		"num2 > -0.8",
		"num1 < 0.8",
		"num1 >= 1e3",
		"( num2 > 0.6 )",
		"bool1 != true",
		"bool2 == false",
		"( a == a1 )",
		"( ( a != a1 ) )",
		"in_area1",
		"( in_area1 )",
		"in_area2 == true",
		"( in_area1 != false )",
		"true",
		"( false )",
		"bool1",
		"( bool2 )",
		"a == a1 && b == b1",
		"a == a1 || b == b1 && a != a2",
		"a == a1 || ( b == b1 ) && a != a2",
		"in_area3 && a == a1",
		"b != b1 || in_area3",
		"b != b1 || in_area2 != true",
		"bool1 == false && bool2 || bool1",
		"a == a1 && ( b == b1 || a != a1 )",
		"a == a1 && ( b == b1 || a != a1 ) || b != b2",
	}

	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			assert.NoError(t, ParseTokens(toks(tt), testVocabulary))
		})
	}
}

func TestParseTokensInvalid(t *testing.T) {
	tests := []struct {
		tokens      string
		message     string
		start, end  int
		completions []string
	}{
		{"", "empty comparison", 0, 0, none},
		{"a != b c", "invalid a: 'b'", 2, 3, aValues},
		{"( a != b1 )", "invalid a: 'b1'", 3, 4, aValues},
		{"b != a3", "invalid b: 'a3'", 2, 3, bValues},
		{"a == 404", "invalid a: '404'", 2, 3, aValues},
		{"a ==", "invalid comparison. missing value.", 0, 2, none},
		{"a", "invalid comparison. missing operator.", 0, 1, none},
		{"a = a1", "invalid operator '='", 1, 2, eqOps},
		{"404 == a1", "unexpected token '404'", 0, 1, allowedLefts},
		{"( a == a1", "unmatched opening '('", 0, 4, none},
		{"( a == a1 ) )", "unexpected token ')'", 5, 6, logic},
		{"( )", "unexpected token ')'", 1, 2, allowedLefts},
		{"( ( ) )", "unexpected token ')'", 2, 3, allowedLefts},
		{"(", "unmatched opening '('", 0, 1, none},
		{"( (", "unmatched opening '('", 1, 2, none},
		{")", "unexpected token ')'", 0, 1, allowedLefts},
		{") )", "unexpected token ')'", 0, 1, allowedLefts},
		{"( a == a1 ) a1", "unexpected token 'a1'", 5, 6, logic},
		{"( a == ) a1", "invalid a: ')'", 3, 4, aValues},
		{"a ( == a1 )", "invalid operator '('", 1, 2, eqOps},
		{"a ( b && b1 )", "invalid operator '('", 1, 2, eqOps},
		{"( a == a1 x", "unmatched opening '('", 0, 4, none},

		{"in_", "unknown area: ''", 0, 1, inAreas},
		{"in_area404", "unknown area: 'area404'", 0, 1, inAreas},
		{"area2", "area names must be prefixed with 'in_'", 0, 1, inAreas},
		{"in_area1 <= true", "unexpected token '<='", 1, 2, logic},

		{"a < a1", "invalid operator '<'", 1, 2, eqOps},
		{"bool1 >= true", "unexpected token '>='", 1, 2, logic},
		{"num > 0.5", "unexpected token 'num'", 0, 1, allowedLefts},
		{"num2 < xyz", "invalid num2: 'xyz'", 2, 3, []string{NumberHint}},
		{"num2 < 0x10", "invalid num2: '0x10'", 2, 3, []string{NumberHint}},
		{"bool1 <= true", "unexpected token '<='", 1, 2, logic},
		{"bool1 ==", "invalid comparison. missing value.", 0, 2, none},

		{"x", "unexpected token 'x'", 0, 1, allowedLefts},
		{"( x", "unexpected token 'x'", 1, 2, allowedLefts},
		{"&&", "unexpected token '&&'", 0, 1, allowedLefts},
		{"( &&", "unexpected token '&&'", 1, 2, allowedLefts},
		{"a == a1 x", "unexpected token 'x'", 3, 4, logic},
		{"a == a1 &&", "unexpected token '&&'", 3, 4, none},
		{"a == a1 && x", "unexpected token 'x'", 4, 5, allowedLefts},
		{"( a == a1 ) && x", "unexpected token 'x'", 6, 7, allowedLefts},
		{"( a == a1 ) && ( x", "unexpected token 'x'", 7, 8, allowedLefts},
		{"a == a1 || b", "invalid comparison. missing operator.", 4, 5, none},
		{"a == a1 && ( b == b1", "unmatched opening '('", 4, 8, none},
		{"a == a1 && (", "unmatched opening '('", 4, 5, none},
		{"a == a1 || b != a1 && a != a2", "invalid b: 'a1'", 6, 7, bValues},
		{"a == a1 || b != b1 && ( ( c != a2 ) )", "unexpected token 'c'", 10, 11, allowedLefts},
		{"a x", "invalid operator 'x'", 1, 2, eqOps},
		{"a &&", "invalid operator '&&'", 1, 2, eqOps},
		{"a (", "invalid operator '('", 1, 2, eqOps},
		{"a != (", "invalid a: '('", 2, 3, aValues},
	}

	for _, tt := range tests {
		t.Run(tt.tokens, func(t *testing.T) {
			tokens := toks(tt.tokens)
			err := ParseTokens(tokens, testVocabulary)

			var serr *SyntaxError
			assert.True(t, asSyntaxError(err, &serr), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tt.message, serr.Message)
			assert.Equal(t, source.NewSpan(tt.start, tt.end), serr.Tokens)
			assert.Equal(t, tt.completions, serr.Completions)

			assert.True(t, 0 <= serr.Tokens.Start && serr.Tokens.Start <= serr.Tokens.End && serr.Tokens.End <= len(tokens))
		})
	}
}

func TestParseValid(t *testing.T) {
	tests := []string{
		"a==a1",
		"(a==a1)",
		"(a==a1)||(b==b1)",
		"(a==a1&&b==b1)",
		"((a==a1)||b==b1)",
		"(a==a1)||b!=b1",
		"a==a1&&((b==b1))",
		"( a==a1 ) || b != b1 && ( a==a2 ||\n b!=b1 && (a==a1 || b == b2)) && a == a1",
		"num1 > 0.3 && bool1 != true || a == a2 && num2 > 0.5 || bool1 == false",
		"num1>0.3 && num2<12 || num1>=0.5 && num2<=1.3",
		"num1>0.3 && in_area2 || num2<=1.3",
		"num1>0.3 && bool1",
		"a != a1 && (bool1 || (bool2 && in_area2))",
		"a != a1 && (bool1 != false || (in_area2 && bool2))",
		"a != a1 && (bool1 != false || ((in_area1 == false) && bool2))",
		"\ta == a1",
	}

	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			assert.NoError(t, Parse(tt, testVocabulary))
			// re-tokenizing a valid expression keeps it valid
			assert.NoError(t, ParseTokens(Texts(Tokenize(tt)), testVocabulary))
			assert.NoError(t, Parse(strings.Join(Texts(Tokenize(tt)), " "), testVocabulary))
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		expression  string
		message     string
		start, end  int
		completions []string
	}{
		{"xyz", "unexpected token 'xyz'", 0, 3, allowedLefts},
		{"a==a1( b!=b1", "unexpected token '('", 5, 6, logic},
		{"(a==a1)(b!=b2)", "unexpected token '('", 7, 8, logic},
		{"((a==&&a1)(b!=b1)", "invalid a: '&&'", 5, 7, aValues},
		{"((a!=a1||)))", "unexpected token ')'", 9, 10, allowedLefts},
		{"\na\t(||", "invalid operator '('", 3, 4, eqOps},
		{"a== a1(b!=b2||", "unexpected token '('", 6, 7, logic},
		{"||", "unexpected token '||'", 0, 2, allowedLefts},
		{"a==a1||", "unexpected token '||'", 5, 7, none},
		{"a==a1&&(", "unmatched opening '('", 7, 8, none},
		// Input ending right after '(' reports the open paren rather than an
		// empty comparison at the end of input.
		{" (", "unmatched opening '('", 1, 2, none},
		{"(a==a1", "unmatched opening '('", 0, 6, none},
		{"", "empty comparison", 0, 0, none},
		{"   ", "empty comparison", 3, 3, none},
		{"a ==  ", "invalid comparison. missing value.", 0, 4, none},
		{"a == a1 || num1 != b1", "invalid num1: 'b1'", 19, 21, []string{NumberHint}},
		{"a == a1 || bool2 == 'false'", "invalid bool2: ''false''", 20, 27, bools},
		{"b != b1 || num2 > 0.7 && bool1 != 'true'", "invalid bool1: ''true''", 34, 40, bools},
		{"a == a2 && b <= b1", "invalid operator '<='", 13, 15, eqOps},
		{"a == a1 || area1", "area names must be prefixed with 'in_'", 11, 16, inAreas},
		{"a == a1 || area_1", "unexpected token 'area_1'", 11, 17, allowedLefts},
		{" == bool1", "unexpected token '=='", 1, 3, allowedLefts},
		{"bool1 != a2", "invalid bool1: 'a2'", 9, 11, bools},
		{"in_area1 == tru || a == a1", "invalid in_area1: 'tru'", 12, 15, bools},
		{"a == a4", "invalid a: 'a4'", 5, 7, aValues},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			err := Parse(tt.expression, testVocabulary)

			var serr *SyntaxError
			assert.True(t, asSyntaxError(err, &serr), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tt.message, serr.Message)
			assert.Equal(t, source.NewSpan(tt.start, tt.end), serr.Span)
			assert.Equal(t, tt.completions, serr.Completions)
			assert.True(t, 0 <= serr.Span.Start && serr.Span.Start <= serr.Span.End && serr.Span.End <= len(tt.expression))
		})
	}
}

func TestParseIsRepeatable(t *testing.T) {
	first := Parse("a == a1 && num1 < abc", testVocabulary)
	second := Parse("a == a1 && num1 < abc", testVocabulary)
	assert.Equal(t, first, second)
}

func TestVocabularyErrors(t *testing.T) {
	tests := []struct {
		name    string
		vocab   Vocabulary
		message string
	}{
		{
			name:    "no categories",
			vocab:   Vocabulary{},
			message: "no categories given",
		},
		{
			name:    "enum without values",
			vocab:   Vocabulary{Categories: []Category{{Name: "a", Kind: KindEnum}}},
			message: "no values given for enum category a",
		},
		{
			name:    "unknown kind",
			vocab:   Vocabulary{Categories: []Category{{Name: "a", Kind: "string"}}},
			message: "unknown kind 'string' for category a",
		},
		{
			name: "duplicate category",
			vocab: Vocabulary{Categories: []Category{
				{Name: "a", Kind: KindBoolean},
				{Name: "a", Kind: KindNumeric},
			}},
			message: "duplicate category a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the vocabulary is rejected before any token is looked at
			err := ParseTokens(toks("a == a1"), tt.vocab)
			verr, ok := err.(*VocabularyError)
			assert.True(t, ok, "expected *VocabularyError, got %T", err)
			assert.Equal(t, tt.message, verr.Message)

			err = Parse("", tt.vocab)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestVocabularyCategory(t *testing.T) {
	c, ok := testVocabulary.Category("num2")
	assert.True(t, ok)
	assert.Equal(t, KindNumeric, c.Kind)

	_, ok = testVocabulary.Category("missing")
	assert.False(t, ok)

	v := testVocabulary.WithAreas([]string{"x"})
	assert.Equal(t, []string{"x"}, v.Areas)
	assert.Equal(t, 3, len(testVocabulary.Areas))
}

func asSyntaxError(err error, target **SyntaxError) bool {
	serr, ok := err.(*SyntaxError)
	if ok {
		*target = serr
	}
	return ok
}

func TestParseSmallVocabulary(t *testing.T) {
	vocab := Vocabulary{
		Categories: []Category{
			{Name: "a", Kind: KindEnum, Values: []string{"a1", "a2"}},
			{Name: "n", Kind: KindNumeric},
		},
		Areas: []string{"z1"},
	}

	assert.NoError(t, Parse("a == a1", vocab))
	assert.NoError(t, Parse("n < 3 || in_z1", vocab))

	err := Parse("a == a3", vocab)
	var serr *SyntaxError
	assert.True(t, asSyntaxError(err, &serr), "expected *SyntaxError, got %T", err)
	assert.Equal(t, "invalid a: 'a3'", serr.Message)
	assert.Equal(t, source.NewSpan(2, 3), serr.Tokens)
	assert.Equal(t, source.NewSpan(5, 7), serr.Span)
	assert.Equal(t, []string{"a1", "a2"}, serr.Completions)
}
