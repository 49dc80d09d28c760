package document

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/custommodel/completion"
	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/robinvdvleuten/custommodel/source"
)

var testCategories = []parser.Category{
	{Name: "a", Kind: parser.KindEnum, Values: []string{"a1", "a2"}},
}

func span(start, end int) *source.Span {
	s := source.NewSpan(start, end)
	return &s
}

func TestCheck(t *testing.T) {
	closedArea := area("[[[0, 0], [1, 0], [1, 1], [0, 0]]]")

	tests := []struct {
		name       string
		text       string
		categories []parser.Category
		want       []Error
	}{
		{
			name:       "valid",
			text:       "speed: [{if: a == a1, multiply_by: 0.5}]",
			categories: testCategories,
			want:       []Error{},
		},
		{
			name:       "invalid value",
			text:       "speed: [{if: a == a3, multiply_by: 0.5}]",
			categories: testCategories,
			want: []Error{{
				Path:        "speed[0][if]",
				Message:     "invalid a: 'a3'",
				Span:        source.NewSpan(18, 20),
				Completions: []string{"a1", "a2"},
			}},
		},
		{
			name:       "declared area",
			text:       "priority: [{if: in_city, multiply_by: 0.5}]\n" + closedArea,
			categories: testCategories,
			want:       []Error{},
		},
		{
			name:       "undeclared area",
			text:       "priority: [{if: in_town, multiply_by: 0.5}]",
			categories: testCategories,
			want: []Error{{
				Path:        "priority[0][if]",
				Message:     "unknown area: 'town'",
				Span:        source.NewSpan(16, 23),
				Completions: []string{},
			}},
		},
		{
			name:       "schema errors hide condition errors",
			text:       "speed: [{if: a == a3}]",
			categories: testCategories,
			want: []Error{{
				Path:    "speed[0]",
				Message: "every statement must have an operator ['multiply_by', 'limit_to']. given: if",
				Span:    source.NewSpan(8, 21),
			}},
		},
		{
			name:       "vocabulary error",
			text:       "speed: [{if: a == a1, multiply_by: 0.5}]",
			categories: nil,
			want: []Error{{
				Path:    "speed[0][if]",
				Message: "no categories given",
				Span:    source.NewSpan(13, 20),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Check(tt.text, tt.categories)
			assert.Equal(t, tt.want, report.Diagnostics)
		})
	}
}

func TestCheckReportsSyntaxErrors(t *testing.T) {
	report := Check("speed: [", testCategories)
	assert.Equal(t, 1, len(report.Diagnostics))
	assert.Equal(t, SyntaxPath, report.Diagnostics[0].Path)
}

func TestCheckMultipleConditions(t *testing.T) {
	report := Check(fullDocument, []parser.Category{
		{Name: "road_class", Kind: parser.KindEnum, Values: []string{"MOTORWAY", "PRIMARY"}},
	})
	assert.Equal(t, []Error{}, report.Diagnostics)
	assert.Equal(t, 2, len(report.Conditions))
}

func TestCompleteAt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
		want   completion.Result
	}{
		{
			name:   "partial value",
			text:   "speed: [{if: a == a, multiply_by: 0.5}]",
			offset: 19,
			want:   completion.Result{Suggestions: []string{"a1", "a2"}, Range: span(18, 19)},
		},
		{
			name:   "empty condition",
			text:   "speed:\n  - if: \n    multiply_by: 0.5",
			offset: 15,
			want:   completion.Result{Suggestions: []string{"a", "true", "false"}, Range: span(15, 15)},
		},
		{
			// yaml.v3 yields no tree for unbalanced flow collections, so
			// there is no condition to complete in until the text parses.
			name:   "unbalanced flow document",
			text:   "speed: [{if: a == a, multiply_by: 0.5}",
			offset: 19,
			want:   completion.Result{Suggestions: []string{}},
		},
		{
			name:   "outside of conditions",
			text:   "speed: [{if: a == a, multiply_by: 0.5}]",
			offset: 2,
			want:   completion.Result{Suggestions: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompleteAt(tt.text, tt.offset, testCategories, nil))
		})
	}
}

func TestCompleteAtWithEngine(t *testing.T) {
	engine, err := completion.New(completion.WithPlaceholder('_'))
	assert.NoError(t, err)

	got := CompleteAt("speed: [{if: a == a, multiply_by: 0.5}]", 19, testCategories, engine)
	assert.Equal(t, completion.Result{Suggestions: []string{"a1", "a2"}, Range: span(18, 19)}, got)
}

func TestCheckUnbalancedFlowDocument(t *testing.T) {
	report := Check("speed: [{if: a == a1, multiply_by: 0.5}", testCategories)
	assert.Equal(t, 1, len(report.Diagnostics))
	assert.Equal(t, SyntaxPath, report.Diagnostics[0].Path)
	assert.Equal(t, 0, len(report.Conditions))
	assert.Equal(t, 0, len(report.AreaNames))
}
