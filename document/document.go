// Package document validates custom model documents: YAML documents whose
// speed and priority statements carry condition expressions.
//
// A document looks like this:
//
//	speed:
//	  - if: road_class == MOTORWAY
//	    limit_to: 100
//	  - else:
//	    multiply_by: 0.9
//	priority:
//	  - if: in_city
//	    multiply_by: 0.5
//	distance_influence: 70
//	areas:
//	  city:
//	    type: Feature
//	    geometry: {type: Polygon, coordinates: [[[13.3, 52.5], [13.4, 52.5], [13.4, 52.6], [13.3, 52.5]]]}
//
// Validate checks the structure and reports where the conditions are. Check
// additionally parses every condition and maps its errors into document
// coordinates. All ranges are byte offsets into the document text.
package document

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/robinvdvleuten/custommodel/source"
	"gopkg.in/yaml.v3"
)

// SyntaxPath is the path of errors reported by the YAML parser.
const SyntaxPath = "syntax"

// Error is a problem found at a path of the document, such as speed[1][if].
type Error struct {
	Path        string      `json:"path"`
	Message     string      `json:"message"`
	Span        source.Span `json:"range"`
	Completions []string    `json:"completions,omitempty"`
}

func (e Error) Error() string {
	return e.Path + ": " + e.Message
}

// Condition is the location of an if or else_if expression.
type Condition struct {
	Path string      `json:"path"`
	Span source.Span `json:"range"`
}

// Result is the outcome of validating a document.
type Result struct {
	// Errors are violations of the document schema.
	Errors []Error `json:"errors"`

	// SyntaxErrors come from the YAML parser. They are only reported when
	// there are no schema errors.
	SyntaxErrors []Error `json:"syntaxErrors"`

	// Conditions lists every clause value that holds a condition, including
	// the expected position of conditions that have not been typed yet.
	Conditions []Condition `json:"conditions"`

	// AreaNames are the areas declared by the document.
	AreaNames []string `json:"areas"`
}

// ConditionRanges returns the span of every condition.
func (r *Result) ConditionRanges() []source.Span {
	spans := make([]source.Span, len(r.Conditions))
	for i, c := range r.Conditions {
		spans[i] = c.Span
	}
	return spans
}

// Valid reports whether neither schema nor syntax errors were found.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0 && len(r.SyntaxErrors) == 0
}

// Validate checks text against the document schema. An empty document is
// valid.
func Validate(text string) *Result {
	result := &Result{
		Errors:       []Error{},
		SyntaxErrors: []Error{},
		Conditions:   []Condition{},
		AreaNames:    []string{},
	}

	root, err := decode(text)
	if err != nil {
		result.SyntaxErrors = append(result.SyntaxErrors, syntaxError(text, err))
		return result
	}
	if root == nil {
		return result
	}

	v := &validator{tree: newTree(text)}
	result.Errors = append(result.Errors, v.validateRoot(root)...)
	result.Conditions = append(result.Conditions, v.conditions...)
	result.AreaNames = append(result.AreaNames, v.areas...)
	if len(result.Errors) > 0 {
		result.SyntaxErrors = result.SyntaxErrors[:0]
	}
	return result
}

// errMultipleDocuments is reported for streams with more than one document.
type errMultipleDocuments struct {
	line int
}

func (e *errMultipleDocuments) Error() string {
	return "yaml: line " + strconv.Itoa(e.line) + ": only a single document is supported"
}

// decode parses the first document of text and rejects any further ones.
// It returns nil for empty documents.
func decode(text string) (*yaml.Node, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var next yaml.Node
	switch err := dec.Decode(&next); {
	case err == nil:
		return nil, &errMultipleDocuments{line: next.Line}
	case !errors.Is(err, io.EOF):
		return nil, err
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

var errorLine = regexp.MustCompile(`^(?:yaml: )?line (\d+): (.*)$`)

// syntaxError anchors a YAML parser error at the line it names, or at the
// whole document when it names none.
func syntaxError(text string, err error) Error {
	message := strings.TrimPrefix(err.Error(), "yaml: ")
	span := source.Span{Start: 0, End: len(text)}

	if m := errorLine.FindStringSubmatch(err.Error()); m != nil {
		message = m[2]
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			index := source.NewIndex(text)
			span = index.Line(min(max(line, 1), index.LineCount()))
		}
	}
	return Error{Path: SyntaxPath, Message: message, Span: span}
}
