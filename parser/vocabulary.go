package parser

import (
	"strings"
)

// Kind is the value domain of a category.
type Kind string

const (
	KindEnum    Kind = "enum"
	KindBoolean Kind = "boolean"
	KindNumeric Kind = "numeric"
)

// Category is a named attribute that expressions can compare against.
type Category struct {
	Name   string
	Kind   Kind
	Values []string // Allowed values, enum categories only
}

// Vocabulary is everything an expression may refer to. Categories keep their
// declaration order, which is also the order completions are offered in.
type Vocabulary struct {
	Categories []Category
	Areas      []string
}

// Validate checks that the vocabulary can be used for parsing.
func (v Vocabulary) Validate() error {
	if len(v.Categories) == 0 {
		return newVocabularyError("no categories given")
	}
	seen := make(map[string]bool, len(v.Categories))
	for _, c := range v.Categories {
		if seen[c.Name] {
			return newVocabularyError("duplicate category %s", c.Name)
		}
		seen[c.Name] = true

		switch c.Kind {
		case KindEnum:
			if len(c.Values) == 0 {
				return newVocabularyError("no values given for enum category %s", c.Name)
			}
		case KindBoolean, KindNumeric:
		default:
			return newVocabularyError("unknown kind '%s' for category %s", c.Kind, c.Name)
		}
	}
	return nil
}

// Category looks up a category by name.
func (v Vocabulary) Category(name string) (Category, bool) {
	for _, c := range v.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// WithAreas returns a copy of the vocabulary using the given area names.
func (v Vocabulary) WithAreas(areas []string) Vocabulary {
	v.Areas = areas
	return v
}

// lookup is the per-parse index over a validated vocabulary.
type lookup struct {
	categories map[string]Category
	areas      map[string]bool
	inAreas    []string // area names with the in_ prefix
	lefts      []string // everything a comparison can start with
}

const areaPrefix = "in_"

func newLookup(v Vocabulary) *lookup {
	l := &lookup{
		categories: make(map[string]Category, len(v.Categories)),
		areas:      make(map[string]bool, len(v.Areas)),
		inAreas:    make([]string, 0, len(v.Areas)),
		lefts:      make([]string, 0, len(v.Categories)+len(v.Areas)+2),
	}
	for _, c := range v.Categories {
		l.categories[c.Name] = c
		l.lefts = append(l.lefts, c.Name)
	}
	for _, a := range v.Areas {
		l.areas[a] = true
		l.inAreas = append(l.inAreas, areaPrefix+a)
	}
	l.lefts = append(l.lefts, l.inAreas...)
	l.lefts = append(l.lefts, booleans...)
	return l
}

func isAreaReference(tok string) bool {
	return strings.HasPrefix(tok, areaPrefix)
}
