package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/robinvdvleuten/custommodel/source"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var (
	rootKeys      = []string{"speed", "priority", "distance_influence", "areas"}
	clauses       = []string{"if", "else_if", "else"}
	operators     = []string{"multiply_by", "limit_to"}
	statementKeys = []string{"if", "else_if", "else", "multiply_by", "limit_to"}
	areaKeys      = []string{"type", "geometry", "id", "properties"}
	geometryKeys  = []string{"type", "coordinates"}

	areaName = regexp.MustCompile(`^[a-z][0-9A-Za-z_]*$`)
)

type (
	keyCheck  func(path string, keys []string, span source.Span) []Error
	pairCheck func(path string, key, value *yaml.Node) []Error
	itemCheck func(path string, item *yaml.Node, index int) []Error
)

// validator walks a document tree and collects schema errors, condition spans
// and area names.
type validator struct {
	*tree
	conditions []Condition
	areas      []string
}

func (v *validator) errorf(path string, span source.Span, format string, args ...any) Error {
	return Error{Path: path, Message: fmt.Sprintf(format, args...), Span: span}
}

func (v *validator) validateRoot(root *yaml.Node) []Error {
	return v.validateObject("root", root, oneOf(rootKeys), "possible keys: "+displayList(rootKeys), noKeyCheck, v.validateRootPair)
}

func (v *validator) validateRootPair(_ string, key, value *yaml.Node) []Error {
	if isNull(value) {
		return []Error{v.errorf(key.Value, v.span(key), "must not be null")}
	}
	switch key.Value {
	case "speed", "priority":
		return v.validateStatements(key.Value, value)
	case "distance_influence":
		return v.validateDistanceInfluence(value)
	case "areas":
		return v.validateAreas(value)
	}
	return nil
}

func (v *validator) validateStatements(path string, list *yaml.Node) []Error {
	errs := v.validateList(path, list, 0, -1, v.validateStatement)
	if len(errs) > 0 {
		return errs
	}

	// every statement has exactly one clause at this point
	items := resolve(list).Content
	prev := ""
	for i, item := range items {
		clause := ""
		item = resolve(item)
		for j := 0; j < len(item.Content); j += 2 {
			if k := item.Content[j].Value; slices.Contains(clauses, k) {
				clause = k
			}
		}
		if (clause == "else_if" || clause == "else") && prev != "if" && prev != "else_if" {
			errs = append(errs, v.errorf(fmt.Sprintf("%s[%d]", path, i), v.span(items[i]),
				"'%s' clause must be preceded by 'if' or 'else_if'", clause))
		}
		prev = clause
	}
	return errs
}

func (v *validator) validateStatement(path string, item *yaml.Node, _ int) []Error {
	return v.validateObject(path, item, oneOf(statementKeys), "possible keys: "+displayList(statementKeys),
		v.validateStatementKeys, v.validateStatementPair)
}

func (v *validator) validateStatementKeys(path string, keys []string, span source.Span) []Error {
	var errs []Error
	if len(keys) > 2 {
		sorted := slices.Clone(keys)
		sort.Strings(sorted)
		errs = append(errs, v.errorf(path, span, "too many keys. maximum: 2. given: %s", strings.Join(sorted, ",")))
	}
	hasClause := slices.IndexFunc(keys, oneOf(clauses)) >= 0
	hasOperator := slices.IndexFunc(keys, oneOf(operators)) >= 0
	if !hasClause {
		errs = append(errs, v.errorf(path, span, "every statement must have a clause %s. given: %s", displayList(clauses), strings.Join(keys, ",")))
	}
	if !hasOperator {
		errs = append(errs, v.errorf(path, span, "every statement must have an operator %s. given: %s", displayList(operators), strings.Join(keys, ",")))
	}
	return errs
}

func (v *validator) validateStatementPair(path string, key, value *yaml.Node) []Error {
	path = fmt.Sprintf("%s[%s]", path, key.Value)

	switch {
	case key.Value == "else":
		if !isNull(value) {
			return []Error{v.errorf(path, v.span(value), "must be null. given: '%s'", v.display(value))}
		}

	case slices.Contains(clauses, key.Value):
		if isNull(value) {
			v.conditions = append(v.conditions, Condition{Path: path, Span: v.nullConditionSpan(key, value)})
			return []Error{v.errorf(path, v.span(key), "must be a string or boolean. given type: null")}
		}
		if !isString(value) && !isBoolean(value) {
			return []Error{v.errorf(path, v.span(value), "must be a string or boolean. given type: %s", displayType(value))}
		}
		v.conditions = append(v.conditions, Condition{Path: path, Span: v.valueSpan(value)})

	case slices.Contains(operators, key.Value):
		if isNull(value) {
			return []Error{v.errorf(path, v.span(key), "must be a number. given type: null")}
		}
		if !isNumber(value) {
			return []Error{v.errorf(path, v.span(value), "must be a number. given type: %s", displayType(value))}
		}
	}
	return nil
}

// nullConditionSpan is where a condition will be typed for a clause without a
// value. Empty values have no position of their own, so the span is placed one
// byte past the key, after the ':'.
func (v *validator) nullConditionSpan(key, value *yaml.Node) source.Span {
	if !isEmptyNull(value) {
		return v.span(value)
	}
	end := v.span(key).End
	return source.Span{Start: min(end+1, len(v.text)), End: min(end+2, len(v.text))}
}

func (v *validator) validateDistanceInfluence(value *yaml.Node) []Error {
	if !isPlain(value) {
		return []Error{v.errorf("distance_influence", v.span(value), "must be a number. given type: %s", displayType(value))}
	}
	if !isNumber(value) {
		return []Error{v.errorf("distance_influence", v.span(value), "must be a number. given: '%s'", resolve(value).Value)}
	}
	return nil
}

func (v *validator) validateAreas(value *yaml.Node) []Error {
	collect := func(_ string, keys []string, _ source.Span) []Error {
		v.areas = keys
		return nil
	}
	return v.validateObject("areas", value, areaName.MatchString, "names may only contain a-z, digits and _", collect, v.validateArea)
}

func (v *validator) validateArea(path string, name, area *yaml.Node) []Error {
	path = fmt.Sprintf("%s[%s]", path, name.Value)
	if isNull(area) {
		return []Error{v.errorf(path, v.span(name), "must not be null")}
	}
	return v.validateObject(path, area, oneOf(areaKeys), "possible keys: "+displayList(areaKeys),
		v.requireKeys("type", "geometry"), v.validateAreaField)
}

func (v *validator) requireKeys(required ...string) keyCheck {
	return func(path string, keys []string, span source.Span) []Error {
		var errs []Error
		for _, k := range required {
			if !slices.Contains(keys, k) {
				errs = append(errs, v.errorf(path, span, "missing '%s'. given: %s", k, displayList(keys)))
			}
		}
		return errs
	}
}

func (v *validator) validateAreaField(path string, key, value *yaml.Node) []Error {
	path = fmt.Sprintf("%s[%s]", path, key.Value)
	if isNull(value) {
		return []Error{v.errorf(path, v.span(key), "must not be null")}
	}

	switch key.Value {
	case "type":
		if resolve(value).Value != "Feature" || !isString(value) {
			return []Error{v.errorf(path, v.span(value), "must be 'Feature'. given: '%s'", v.display(value))}
		}
	case "properties":
		return v.validateObject(path, value, anyKey, "", noKeyCheck, noPairCheck)
	case "id":
		if !isString(value) {
			return []Error{v.errorf(path, v.span(value), "must be a string. given type: %s", displayType(value))}
		}
	case "geometry":
		return v.validateObject(path, value, oneOf(geometryKeys), "possible keys: "+displayList(geometryKeys),
			v.requireKeys("type", "coordinates"), v.validateGeometryField)
	}
	return nil
}

func (v *validator) validateGeometryField(path string, key, value *yaml.Node) []Error {
	path = fmt.Sprintf("%s[%s]", path, key.Value)
	if isNull(value) {
		return []Error{v.errorf(path, v.span(key), "must not be null")}
	}

	switch key.Value {
	case "type":
		if resolve(value).Value != "Polygon" || !isString(value) {
			return []Error{v.errorf(path, v.span(value), "must be 'Polygon'. given: '%s'", v.display(value))}
		}
	case "coordinates":
		return v.validateList(path, value, 1, -1, v.validateLinearRing)
	}
	return nil
}

func (v *validator) validateLinearRing(path string, ring *yaml.Node, _ int) []Error {
	if errs := v.validateList(path, ring, 4, -1, v.validatePoint); len(errs) > 0 {
		return errs
	}
	points := resolve(ring).Content
	first, last := resolve(points[0]), resolve(points[len(points)-1])
	if !pointsEqual(first, last) {
		return []Error{v.errorf(path, v.span(points[len(points)-1]), "the last point must be equal to the first")}
	}
	return nil
}

func (v *validator) validatePoint(path string, point *yaml.Node, _ int) []Error {
	return v.validateList(path, point, 2, 2, v.validateCoordinate)
}

var (
	lonBounds = [2]decimal.Decimal{decimal.NewFromInt(-180), decimal.NewFromInt(180)}
	latBounds = [2]decimal.Decimal{decimal.NewFromInt(-90), decimal.NewFromInt(90)}
)

func (v *validator) validateCoordinate(path string, c *yaml.Node, index int) []Error {
	value, ok := numberValue(c)
	if !ok {
		return []Error{v.errorf(path, v.span(c), "must be a number")}
	}
	switch {
	case index == 0 && outside(value, lonBounds):
		return []Error{v.errorf(path, v.span(c), "longitude must be in [-180, +180]")}
	case index == 1 && outside(value, latBounds):
		return []Error{v.errorf(path, v.span(c), "latitude must be in [-90, +90]")}
	}
	return nil
}

func (v *validator) validateObject(path string, obj *yaml.Node, keyIsValid func(string) bool, message string, checkKeys keyCheck, checkPair pairCheck) []Error {
	if isNull(obj) {
		return []Error{v.errorf(path, v.span(obj), "must not be null")}
	}
	if !isObject(obj) {
		return []Error{v.errorf(path, v.span(obj), "must be an object. given type: %s", displayType(obj))}
	}

	content := resolve(obj).Content
	keys, errs := v.validateKeys(path, obj, keyIsValid, message)
	if len(errs) > 0 {
		return errs
	}
	if errs := checkKeys(path, keys, v.span(obj)); len(errs) > 0 {
		return errs
	}
	for i := 0; i+1 < len(content); i += 2 {
		errs = append(errs, checkPair(path, content[i], content[i+1])...)
	}
	return errs
}

func (v *validator) validateKeys(path string, obj *yaml.Node, keyIsValid func(string) bool, message string) ([]string, []Error) {
	var errs []Error
	content := resolve(obj).Content
	keys := make([]string, 0, len(content)/2)
	for i := 0; i < len(content); i += 2 {
		key := content[i]
		switch {
		case isNull(key):
			errs = append(errs, v.errorf(path, v.span(obj), "keys must not be null"))
		case !isString(key):
			errs = append(errs, v.errorf(path, v.span(key), "keys must be strings. given type: %s", displayType(key)))
		case strings.TrimSpace(key.Value) == "":
			errs = append(errs, v.errorf(path, v.span(key), "keys must be non-empty and must not only consist of whitespace. given: '%s'", key.Value))
		case !keyIsValid(key.Value):
			errs = append(errs, v.errorf(path, v.span(key), "%s. given: '%s'", message, key.Value))
		case slices.Contains(keys, key.Value):
			errs = append(errs, v.errorf(path, v.span(key), "keys must be unique. duplicate: '%s'", key.Value))
		default:
			keys = append(keys, key.Value)
		}
	}
	return keys, errs
}

func (v *validator) validateList(path string, list *yaml.Node, minLength, maxLength int, checkItem itemCheck) []Error {
	if !isList(list) {
		return []Error{v.errorf(path, v.span(list), "must be a list. given type: %s", displayType(list))}
	}

	seq := resolve(list)
	items := seq.Content
	if len(items) < minLength {
		return []Error{v.errorf(path, v.span(list), "minimum length: %d, given: %d", minLength, len(items))}
	}
	if maxLength >= 0 && len(items) > maxLength {
		return []Error{v.errorf(path, v.span(list), "maximum length: %d, given: %d", maxLength, len(items))}
	}

	var errs []Error
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if isNull(item) {
			errs = append(errs, v.errorf(itemPath, v.itemSpan(seq, i), "must not be null"))
			continue
		}
		errs = append(errs, checkItem(itemPath, item, i)...)
	}
	return errs
}

func pointsEqual(p, q *yaml.Node) bool {
	for i := 0; i < 2; i++ {
		a, _ := numberValue(p.Content[i])
		b, _ := numberValue(q.Content[i])
		if !a.Equal(b) {
			return false
		}
	}
	return true
}

func outside(d decimal.Decimal, bounds [2]decimal.Decimal) bool {
	return d.LessThan(bounds[0]) || d.GreaterThan(bounds[1])
}

func oneOf(allowed []string) func(string) bool {
	return func(s string) bool {
		return slices.Contains(allowed, s)
	}
}

func anyKey(string) bool { return true }

func noKeyCheck(string, []string, source.Span) []Error { return nil }

func noPairCheck(string, *yaml.Node, *yaml.Node) []Error { return nil }

func displayList(list []string) string {
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
