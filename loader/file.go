package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Error is a vocabulary file that could not be used.
type Error struct {
	Filename string
	Err      error
}

func (e *Error) Error() string {
	return e.Filename + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SchemaError lists the places where a file violates the vocabulary schema.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "invalid vocabulary: " + strings.Join(e.Violations, "; ")
}

// File is the content of a single vocabulary file.
type File struct {
	Includes   []string
	Categories []parser.Category
	Areas      []string
}

//go:embed schema.json
var schemaJSON string

const schemaURL = "schema://vocabulary.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// Parse decodes and checks a vocabulary file. The filename is only used in
// errors.
func Parse(filename string, data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Filename: filename, Err: err}
	}
	if len(doc.Content) == 0 {
		return &File{}, nil
	}
	root := doc.Content[0]

	if err := validate(root); err != nil {
		return nil, &Error{Filename: filename, Err: err}
	}

	file := &File{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var err error
		switch key.Value {
		case "include":
			err = value.Decode(&file.Includes)
		case "areas":
			err = value.Decode(&file.Areas)
		case "categories":
			file.Categories, err = categories(value)
		}
		if err != nil {
			return nil, &Error{Filename: filename, Err: err}
		}
	}
	return file, nil
}

// categories converts the categories mapping in declaration order.
func categories(node *yaml.Node) ([]parser.Category, error) {
	if node.Kind != yaml.MappingNode {
		return nil, nil
	}
	result := make([]parser.Category, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var def struct {
			Type   string      `yaml:"type"`
			Values []yaml.Node `yaml:"values"`
		}
		if err := node.Content[i+1].Decode(&def); err != nil {
			return nil, fmt.Errorf("category %s: %w", node.Content[i].Value, err)
		}

		c := parser.Category{Name: node.Content[i].Value, Kind: parser.Kind(def.Type)}
		for _, v := range def.Values {
			c.Values = append(c.Values, v.Value)
		}
		result = append(result, c)
	}
	return result, nil
}

// validate checks root against the embedded schema. The YAML tree is
// converted to JSON values first, which also rejects non-string keys.
func validate(root *yaml.Node) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile vocabulary schema: %w", err)
	}

	var raw any
	if err := root.Decode(&raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("convert to JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return err
	}

	if err := schema.Validate(value); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return &SchemaError{Violations: violations(ve)}
		}
		return err
	}
	return nil
}

// violations flattens a validation error to its leaf causes.
func violations(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		location := ve.InstanceLocation
		if location == "" {
			location = "/"
		}
		return []string{location + ": " + ve.Message}
	}
	var result []string
	for _, cause := range ve.Causes {
		result = append(result, violations(cause)...)
	}
	return result
}
