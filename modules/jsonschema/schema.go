// Package jsonschema compiles JSON schemas and validates documents against them.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidDocument wraps every validation failure.
var ErrInvalidDocument = errors.New("document does not match schema")

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles an in-memory schema registered under name, e.g. "charge.json".
func Compile(name string, source []byte) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
	}
	s, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema from %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is Compile that panics, for schemas embedded in the binary.
func MustCompile(name string, source []byte) *Schema {
	s, err := Compile(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string { return s.name }

// Validate validates a decoded JSON value (maps, slices, json.Number, ...).
func (s *Schema) Validate(value any) error {
	if err := s.schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// ValidateBytes validates raw JSON data.
func (s *Schema) ValidateBytes(data []byte) error {
	return s.ValidateReader(bytes.NewReader(data))
}

// ValidateReader validates the JSON document read from r.
func (s *Schema) ValidateReader(r io.Reader) error {
	v, err := jsonschema.UnmarshalJSON(r)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return s.Validate(v)
}

// ValidateValue validates a Go value by round-tripping it through JSON.
func (s *Schema) ValidateValue(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.ValidateBytes(b)
}
