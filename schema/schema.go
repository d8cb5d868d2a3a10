package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema is the declarative schema type used for tool parameters and
// results. It is plain structured data: tools declare it, the validator
// and resolver read it, nothing executes it.
type Schema = jsonschema.Schema

// Parse decodes a JSON schema document.
func Parse(raw []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &s, nil
}

// MustParse decodes a JSON schema document and panics on error.
// Intended for package-level tool definitions.
func MustParse(raw string) *Schema {
	s, err := Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return s
}

// Object builds an object schema from property schemas.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// String builds a string schema.
func String(description string) *Schema {
	return &Schema{Type: "string", Description: description}
}

// Number builds a number schema.
func Number(description string) *Schema {
	return &Schema{Type: "number", Description: description}
}

// Integer builds an integer schema.
func Integer(description string) *Schema {
	return &Schema{Type: "integer", Description: description}
}

// Boolean builds a boolean schema.
func Boolean(description string) *Schema {
	return &Schema{Type: "boolean", Description: description}
}

// Array builds an array schema with the given item schema.
func Array(items *Schema, description string) *Schema {
	return &Schema{Type: "array", Items: items, Description: description}
}

// TypeOf returns the declared type of a schema fragment, or "" when the
// fragment is nil or untyped.
func TypeOf(s *Schema) string {
	if s == nil {
		return ""
	}
	if s.Type != "" {
		return s.Type
	}
	if len(s.Types) > 0 {
		return s.Types[0]
	}
	return ""
}

// Property returns the sub-schema for an object property, or nil.
func Property(s *Schema, key string) *Schema {
	if s == nil || s.Properties == nil {
		return nil
	}
	return s.Properties[key]
}

// Items returns the item sub-schema of an array schema, or nil.
func Items(s *Schema) *Schema {
	if s == nil {
		return nil
	}
	return s.Items
}
