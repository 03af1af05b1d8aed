// Package schema derives JSON Schema objects for tool inputs from Go struct
// types using their json and jsonschema tags.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Object is a provider-neutral JSON Schema of type "object".
type Object struct {
	Properties map[string]any
	Required   []string
}

// Map renders the schema as a plain JSON Schema document.
func (o Object) Map() map[string]any {
	m := map[string]any{
		"type": "object",
	}
	props := o.Properties
	if props == nil {
		props = map[string]any{}
	}
	m["properties"] = props
	if len(o.Required) > 0 {
		m["required"] = o.Required
	}
	return m
}

// MarshalJSON encodes the schema document.
func (o Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Map())
}

// Generate produces the object schema for struct type T.
func Generate[T any]() Object {
	var zero T
	s := jsonschema.Reflect(&zero)
	root := extractRoot(s)

	return Object{
		Properties: schemaProperties(root),
		Required:   root.Required,
	}
}

// extractRoot follows the top-level $ref into $defs.
func extractRoot(s *jsonschema.Schema) *jsonschema.Schema {
	if s.Ref != "" && s.Definitions != nil {
		for _, def := range s.Definitions {
			if def.Type == "object" {
				return def
			}
		}
	}
	return s
}

func schemaProperties(s *jsonschema.Schema) map[string]any {
	if s.Properties == nil {
		return nil
	}
	props := make(map[string]any)
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = propertySchema(pair.Value)
	}
	return props
}

func propertySchema(s *jsonschema.Schema) map[string]any {
	m := make(map[string]any)

	if s.Type != "" {
		m["type"] = s.Type
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.Default != nil {
		m["default"] = s.Default
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}

	// Pointer fields are reflected as anyOf with a null branch.
	if len(s.AnyOf) > 0 {
		for _, sub := range s.AnyOf {
			if sub.Type != "null" && sub.Type != "" {
				m["type"] = sub.Type
				break
			}
		}
	}

	if s.Properties != nil {
		m["type"] = "object"
		m["properties"] = schemaProperties(s)
		if len(s.Required) > 0 {
			m["required"] = s.Required
		}
	}

	if s.Items != nil {
		m["items"] = propertySchema(s.Items)
	}

	return m
}
