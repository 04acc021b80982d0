// Package schema validates untyped JSON at the service boundary.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Compile compiles a schema given as a generic map.
func Compile(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(name string, schemaMap map[string]any) *jsonschema.Schema {
	s, err := Compile(name, schemaMap)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate decodes data and checks it against s.
func Validate(s *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// Workflow accepts any non-empty JSON object. Node semantics are not checked.
var Workflow = MustCompile("workflow.json", map[string]any{
	"type":          "object",
	"minProperties": 1,
})
