package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrMalformedNode is returned when a tree violates the node-kind contract:
// a node without a type, or children under a text or question node.
var ErrMalformedNode = errors.New("malformed node")

const schemaURL = "schema://testforge/node.json"

var nodeSchema = map[string]any{
	"$ref": "#/$defs/node",
	"$defs": map[string]any{
		"node": map[string]any{
			"type":     "object",
			"required": []any{"type"},
			"properties": map[string]any{
				"type":    map[string]any{"type": "string", "minLength": 1},
				"text":    map[string]any{"type": "string"},
				"attrs":   map[string]any{"type": []any{"object", "null"}},
				"content": map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/node"}},
			},
			"if": map[string]any{
				"required": []any{"type"},
				"properties": map[string]any{
					"type": map[string]any{"enum": []any{
						string(KindText),
						string(KindSingleBlank),
						string(KindMultipleChoice),
						string(KindFillInBlanks),
						string(KindPairing),
						string(KindLabeledDiagram),
					}},
				},
			},
			"then": map[string]any{"not": map[string]any{"required": []any{"content"}}},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, nodeSchema); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Decode parses a JSON document tree. An empty body or a JSON null is absent
// input and yields a nil tree without error.
func Decode(data []byte) (*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedNode, err)
	}
	if err := Validate(parsed); err != nil {
		return nil, err
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	return &n, nil
}

// Validate checks an already decoded JSON value against the node contract.
func Validate(v any) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("compile node schema: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	return nil
}
