package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema constrains the shape of the JSON config file. Unknown keys are
// allowed so process-local configs can carry extra metadata.
func configSchema() map[string]any {
	criterion := map[string]any{
		"type":     "object",
		"required": []string{"id", "mode"},
		"properties": map[string]any{
			"id":              map[string]any{"type": "string", "minLength": 1},
			"descripcion":     map[string]any{"type": "string"},
			"keywords":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"mode":            map[string]any{"type": "string", "enum": []any{"presence", "count", "threshold"}},
			"weight":          map[string]any{"type": "number", "minimum": 0.0},
			"points":          map[string]any{"type": "number", "minimum": 0.0},
			"max_points":      map[string]any{"type": "number", "minimum": 0.0},
			"threshold_years": map[string]any{"type": "number", "minimum": 0.0},
			"field":           map[string]any{"type": "string", "enum": []any{"", "text", "courses", "exp_general", "exp_especifica"}},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input_root":  map[string]any{"type": "string"},
			"scorer":      map[string]any{"type": "string", "enum": []any{"rules", "openai"}},
			"parallelism": map[string]any{"type": "integer", "minimum": 1.0},
			"criterios":   map[string]any{"type": "array", "items": criterion},
			"pdf": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"use_ocr":                map[string]any{"type": "boolean"},
					"min_avg_chars_per_page": map[string]any{"type": "integer", "minimum": 1.0},
					"empty_page_ratio":       map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
				},
			},
		},
	}
}

// ValidateConfigJSON validates raw config bytes against the config schema.
func ValidateConfigJSON(raw []byte) error {
	b, err := json.Marshal(configSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("config is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
