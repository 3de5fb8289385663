package llm

// BuildVerdictJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the model as an output constraint and also use it
// locally to validate the reply before trusting it.
func BuildVerdictJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"estado": map[string]any{
				"type": "string",
				"enum": []string{EstadoCumple, EstadoNoCumple, EstadoInsuficiente},
			},
			"evidencia":     map[string]any{"type": "string"},
			"justificacion": map[string]any{"type": "string"},
			"confianza":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"estado", "justificacion"},
	}
}
