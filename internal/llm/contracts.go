package llm

// Verdict states returned by the model for a single criterion.
const (
	EstadoCumple       = "CUMPLE"
	EstadoNoCumple     = "NO_CUMPLE"
	EstadoInsuficiente = "INFO_INSUFICIENTE"
)

// Verdict is the normalized per-criterion judgment we want from the LLM.
type Verdict struct {
	Estado        string  `json:"estado"`
	Evidencia     string  `json:"evidencia"`
	Justificacion string  `json:"justificacion"`
	Confianza     float32 `json:"confianza"`
}
