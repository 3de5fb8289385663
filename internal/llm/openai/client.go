package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cquispe/eoi-consolidator/internal/criteria"
	"github.com/cquispe/eoi-consolidator/internal/llm"
)

// maxExcerptChars bounds the candidate text sent per criterion call.
const maxExcerptChars = 12000

// Score implements criteria.Scorer with one chat/completions call per rule.
// A CUMPLE verdict awards the rule's weighted points; NO_CUMPLE and
// INFO_INSUFICIENTE award zero, with the verdict recorded as detail.
func (c *Client) Score(ctx context.Context, in criteria.Input, rules []criteria.Rule) (criteria.Result, error) {
	res := criteria.Result{CandidateID: in.CandidateID}
	for _, rule := range rules {
		verdict, err := c.evaluate(ctx, in, rule)
		if err != nil {
			return criteria.Result{}, fmt.Errorf("evaluate rule %s: %w", rule.ID, err)
		}
		score := criteria.CriterionScore{
			RuleID:  rule.ID,
			Matched: verdict.Estado == llm.EstadoCumple,
			Detail:  verdictDetail(verdict),
		}
		if score.Matched {
			pts := rule.Points
			if pts == 0 {
				pts = rule.MaxPoints
			}
			score.Points = pts
			res.Total += rule.EffectiveWeight() * pts
		}
		res.Scores = append(res.Scores, score)
	}
	return res, nil
}

func (c *Client) evaluate(ctx context.Context, in criteria.Input, rule criteria.Rule) (llm.Verdict, error) {
	rid := uuid.New().String()
	start := time.Now()

	schema := llm.BuildVerdictJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt()},
			{"role": "user", "content": buildUserPrompt(in, rule)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	c.log.Info("llm.verdict.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"rule_id", rule.ID,
		"text_len", len(in.Text),
	)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.log)
	if err != nil {
		c.log.Error("llm.verdict.http_error",
			"req_id", rid, "rule_id", rule.ID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Verdict{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return llm.Verdict{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return llm.Verdict{}, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		c.log.Error("llm.verdict.schema_validation_failed",
			"req_id", rid, "rule_id", rule.ID, "error", err, "content", string(content),
		)
		return llm.Verdict{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var v llm.Verdict
	if err := json.Unmarshal(content, &v); err != nil {
		return llm.Verdict{}, fmt.Errorf("unmarshal verdict: %w", err)
	}

	c.log.Info("llm.verdict.ok",
		"req_id", rid,
		"rule_id", rule.ID,
		"estado", v.Estado,
		"confianza", v.Confianza,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return v, nil
}

func systemPrompt() string {
	return strings.Join([]string{
		"Eres un evaluador de expresiones de interés (EOI) de consultores.",
		"Evalúa UN criterio contra el CV del candidato y responde SOLO con JSON que cumpla el JSON Schema provisto.",
		"estado debe ser CUMPLE, NO_CUMPLE o INFO_INSUFICIENTE.",
		"En evidencia cita el fragmento textual del CV que sustenta el estado; déjala vacía si no hay.",
		"Nunca inventes datos que no estén en el texto.",
	}, " ")
}

func buildUserPrompt(in criteria.Input, rule criteria.Rule) string {
	var b strings.Builder
	b.WriteString("Criterio: " + rule.ID)
	if rule.Description != "" {
		b.WriteString(" - " + rule.Description)
	}
	b.WriteString("\n")
	if len(rule.Keywords) > 0 {
		b.WriteString("Términos de referencia: " + strings.Join(rule.Keywords, ", ") + "\n")
	}
	if rule.Mode == criteria.ModeThreshold {
		years := float64(in.GeneralExpDays) / 365.25
		if rule.Field == criteria.FieldExpEspecifi {
			years = float64(in.SpecificExpDays) / 365.25
		}
		fmt.Fprintf(&b, "Años de experiencia calculados: %.2f (umbral requerido: %.2f)\n", years, rule.ThresholdYears)
	}
	if len(in.Courses) > 0 {
		b.WriteString("Cursos declarados:\n- " + strings.Join(in.Courses, "\n- ") + "\n")
	}
	text := in.Text
	if len(text) > maxExcerptChars {
		text = text[:maxExcerptChars]
	}
	b.WriteString("\nTexto del CV:\n" + text + "\n")
	b.WriteString("\nResponde SOLO el JSON del veredicto.")
	return b.String()
}

func verdictDetail(v llm.Verdict) string {
	parts := []string{v.Estado}
	if v.Justificacion != "" {
		parts = append(parts, v.Justificacion)
	}
	if v.Evidencia != "" {
		parts = append(parts, "evidencia: "+v.Evidencia)
	}
	return strings.Join(parts, " | ")
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
