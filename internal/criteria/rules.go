package criteria

import (
	"context"
	"errors"
	"fmt"
)

// Mode selects how a rule's keywords and thresholds award points.
type Mode string

const (
	// ModePresence awards the rule's points when any keyword matches.
	ModePresence Mode = "presence"
	// ModeCount awards points per distinct keyword match, capped at MaxPoints.
	ModeCount Mode = "count"
	// ModeThreshold compares effective experience years against ThresholdYears.
	ModeThreshold Mode = "threshold"
)

// Fields a rule can target. Empty means the candidate's full text blob.
const (
	FieldText        = "text"
	FieldCourses     = "courses"
	FieldExpGeneral  = "exp_general"
	FieldExpEspecifi = "exp_especifica"
)

// Rule is one configured scoring criterion. Loaded from configuration and
// read-only during a run.
type Rule struct {
	ID             string   `json:"id"`
	Description    string   `json:"descripcion,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Mode           Mode     `json:"mode"`
	Weight         float64  `json:"weight,omitempty"`
	Points         float64  `json:"points,omitempty"`
	MaxPoints      float64  `json:"max_points,omitempty"`
	ThresholdYears float64  `json:"threshold_years,omitempty"`
	Field          string   `json:"field,omitempty"`
}

// EffectiveWeight treats an unset weight as 1.
func (r Rule) EffectiveWeight() float64 {
	if r.Weight == 0 {
		return 1
	}
	return r.Weight
}

func (r Rule) Validate() error {
	if r.ID == "" {
		return errors.New("rule id is required")
	}
	switch r.Mode {
	case ModePresence, ModeCount:
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %s: mode %s requires keywords", r.ID, r.Mode)
		}
	case ModeThreshold:
		if r.ThresholdYears <= 0 {
			return fmt.Errorf("rule %s: mode threshold requires threshold_years > 0", r.ID)
		}
		if r.Field != FieldExpGeneral && r.Field != FieldExpEspecifi {
			return fmt.Errorf("rule %s: mode threshold requires field exp_general or exp_especifica", r.ID)
		}
	default:
		return fmt.Errorf("rule %s: unknown mode %q", r.ID, r.Mode)
	}
	if r.Weight < 0 || r.Points < 0 || r.MaxPoints < 0 {
		return fmt.Errorf("rule %s: negative weight/points", r.ID)
	}
	return nil
}

// Input is the candidate view the engine scores. It is a value type so the
// engine stays pure with respect to its inputs.
type Input struct {
	CandidateID     string
	Text            string
	Courses         []string
	GeneralExpDays  int
	SpecificExpDays int
}

// Match is one piece of keyword evidence: the keyword and its first-match
// offset in the folded text.
type Match struct {
	Keyword string `json:"keyword"`
	Offset  int    `json:"offset"`
}

// CriterionScore is the outcome of one rule against one candidate.
type CriterionScore struct {
	RuleID   string  `json:"rule_id"`
	Points   float64 `json:"points"`
	Matched  bool    `json:"matched"`
	Evidence []Match `json:"evidence,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// Result is one candidate's full score sheet. Produced once, never mutated.
type Result struct {
	CandidateID string           `json:"candidate_id"`
	Scores      []CriterionScore `json:"scores"`
	Total       float64          `json:"total"`
}

// Scorer evaluates a candidate against the configured rules. The rule engine
// and the OpenAI-backed evaluator both implement it.
type Scorer interface {
	Score(ctx context.Context, in Input, rules []Rule) (Result, error)
}
