package criteria

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

const daysPerYear = 365.25

// Engine is the rule-based Scorer. It keeps no per-candidate state: identical
// (input, rules) pairs always yield identical results.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Score evaluates every rule against the candidate input. Unmatched rules
// award zero, never negative. Total is the weighted sum across rules.
func (e *Engine) Score(ctx context.Context, in Input, rules []Rule) (Result, error) {
	res := Result{CandidateID: in.CandidateID, Scores: make([]CriterionScore, 0, len(rules))}
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		cs := e.scoreRule(in, r)
		res.Scores = append(res.Scores, cs)
		res.Total += r.EffectiveWeight() * cs.Points
	}
	e.logger.Debug("criteria.scored", "candidate", in.CandidateID, "rules", len(rules), "total", res.Total)
	return res, nil
}

func (e *Engine) scoreRule(in Input, r Rule) CriterionScore {
	cs := CriterionScore{RuleID: r.ID}
	switch r.Mode {
	case ModeThreshold:
		days := in.GeneralExpDays
		if r.Field == FieldExpEspecifi {
			days = in.SpecificExpDays
		}
		years := float64(days) / daysPerYear
		cs.Detail = fmt.Sprintf("%.2f años efectivos (umbral %.2f)", years, r.ThresholdYears)
		if years >= r.ThresholdYears {
			cs.Matched = true
			cs.Points = r.Points
		}
	case ModePresence:
		ev := FindKeywords(e.textFor(in, r), r.Keywords)
		if len(ev) > 0 {
			cs.Matched = true
			cs.Points = r.Points
			cs.Evidence = ev
		}
	case ModeCount:
		ev := FindKeywords(e.textFor(in, r), r.Keywords)
		if len(ev) > 0 {
			cs.Matched = true
			cs.Evidence = ev
			pts := float64(len(ev)) * r.Points
			if r.MaxPoints > 0 {
				pts = math.Min(pts, r.MaxPoints)
			}
			cs.Points = pts
		}
	}
	return cs
}

func (e *Engine) textFor(in Input, r Rule) string {
	if r.Field == FieldCourses {
		return strings.Join(in.Courses, "\n")
	}
	return in.Text
}
