package workbook

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/criteria"
	"github.com/cquispe/eoi-consolidator/internal/extract"
)

// Filler writes one candidate's evaluation into an assigned block. All writes
// stay inside the block's two columns between StartRow and EndRow.
type Filler struct {
	wb     *Workbook
	layout Layout
	alloc  *Allocator
	logger *slog.Logger
}

func NewFiller(wb *Workbook, layout Layout, alloc *Allocator, logger *slog.Logger) *Filler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filler{wb: wb, layout: layout, alloc: alloc, logger: logger}
}

// Fill writes the candidate header, per-criterion details and points, and the
// total. Re-filling a block that already holds a different candidate is a
// write conflict; re-filling the same candidate is idempotent.
func (f *Filler) Fill(block Block, rec *extract.CandidateRecord, result criteria.Result) error {
	identity := rec.IdentityKey()
	if existing, ok := f.alloc.Occupied(block.Slot); ok && existing != identity {
		return common.NewWriteConflictError(
			fmt.Sprintf("slot %d holds %q, refusing to overwrite with %q", block.Slot, existing, identity))
	}

	if err := f.wb.SetCell(Cell(block.DetailCol, f.layout.HeaderRow), headerText(rec)); err != nil {
		return err
	}

	for _, score := range result.Scores {
		row, ok := f.layout.CriterionRows[score.RuleID]
		if !ok {
			f.logger.Warn("workbook.fill.unmapped_criterion", "rule_id", score.RuleID)
			continue
		}
		if row < f.layout.StartRow || row > f.layout.EndRow {
			f.logger.Warn("workbook.fill.row_out_of_block", "rule_id", score.RuleID, "row", row)
			continue
		}
		detail := score.Detail
		if detail == "" {
			detail = evidenceText(score)
		}
		if err := f.wb.SetCell(Cell(block.DetailCol, row), detail); err != nil {
			return err
		}
		if err := f.wb.SetCell(Cell(block.ScoreCol, row), score.Points); err != nil {
			return err
		}
	}

	if err := f.wb.SetCell(Cell(block.ScoreCol, f.layout.TotalRow), result.Total); err != nil {
		return err
	}

	f.logger.Info("workbook.fill.ok",
		"slot", block.Slot,
		"candidate", rec.Name,
		"total", result.Total,
		"criteria", len(result.Scores),
	)
	return nil
}

// headerText renders the block header: name plus the identity fields written
// alongside it.
func headerText(rec *extract.CandidateRecord) string {
	parts := []string{rec.Name}
	if v := rec.Field(extract.FieldDNI); v != "" {
		parts = append(parts, "DNI: "+v)
	}
	if v := rec.Field(extract.FieldCelular); v != "" {
		parts = append(parts, "Cel: "+v)
	}
	if v := rec.Field(extract.FieldEmail); v != "" {
		parts = append(parts, "Email: "+v)
	}
	return strings.Join(parts, " | ")
}

func evidenceText(score criteria.CriterionScore) string {
	if len(score.Evidence) == 0 {
		if score.Matched {
			return "cumple"
		}
		return "no cumple"
	}
	words := make([]string, 0, len(score.Evidence))
	for _, m := range score.Evidence {
		words = append(words, m.Keyword)
	}
	return strings.Join(words, ", ")
}
