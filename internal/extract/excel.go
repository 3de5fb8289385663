package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/cquispe/eoi-consolidator/internal/common"
)

// specificRoleMarkers flag an experience row as specific (IT) experience.
var specificRoleMarkers = []string{"DESARROL", "PROGRAM", "ANALISTA", "SISTEM", "SOFTWARE"}

// labelAliases drive the fallback scan when the configured cell mapping
// misses a required field (the form shifts a few rows between versions).
var labelAliases = map[string][]string{
	FieldDNI:     {"dni", "documento de identidad"},
	FieldNombres: {"nombres"},
	FieldEmail:   {"correo", "email", "e-mail"},
	FieldCelular: {"celular"},
}

// ExcelExtractor reads the native EOI spreadsheet: known cell positions first,
// then a label scan over all cells for anything the mapping missed.
type ExcelExtractor struct {
	cfg    common.ExcelConfig
	logger *slog.Logger
}

func NewExcelExtractor(cfg common.ExcelConfig, logger *slog.Logger) *ExcelExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelExtractor{cfg: cfg, logger: logger}
}

func (x *ExcelExtractor) Extract(ctx context.Context, src Source) (*CandidateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, common.NewExtractionError(fmt.Sprintf("open workbook %s", src.Path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			x.logger.Warn("close workbook", "path", src.Path, "error", cerr)
		}
	}()

	sheet := x.cfg.Sheet
	if sheet != "" {
		if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
			sheet = ""
		}
	}
	if sheet == "" {
		sheet = f.GetSheetList()[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, common.NewExtractionError(fmt.Sprintf("read sheet %s", sheet), err)
	}

	rec := &CandidateRecord{
		ID:     uuid.New(),
		Folder: src.Folder,
		File:   src.Path,
		Kind:   src.Kind,
		Fields: map[string]string{},
	}
	rec.Warnings = append(rec.Warnings, src.Warnings...)

	// Primary mapping: configured cell addresses.
	for field, addr := range x.cfg.Cells {
		v, cellErr := f.GetCellValue(sheet, addr)
		if cellErr != nil {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("cell %s (%s): %v", addr, field, cellErr))
			continue
		}
		rec.Fields[field] = Norm(v)
	}

	// Fallback: scan all cells for recognizable labels.
	for field, aliases := range labelAliases {
		if rec.Fields[field] != "" {
			continue
		}
		if v := scanForLabel(rows, aliases); v != "" {
			rec.Fields[field] = v
			rec.Warnings = append(rec.Warnings, "FIELD_BY_LABEL_SCAN:"+field)
		}
	}

	rec.Fields[FieldDNI] = NormalizeDNI(rec.Fields[FieldDNI])
	rec.Fields[FieldEmail] = NormalizeEmail(rec.Fields[FieldEmail])
	rec.Fields[FieldCelular] = NormalizePhone(rec.Fields[FieldCelular])
	rec.Name = Norm(rec.Fields[FieldNombres] + " " + rec.Fields[FieldApPaterno] + " " + rec.Fields[FieldApMaterno])

	rec.Courses = x.readCourses(rows)
	general, specific := x.readExperience(rows)
	rec.GeneralExp = BuildExperience(general)
	rec.SpecificExp = BuildExperience(specific)

	rec.Text = flattenCells(rows)
	if Norm(rec.Text) == "" {
		return nil, common.NewExtractionError(fmt.Sprintf("no text obtainable from %s", src.Path), nil)
	}
	rec.Confidence = 0.95
	rec.Warnings = append(rec.Warnings, missingFieldWarnings(rec)...)

	x.logger.Info("extract.excel.ok", "path", src.Path, "sheet", sheet, "name", rec.Name, "warnings", len(rec.Warnings))
	return rec, nil
}

// readCourses walks the repeatable training block and keeps entry texts,
// filtering out the form's own captions.
func (x *ExcelExtractor) readCourses(rows [][]string) []string {
	var out []string
	seen := map[string]struct{}{}
	for r := x.cfg.CourseRowFrom; r <= x.cfg.CourseRowTo; r++ {
		v := Norm(cellAt(rows, r, x.cfg.CourseColumn))
		if v == "" {
			continue
		}
		up := strings.ToUpper(v)
		if strings.Contains(up, "CAPACIT") || strings.Contains(up, "DESEABLE") || up == "N°" {
			continue
		}
		if _, dup := seen[up]; dup {
			continue
		}
		seen[up] = struct{}{}
		out = append(out, v)
	}
	return out
}

// readExperience reads the fixed experience rows of the form:
// entity (D), project (F), role (G), start (H), end (I).
func (x *ExcelExtractor) readExperience(rows [][]string) (general, specific []ExperienceItem) {
	for _, r := range x.cfg.ExperienceRows {
		it := ExperienceItem{
			Entity:  Norm(cellAt(rows, r, 4)),
			Project: Norm(cellAt(rows, r, 6)),
			Role:    Norm(cellAt(rows, r, 7)),
		}
		it.Start, _ = ParseDate(cellAt(rows, r, 8))
		it.End, _ = ParseDate(cellAt(rows, r, 9))
		if it.Entity == "" && it.Project == "" && it.Role == "" && it.Start.IsZero() && it.End.IsZero() {
			continue
		}
		general = append(general, it)
		up := strings.ToUpper(it.Role + " " + it.Project)
		for _, marker := range specificRoleMarkers {
			if strings.Contains(up, marker) {
				specific = append(specific, it)
				break
			}
		}
	}
	return general, specific
}

// cellAt returns the cell at 1-based (row, col), tolerating ragged rows.
func cellAt(rows [][]string, row, col int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	r := rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

// scanForLabel finds a cell whose text contains any alias and returns the
// first non-empty, non-label value to its right or directly below.
func scanForLabel(rows [][]string, aliases []string) string {
	isLabel := func(s string) bool {
		low := foldIdentity(s)
		for _, a := range aliases {
			if strings.Contains(low, a) {
				return true
			}
		}
		return false
	}
	for ri, row := range rows {
		for ci, cell := range row {
			if Norm(cell) == "" || !isLabel(cell) {
				continue
			}
			for _, cand := range neighborValues(rows, ri, ci) {
				if v := Norm(cand); v != "" && !isLabel(v) {
					return v
				}
			}
		}
	}
	return ""
}

func neighborValues(rows [][]string, ri, ci int) []string {
	var out []string
	row := rows[ri]
	for c := ci + 1; c < len(row) && c <= ci+3; c++ {
		out = append(out, row[c])
	}
	if ri+1 < len(rows) && ci < len(rows[ri+1]) {
		out = append(out, rows[ri+1][ci])
	}
	return out
}

// flattenCells joins every non-empty cell in row-major order into the text
// blob the criteria engine matches against.
func flattenCells(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		wrote := false
		for _, cell := range row {
			if v := Norm(cell); v != "" {
				if wrote {
					b.WriteString(" ")
				}
				b.WriteString(v)
				wrote = true
			}
		}
		if wrote {
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}
