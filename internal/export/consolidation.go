package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cquispe/eoi-consolidator/constants"
)

// Row is one consolidated line per input folder. Skipped and failed folders
// still produce a row so the consolidation always accounts for every
// candidate directory.
type Row struct {
	Folder        string                    `json:"carpeta"`
	File          string                    `json:"archivo,omitempty"`
	Status        constants.CandidateStatus `json:"estado"`
	Kind          constants.SourceKind      `json:"tipo_fuente,omitempty"`
	Name          string                    `json:"nombre,omitempty"`
	DNI           string                    `json:"dni,omitempty"`
	Email         string                    `json:"email,omitempty"`
	Celular       string                    `json:"celular,omitempty"`
	Titulo        string                    `json:"titulo,omitempty"`
	ExpGeneral    string                    `json:"exp_general,omitempty"`
	ExpEspecifica string                    `json:"exp_especifica,omitempty"`
	Scores        map[string]float64        `json:"puntajes,omitempty"`
	Total         float64                   `json:"total"`
	Confidence    float32                   `json:"confianza,omitempty"`
	Warnings      []string                  `json:"advertencias,omitempty"`
	Error         string                    `json:"error,omitempty"`
}

// Writer produces the consolidation artifacts. Row order is preserved exactly
// as given; callers pass rows in folder order.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// header builds the flat column list: fixed identity columns, one score
// column per rule in configured order, then totals and diagnostics.
func header(ruleIDs []string) []string {
	cols := []string{
		"carpeta", "archivo", "estado", "tipo_fuente",
		"nombre", "dni", "email", "celular", "titulo",
		"exp_general", "exp_especifica",
	}
	for _, id := range ruleIDs {
		cols = append(cols, "puntaje_"+id)
	}
	return append(cols, "total", "confianza", "advertencias", "error")
}

func (r Row) values(ruleIDs []string) []string {
	vals := []string{
		r.Folder, r.File, string(r.Status), string(r.Kind),
		r.Name, r.DNI, r.Email, r.Celular, r.Titulo,
		r.ExpGeneral, r.ExpEspecifica,
	}
	for _, id := range ruleIDs {
		if v, ok := r.Scores[id]; ok {
			vals = append(vals, trimFloat(v))
		} else {
			vals = append(vals, "")
		}
	}
	return append(vals,
		trimFloat(r.Total),
		fmt.Sprintf("%.2f", r.Confidence),
		strings.Join(r.Warnings, "; "),
		r.Error,
	)
}

// WriteCSV writes the consolidation as UTF-8 CSV with a BOM so Excel opens
// the Spanish headers correctly.
func (w *Writer) WriteCSV(path string, ruleIDs []string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer closeLogged(f, path, w.logger)

	if _, err := f.WriteString("\xef\xbb\xbf"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header(ruleIDs)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.values(ruleIDs)); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.Folder, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	w.logger.Info("export.csv.ok", "path", path, "rows", len(rows))
	return nil
}

// WriteJSONL writes one JSON object per line, same order as the CSV.
func (w *Writer) WriteJSONL(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create jsonl %s: %w", path, err)
	}
	defer closeLogged(f, path, w.logger)

	enc := json.NewEncoder(f)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode row %s: %w", r.Folder, err)
		}
	}
	w.logger.Info("export.jsonl.ok", "path", path, "rows", len(rows))
	return nil
}

// WriteXLSX writes the consolidation workbook with a single "consolidado"
// sheet.
func (w *Writer) WriteXLSX(path string, ruleIDs []string, rows []Row) error {
	f := excelize.NewFile()
	const sheet = "consolidado"
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
	}
	idx, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(idx)
	if first := f.GetSheetList()[0]; first != sheet {
		_ = f.DeleteSheet(first)
	}

	for c, h := range header(ruleIDs) {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for ri, r := range rows {
		for c, v := range r.values(ruleIDs) {
			cell, _ := excelize.CoordinatesToCellName(c+1, ri+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "E", "E", 28)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %s: %w", path, err)
	}
	w.logger.Info("export.xlsx.ok", "path", path, "rows", len(rows))
	return nil
}

// WriteSelectionCSVs writes the file-selection report: which file won in each
// folder, and why the rest of the folders produced nothing.
func (w *Writer) WriteSelectionCSVs(selectedPath, skippedPath string, rows []Row) error {
	selected := [][]string{{"carpeta", "archivo", "tipo_fuente"}}
	skipped := [][]string{{"carpeta", "motivo"}}
	for _, r := range rows {
		if r.File != "" {
			selected = append(selected, []string{r.Folder, r.File, string(r.Kind)})
			continue
		}
		skipped = append(skipped, []string{r.Folder, r.Error})
	}
	if err := w.writeRawCSV(selectedPath, selected); err != nil {
		return err
	}
	return w.writeRawCSV(skippedPath, skipped)
}

func (w *Writer) writeRawCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer closeLogged(f, path, w.logger)

	if _, err := f.WriteString("\xef\xbb\xbf"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	w.logger.Info("export.csv.ok", "path", path, "rows", len(records)-1)
	return nil
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func closeLogged(f *os.File, path string, logger *slog.Logger) {
	if err := f.Close(); err != nil {
		logger.Warn("export.close_error", "path", path, "error", err)
	}
}
