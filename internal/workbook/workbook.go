package workbook

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/cquispe/eoi-consolidator/internal/common"
)

// Workbook wraps one open evaluation template. Writes go through SetCell,
// which redirects any cell inside a merged range to the range anchor so
// excelize never corrupts the template's merges.
type Workbook struct {
	file    *excelize.File
	sheet   string
	anchors map[string]string // cell -> merge anchor
	logger  *slog.Logger
}

// Open loads the template at path and resolves the working sheet. An empty
// sheet name falls back to the first sheet.
func Open(path, sheet string, logger *slog.Logger) (*Workbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("open template %s", path), err)
	}
	if sheet != "" {
		if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
			sheet = ""
		}
	}
	if sheet == "" {
		sheet = f.GetSheetList()[0]
	}
	wb := &Workbook{file: f, sheet: sheet, logger: logger}
	if err := wb.indexMerges(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return wb, nil
}

func (w *Workbook) Sheet() string { return w.sheet }

func (w *Workbook) Close() error { return w.file.Close() }

// SaveAs writes the filled workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	w.logger.Info("workbook.saved", "path", path)
	return nil
}

// GetCell reads a cell value, following merges to the anchor.
func (w *Workbook) GetCell(cell string) (string, error) {
	return w.file.GetCellValue(w.sheet, w.anchor(cell))
}

// SetCell writes a value at the cell's merge anchor.
func (w *Workbook) SetCell(cell string, value any) error {
	if err := w.file.SetCellValue(w.sheet, w.anchor(cell), value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}

func (w *Workbook) anchor(cell string) string {
	if a, ok := w.anchors[cell]; ok {
		return a
	}
	return cell
}

// indexMerges maps every cell of every merged range to the range's top-left
// anchor.
func (w *Workbook) indexMerges() error {
	merges, err := w.file.GetMergeCells(w.sheet)
	if err != nil {
		return fmt.Errorf("read merged cells: %w", err)
	}
	w.anchors = map[string]string{}
	for _, m := range merges {
		anchor := m.GetStartAxis()
		c1, r1, err := excelize.CellNameToCoordinates(anchor)
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		for c := c1; c <= c2; c++ {
			for r := r1; r <= r2; r++ {
				name, err := excelize.CoordinatesToCellName(c, r)
				if err != nil {
					continue
				}
				w.anchors[name] = anchor
			}
		}
	}
	return nil
}

// Cell builds an A1 reference from 1-based column and row.
func Cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}
