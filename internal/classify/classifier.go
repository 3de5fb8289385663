package classify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cquispe/eoi-consolidator/constants"
	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/extract"
	"github.com/cquispe/eoi-consolidator/internal/ocr"
)

// Skip reasons carried on ClassificationError messages; these exact strings
// end up in the skipped-folders report.
const (
	ReasonNoEligibleFile = "SIN_ARCHIVO_ELEGIBLE"
	ReasonOnlyMailPDF    = "SOLO_PDF_TIPO_CORREO"
	ReasonAmbiguous      = "ARCHIVOS_AMBIGUOS"
)

// Warning attached when a low-text PDF cannot go through OCR.
const WarnLowTextOCRDisabled = "LOW_TEXT_PDF_OCR_DISABLED"

// Classifier picks one file per candidate folder and determines its source
// kind. PDFs get a lightweight text probe to tell digital from scanned.
type Classifier struct {
	pdf    common.PDFConfig
	ocr    *ocr.Extractor
	logger *slog.Logger
}

func New(pdf common.PDFConfig, ocrx *ocr.Extractor, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{pdf: pdf, ocr: ocrx, logger: logger}
}

// ListCandidateFolders enumerates the candidate folders of a process in a
// stable, case-insensitive order.
func ListCandidateFolders(eoiDir string) ([]string, error) {
	entries, err := os.ReadDir(eoiDir)
	if err != nil {
		return nil, fmt.Errorf("read eoi dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(eoiDir, e.Name()))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out, nil
}

// ClassifyFolder inspects one candidate folder and returns the chosen source.
// Folders with no eligible file, an unresolvable tie, or only mail-type PDFs
// yield a ClassificationError.
func (c *Classifier) ClassifyFolder(ctx context.Context, folder string) (extract.Source, error) {
	files, err := eligibleFiles(folder)
	if err != nil {
		return extract.Source{}, common.NewClassificationError(fmt.Sprintf("scan folder %s", folder), err)
	}
	if len(files) == 0 {
		return extract.Source{}, common.NewClassificationError(ReasonNoEligibleFile, nil)
	}

	var excels, pdfs []string
	for _, f := range files {
		switch {
		case constants.IsExcelExt(filepath.Ext(f)):
			excels = append(excels, f)
		case constants.IsPDFExt(filepath.Ext(f)):
			pdfs = append(pdfs, f)
		}
	}

	// Spreadsheets win over PDFs whenever present.
	if len(excels) > 0 {
		best, err := pickBest(excels, scoreExcel)
		if err != nil {
			return extract.Source{}, err
		}
		c.logger.Debug("classify.excel", "folder", folder, "file", filepath.Base(best))
		return extract.Source{Folder: folder, Path: best, Kind: constants.SourceExcel}, nil
	}

	best, err := pickBest(pdfs, scorePDF)
	if err != nil {
		return extract.Source{}, err
	}
	if isMailPDFName(filepath.Base(best)) {
		return extract.Source{}, common.NewClassificationError(ReasonOnlyMailPDF, nil)
	}
	return c.classifyPDF(ctx, folder, best)
}

// classifyPDF probes extractable text to distinguish digital-text PDFs from
// scans. Below threshold: OCR when enabled, otherwise keep the text path with
// a quality warning instead of failing.
func (c *Classifier) classifyPDF(ctx context.Context, folder, path string) (extract.Source, error) {
	src := extract.Source{Folder: folder, Path: path, Kind: constants.SourcePDFText}

	res, err := c.ocr.PDFText(ctx, path)
	if err != nil {
		if c.pdf.UseOCR {
			c.logger.Warn("classify.pdf.text_probe_failed", "path", path, "error", err)
			src.Kind = constants.SourcePDFOCR
			src.Warnings = append(src.Warnings, fmt.Sprintf("text probe failed, falling back to OCR: %v", err))
			return src, nil
		}
		return extract.Source{}, common.NewClassificationError(fmt.Sprintf("cannot probe pdf %s", path), err)
	}

	if ocr.IsScanned(res.Pages, c.pdf.MinAvgCharsPerPage, c.pdf.EmptyPageRatio) {
		if c.pdf.UseOCR {
			src.Kind = constants.SourcePDFOCR
		} else {
			src.Warnings = append(src.Warnings, WarnLowTextOCRDisabled)
		}
	}
	c.logger.Debug("classify.pdf", "folder", folder, "file", filepath.Base(path), "kind", src.Kind)
	return src, nil
}

// eligibleFiles lists EOI-eligible files directly under folder and its
// subdirectories, skipping Office lock files.
func eligibleFiles(folder string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if constants.IsTempOfficeFile(name) {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(name))
		if _, ok := constants.AllowedExtensions[ext]; ok {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// pickBest ranks files by score; a tie at the top is ambiguous.
func pickBest(files []string, score func(string) int) (string, error) {
	if len(files) == 1 {
		return files[0], nil
	}
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return score(sorted[i]) > score(sorted[j]) })
	if score(sorted[0]) == score(sorted[1]) {
		return "", common.NewClassificationError(ReasonAmbiguous, nil)
	}
	return sorted[0], nil
}
