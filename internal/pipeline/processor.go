// Package pipeline orchestrates a full consolidation run: classify each
// candidate folder, extract its record, score it, fill the evaluation
// workbook and write the consolidated outputs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cquispe/eoi-consolidator/constants"
	"github.com/cquispe/eoi-consolidator/internal/classify"
	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/criteria"
	"github.com/cquispe/eoi-consolidator/internal/export"
	"github.com/cquispe/eoi-consolidator/internal/extract"
	"github.com/cquispe/eoi-consolidator/internal/llm/openai"
	"github.com/cquispe/eoi-consolidator/internal/ocr"
	"github.com/cquispe/eoi-consolidator/internal/runlog"
	"github.com/cquispe/eoi-consolidator/internal/workbook"
)

// WarnNoFreeBlock marks parsed candidates left out of the evaluation workbook
// because the template ran out of block slots.
const WarnNoFreeBlock = "SIN_BLOQUE_DISPONIBLE"

// CandidateResult is everything the run learned about one candidate folder.
// Extraction failures keep the folder in the result set with a FAILED status.
type CandidateResult struct {
	Folder string
	Source extract.Source
	Record *extract.CandidateRecord
	Score  criteria.Result
	Status constants.CandidateStatus
	Err    error
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID   uuid.UUID
	Results []CandidateResult
	Parsed  int
	Skipped int
	Failed  int
}

// Processor wires the pipeline stages. Extraction runs in parallel; workbook
// and consolidation writes stay sequential.
type Processor struct {
	cfg        *common.Config
	classifier *classify.Classifier
	excel      extract.Extractor
	pdf        extract.Extractor
	scorer     criteria.Scorer
	store      *runlog.Store
	logger     *slog.Logger
}

func NewProcessor(cfg *common.Config, store *runlog.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:   cfg.OCR.Pdftotext,
		Pdftoppm:    cfg.OCR.Pdftoppm,
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.Lang,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
		TessdataDir: cfg.OCR.TessdataDir,
		Timeout:     cfg.OCR.Timeout,
	}, logger)

	return &Processor{
		cfg:        cfg,
		classifier: classify.New(cfg.PDF, ocrx, logger),
		excel:      extract.NewExcelExtractor(cfg.Excel, logger),
		pdf:        extract.NewPDFExtractor(ocrx, logger),
		scorer:     BuildScorer(cfg, logger),
		store:      store,
		logger:     logger,
	}
}

// BuildScorer selects the criteria backend from configuration.
func BuildScorer(cfg *common.Config, logger *slog.Logger) criteria.Scorer {
	if cfg.Scorer == "openai" {
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}
	return criteria.NewEngine(logger)
}

// Run executes the full pipeline for one selection process directory.
func (p *Processor) Run(ctx context.Context, processDir string) (*RunReport, error) {
	report, err := p.Collect(ctx, processDir)
	if err != nil {
		return nil, err
	}
	if err := p.FillWorkbook(ctx, processDir, report); err != nil {
		return report, err
	}
	if err := p.Export(ctx, processDir, report); err != nil {
		return report, err
	}
	return report, nil
}

// Collect runs classification, extraction and scoring for every candidate
// folder. Folder order of the input listing is preserved in Results; worker
// parallelism only affects wall time.
func (p *Processor) Collect(ctx context.Context, processDir string) (*RunReport, error) {
	eoiDir := filepath.Join(processDir, p.cfg.Folders.EOIReceived)
	folders, err := classify.ListCandidateFolders(eoiDir)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("list candidate folders in %s", eoiDir), err)
	}

	report := &RunReport{RunID: uuid.New(), Results: make([]CandidateResult, len(folders))}
	p.logger.Info("pipeline.collect.start", "run_id", report.RunID, "folders", len(folders), "parallelism", p.cfg.Parallelism)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism)
	for i, folder := range folders {
		g.Go(func() error {
			report.Results[i] = p.processFolder(gctx, report.RunID, folder)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range report.Results {
		switch r.Status {
		case constants.StatusParsed:
			report.Parsed++
		case constants.StatusSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	p.logger.Info("pipeline.collect.done",
		"run_id", report.RunID,
		"parsed", report.Parsed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// processFolder runs the per-candidate stages. Any error is captured on the
// result; one bad folder never stops the run.
func (p *Processor) processFolder(ctx context.Context, runID uuid.UUID, folder string) CandidateResult {
	res := CandidateResult{Folder: folder}
	p.record(ctx, runID, folder, runlog.StageClassify, constants.StageQueued, "")

	src, err := p.classifier.ClassifyFolder(ctx, folder)
	if err != nil {
		res.Err = err
		res.Status = constants.StatusFailed
		if isSkip(err) {
			res.Status = constants.StatusSkipped
		}
		p.record(ctx, runID, folder, runlog.StageClassify, constants.StageFailed, err.Error())
		p.logger.Warn("pipeline.classify", "folder", folder, "status", res.Status, "error", err)
		return res
	}
	res.Source = src
	p.record(ctx, runID, folder, runlog.StageClassify, constants.StageClassified, string(src.Kind))

	rec, err := p.extractorFor(src.Kind).Extract(ctx, src)
	if err != nil {
		res.Err = err
		res.Status = constants.StatusFailed
		p.record(ctx, runID, folder, runlog.StageExtract, constants.StageFailed, err.Error())
		p.logger.Error("pipeline.extract", "folder", folder, "error", err)
		return res
	}
	res.Record = rec
	p.record(ctx, runID, folder, runlog.StageExtract, constants.StageExtracted, rec.Name)

	score, err := p.scorer.Score(ctx, criteria.Input{
		CandidateID:     rec.ID.String(),
		Text:            rec.Text,
		Courses:         rec.Courses,
		GeneralExpDays:  rec.GeneralExp.TotalDays,
		SpecificExpDays: rec.SpecificExp.TotalDays,
	}, p.cfg.Criteria)
	if err != nil {
		res.Err = err
		res.Status = constants.StatusFailed
		p.record(ctx, runID, folder, runlog.StageScore, constants.StageFailed, err.Error())
		p.logger.Error("pipeline.score", "folder", folder, "error", err)
		return res
	}
	res.Score = score
	res.Status = constants.StatusParsed
	p.record(ctx, runID, folder, runlog.StageScore, constants.StageScored, fmt.Sprintf("total=%.2f", score.Total))
	return res
}

func (p *Processor) extractorFor(kind constants.SourceKind) extract.Extractor {
	if kind == constants.SourceExcel {
		return p.excel
	}
	return p.pdf
}

// FillWorkbook writes every parsed candidate into the committee evaluation
// template. A full template aborts the stage; partial writes before the
// capacity error are kept and saved.
func (p *Processor) FillWorkbook(ctx context.Context, processDir string, report *RunReport) error {
	templatePath, err := p.FindTemplate(processDir)
	if err != nil {
		return err
	}
	wb, err := workbook.Open(templatePath, p.cfg.Template.Sheet, p.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			p.logger.Warn("pipeline.workbook_close", "error", cerr)
		}
	}()

	layout := workbook.NewLayout(p.cfg.Template)
	alloc, err := workbook.NewAllocator(wb, layout)
	if err != nil {
		return err
	}
	filler := workbook.NewFiller(wb, layout, alloc, p.logger)

	var fillErr error
	for i := range report.Results {
		r := &report.Results[i]
		if r.Status != constants.StatusParsed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		block, err := alloc.Assign(r.Record.IdentityKey())
		if err != nil {
			fillErr = err
			p.record(ctx, report.RunID, r.Folder, runlog.StageFill, constants.StageFailed, err.Error())
			// everything parsed but not yet placed stays out of the workbook;
			// flag it so the consolidated outputs do not imply placement
			for j := i; j < len(report.Results); j++ {
				rr := &report.Results[j]
				if rr.Status == constants.StatusParsed && rr.Record != nil {
					rr.Record.Warnings = append(rr.Record.Warnings, WarnNoFreeBlock)
				}
			}
			break
		}
		if err := filler.Fill(block, r.Record, r.Score); err != nil {
			r.Err = err
			r.Status = constants.StatusFailed
			p.record(ctx, report.RunID, r.Folder, runlog.StageFill, constants.StageFailed, err.Error())
			p.logger.Error("pipeline.fill", "folder", r.Folder, "error", err)
			continue
		}
		p.record(ctx, report.RunID, r.Folder, runlog.StageFill, constants.StageFilled, fmt.Sprintf("slot=%d", block.Slot))
	}

	if err := wb.SaveAs(templatePath); err != nil {
		return err
	}
	return fillErr
}

// Export writes the consolidated CSV, JSONL and XLSX next to the template.
func (p *Processor) Export(ctx context.Context, processDir string, report *RunReport) error {
	outDir := filepath.Join(processDir, p.cfg.Folders.Committee)
	rows := BuildRows(report)
	ruleIDs := make([]string, 0, len(p.cfg.Criteria))
	for _, r := range p.cfg.Criteria {
		ruleIDs = append(ruleIDs, r.ID)
	}

	w := export.NewWriter(p.logger)
	if err := w.WriteCSV(filepath.Join(outDir, "consolidado.csv"), ruleIDs, rows); err != nil {
		return err
	}
	if err := w.WriteJSONL(filepath.Join(outDir, "consolidado.jsonl"), rows); err != nil {
		return err
	}
	if err := w.WriteXLSX(filepath.Join(outDir, "consolidado.xlsx"), ruleIDs, rows); err != nil {
		return err
	}
	if err := w.WriteSelectionCSVs(
		filepath.Join(outDir, "files_selected.csv"),
		filepath.Join(outDir, "files_skipped.csv"),
		rows,
	); err != nil {
		return err
	}
	p.record(ctx, report.RunID, processDir, runlog.StageExport, constants.StageFilled, fmt.Sprintf("rows=%d", len(rows)))
	return nil
}

// FindTemplate locates the evaluation workbook in the committee folder by its
// configured file prefix.
func (p *Processor) FindTemplate(processDir string) (string, error) {
	dir := filepath.Join(processDir, p.cfg.Folders.Committee)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", common.NewAppError(common.CodeConfig, fmt.Sprintf("read committee dir %s", dir), err)
	}
	for _, e := range entries {
		if e.IsDir() || constants.IsTempOfficeFile(e.Name()) {
			continue
		}
		if !strings.HasPrefix(e.Name(), p.cfg.Template.FilePrefix) {
			continue
		}
		if constants.IsExcelExt(filepath.Ext(e.Name())) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", common.NewAppError(common.CodeConfig,
		fmt.Sprintf("no %s*.xlsx template under %s", p.cfg.Template.FilePrefix, dir), common.ErrNotFound)
}

// BuildRows flattens run results into consolidation rows, one per folder, in
// listing order.
func BuildRows(report *RunReport) []export.Row {
	rows := make([]export.Row, 0, len(report.Results))
	for _, r := range report.Results {
		row := export.Row{
			Folder: filepath.Base(r.Folder),
			Status: r.Status,
		}
		if r.Source.Path != "" {
			row.File = filepath.Base(r.Source.Path)
			row.Kind = r.Source.Kind
		} else {
			// never classified: no file won the selection
			row.Kind = constants.SourceUnknown
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		if rec := r.Record; rec != nil {
			row.Name = rec.Name
			row.DNI = rec.Field(extract.FieldDNI)
			row.Email = rec.Field(extract.FieldEmail)
			row.Celular = rec.Field(extract.FieldCelular)
			row.Titulo = rec.Field(extract.FieldTitulo)
			row.ExpGeneral = extract.FormatYMD(rec.GeneralExp.TotalDays)
			row.ExpEspecifica = extract.FormatYMD(rec.SpecificExp.TotalDays)
			row.Confidence = rec.Confidence
			row.Warnings = rec.Warnings
		}
		if len(r.Score.Scores) > 0 {
			row.Scores = map[string]float64{}
			for _, s := range r.Score.Scores {
				row.Scores[s.RuleID] = s.Points
			}
			row.Total = r.Score.Total
		}
		rows = append(rows, row)
	}
	return rows
}

// isSkip tells folder-level skips (no usable file) apart from hard failures.
func isSkip(err error) bool {
	if !common.IsCode(err, common.CodeClassification) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, classify.ReasonNoEligibleFile) ||
		strings.Contains(msg, classify.ReasonOnlyMailPDF) ||
		strings.Contains(msg, classify.ReasonAmbiguous)
}

// record writes a runlog event when a store is attached.
func (p *Processor) record(ctx context.Context, runID uuid.UUID, folder, stage string, status constants.StageStatus, detail string) {
	if p.store == nil {
		return
	}
	ev := runlog.Event{RunID: runID, Folder: folder, Stage: stage, Status: status, Detail: detail}
	if err := p.store.Record(ctx, ev); err != nil {
		p.logger.Warn("pipeline.runlog_error", "folder", folder, "stage", stage, "error", err)
	}
}
