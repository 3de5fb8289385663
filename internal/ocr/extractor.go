package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang     string // default "spa" (EOI forms are Spanish)
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit

	TessdataDir string
	Timeout     time.Duration // per external call; 0 = no timeout
}

// Result is the outcome of one text extraction attempt over a PDF.
type Result struct {
	Text     string
	Pages    []string // per-page text, form-feed split
	Method   string   // "pdf-text" | "pdf-ocr"
	Duration time.Duration
	Warnings []string
}

// Extractor shells out to poppler for text and rasterization and to tesseract
// for OCR.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "spa"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// NewExtractorWithRunner is used by tests to stub the external binaries.
func NewExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	e := NewExtractor(cfg, logger)
	e.runner = r
	return e
}

func (e *Extractor) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// PDFText runs the digital-text extraction path (pdftotext).
func (e *Extractor) PDFText(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	cctx, cancel := e.callCtx(ctx)
	defer cancel()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(cctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Method: "pdf-text", Warnings: []string{string(errb)}}, fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// pdftotext separates pages with a form feed
	pages := strings.Split(text, "\f")
	return Result{
		Text:     Normalize(text),
		Pages:    pages,
		Method:   "pdf-text",
		Duration: time.Since(start),
	}, nil
}

// PDFOCR rasterizes each page and runs tesseract over the images.
func (e *Extractor) PDFOCR(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "eoi-pp-*")
	if err != nil {
		return Result{Method: "pdf-ocr"}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	cctx, cancel := e.callCtx(ctx)
	defer cancel()

	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(cctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return Result{Method: "pdf-ocr", Warnings: []string{string(errb)}}, fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{Method: "pdf-ocr", Warnings: []string{"pdftoppm produced no images"}}, fmt.Errorf("no pages rendered")
	}

	var warns []string
	pages := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, w, ocrErr := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if ocrErr != nil {
			warns = append(warns, ocrErr.Error())
			pages = append(pages, "")
			continue
		}
		pages = append(pages, txt)
	}
	return Result{
		Text:     Normalize(strings.Join(pages, "\n\f\n")),
		Pages:    pages,
		Method:   "pdf-ocr",
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	cctx, cancel := e.callCtx(ctx)
	defer cancel()

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(cctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil, nil
}

// IsScanned applies the scanned-PDF heuristic over per-page text: low average
// characters per page, or a high share of near-empty pages.
func IsScanned(pages []string, minAvgChars int, emptyPageRatio float64) bool {
	if len(pages) == 0 {
		return false
	}
	total := 0
	nonEmpty := 0
	for _, p := range pages {
		n := len(strings.TrimSpace(p))
		total += n
		if n >= 10 {
			nonEmpty++
		}
	}
	avg := float64(total) / float64(len(pages))
	emptyRatio := 1 - float64(nonEmpty)/float64(len(pages))
	return avg < float64(minAvgChars) || emptyRatio >= emptyPageRatio
}
