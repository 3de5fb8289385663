package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cquispe/eoi-consolidator/constants"
	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/ocr"
)

// Confidence baselines per extraction path. OCR output is treated as lower
// confidence: unmatched fields stay empty with a warning, never guessed.
const (
	confidencePDFText float32 = 0.9
	confidencePDFOCR  float32 = 0.6
)

// PDFExtractor handles both the digital-text and OCR paths; the source kind
// decides which one runs.
type PDFExtractor struct {
	ocr    *ocr.Extractor
	logger *slog.Logger
}

func NewPDFExtractor(ocrx *ocr.Extractor, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{ocr: ocrx, logger: logger}
}

func (x *PDFExtractor) Extract(ctx context.Context, src Source) (*CandidateRecord, error) {
	var res ocr.Result
	var err error
	switch src.Kind {
	case constants.SourcePDFOCR:
		res, err = x.ocr.PDFOCR(ctx, src.Path)
	case constants.SourcePDFText:
		res, err = x.ocr.PDFText(ctx, src.Path)
	default:
		return nil, common.NewExtractionError(fmt.Sprintf("pdf extractor cannot handle kind %s", src.Kind), nil)
	}
	if err != nil {
		return nil, common.NewExtractionError(fmt.Sprintf("extract text from %s", src.Path), err)
	}
	if Norm(res.Text) == "" {
		return nil, common.NewExtractionError(fmt.Sprintf("no text obtainable from %s", src.Path), nil)
	}

	rec := recordFromText(src, res.Text)
	rec.Warnings = append(rec.Warnings, res.Warnings...)
	rec.Confidence = confidencePDFText
	if src.Kind == constants.SourcePDFOCR {
		rec.Confidence = confidencePDFOCR
	}

	x.logger.Info("extract.pdf.ok",
		"path", src.Path,
		"method", res.Method,
		"pages", len(res.Pages),
		"name", rec.Name,
		"warnings", len(rec.Warnings),
	)
	return rec, nil
}

// recordFromText applies the labeled-field patterns shared by the digital and
// OCR paths and assembles a CandidateRecord.
func recordFromText(src Source, text string) *CandidateRecord {
	rec := &CandidateRecord{
		ID:     uuid.New(),
		Folder: src.Folder,
		File:   src.Path,
		Kind:   src.Kind,
		Fields: map[string]string{},
		Text:   text,
	}
	rec.Warnings = append(rec.Warnings, src.Warnings...)

	paterno, materno, nombres, full := extractNameParts(text)
	rec.Fields[FieldApPaterno] = paterno
	rec.Fields[FieldApMaterno] = materno
	rec.Fields[FieldNombres] = nombres
	rec.Name = full

	for k, v := range extractContact(text) {
		rec.Fields[k] = v
	}
	for k, v := range extractEducation(text) {
		rec.Fields[k] = v
	}
	rec.Fields[FieldDNI] = NormalizeDNI(rec.Fields[FieldDNI])
	rec.Fields[FieldEmail] = NormalizeEmail(rec.Fields[FieldEmail])
	rec.Fields[FieldCelular] = NormalizePhone(rec.Fields[FieldCelular])

	rec.Courses = extractCourses(text)

	secGeneral := sliceSection(text, "EXPERIENCIA GENERAL", "EXPERIENCIA ESPEC")
	secSpecific := sliceSection(text, "EXPERIENCIA ESPEC", "")
	rec.GeneralExp = BuildExperience(extractDatePairs(secGeneral))
	rec.SpecificExp = BuildExperience(extractDatePairs(secSpecific))

	rec.Warnings = append(rec.Warnings, missingFieldWarnings(rec)...)
	return rec
}

// missingFieldWarnings reports absent identity fields. These are non-fatal:
// the record still flows through scoring and consolidation.
func missingFieldWarnings(rec *CandidateRecord) []string {
	var out []string
	for _, f := range []string{FieldDNI, FieldNombres, FieldEmail} {
		if rec.Field(f) == "" {
			out = append(out, "FIELD_MISSING:"+f)
		}
	}
	if rec.Name == "" {
		out = append(out, "FIELD_MISSING:nombre_full")
	}
	return out
}
