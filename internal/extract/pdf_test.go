package extract

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cquispe/eoi-consolidator/constants"
	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/ocr"
)

type stubRunner struct {
	out string
	err error
}

func (s stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
	return []byte(s.out), nil, s.err
}

func TestPDFExtractorDigitalText(t *testing.T) {
	x := NewPDFExtractor(ocr.NewExtractorWithRunner(ocr.Config{}, stubRunner{out: samplePDFText}, nil), nil)

	rec, err := x.Extract(context.Background(), Source{
		Folder: "/in/01 QUISPE",
		Path:   "/in/01 QUISPE/cv.pdf",
		Kind:   constants.SourcePDFText,
	})
	require.NoError(t, err)
	assert.Equal(t, "46831845", rec.Field(FieldDNI))
	assert.Equal(t, float32(0.9), rec.Confidence)
	assert.Equal(t, constants.SourcePDFText, rec.Kind)
}

type ocrRunner struct{}

func (ocrRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		return nil, nil, os.WriteFile(prefix+"-1.png", []byte("png"), 0o644)
	}
	return []byte(samplePDFText), nil, nil
}

func TestPDFExtractorOCRPath(t *testing.T) {
	x := NewPDFExtractor(ocr.NewExtractorWithRunner(ocr.Config{}, ocrRunner{}, nil), nil)

	rec, err := x.Extract(context.Background(), Source{
		Folder: "/in/01 QUISPE",
		Path:   "/in/01 QUISPE/cv_escaneado.pdf",
		Kind:   constants.SourcePDFOCR,
	})
	require.NoError(t, err)
	assert.Equal(t, float32(0.6), rec.Confidence)
	assert.Equal(t, "46831845", rec.Field(FieldDNI))
}

func TestPDFExtractorEmptyText(t *testing.T) {
	x := NewPDFExtractor(ocr.NewExtractorWithRunner(ocr.Config{}, stubRunner{out: "  \n\f  "}, nil), nil)

	_, err := x.Extract(context.Background(), Source{Path: "/in/x.pdf", Kind: constants.SourcePDFText})
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeExtraction))
}

func TestPDFExtractorRejectsExcelKind(t *testing.T) {
	x := NewPDFExtractor(ocr.NewExtractorWithRunner(ocr.Config{}, stubRunner{}, nil), nil)

	_, err := x.Extract(context.Background(), Source{Path: "/in/x.xlsx", Kind: constants.SourceExcel})
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeExtraction))
}
