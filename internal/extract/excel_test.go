package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cquispe/eoi-consolidator/constants"
	"github.com/cquispe/eoi-consolidator/internal/common"
)

func testExcelConfig() common.ExcelConfig {
	return common.ExcelConfig{
		Sheet: "EOI",
		Cells: map[string]string{
			FieldApPaterno: "B2",
			FieldApMaterno: "B3",
			FieldNombres:   "B4",
			FieldDNI:       "B5",
			FieldEmail:     "B6",
			FieldCelular:   "B7",
			FieldTitulo:    "B8",
		},
		CourseColumn:   2,
		CourseRowFrom:  10,
		CourseRowTo:    12,
		ExperienceRows: []int{15, 16},
	}
}

func writeEOIWorkbook(t *testing.T, mutate func(f *excelize.File)) string {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet("EOI")
	require.NoError(t, err)

	set := func(cell string, v any) {
		require.NoError(t, f.SetCellValue("EOI", cell, v))
	}
	set("B2", "QUISPE")
	set("B3", "MAMANI")
	set("B4", "CARLOS ALBERTO")
	set("B5", "DNI 46831845")
	set("B6", "carlos.quispe@gmail.com")
	set("B7", "+51 987654321")
	set("B8", "INGENIERO DE SISTEMAS")

	set("B10", "Curso de Scrum Master")
	set("B11", "CAPACITACIÓN (detalle)") // form caption, must be filtered
	set("B12", "Curso de Scrum Master")  // duplicate

	// entity D, project F, role G, start H, end I
	set("D15", "ACME S.A.")
	set("G15", "ANALISTA DE SISTEMAS")
	set("H15", "1/1/2020")
	set("I15", "31/12/2020")
	set("D16", "BETA SAC")
	set("G16", "ADMINISTRADOR")
	set("H16", "1/1/2021")
	set("I16", "30/6/2021")

	if mutate != nil {
		mutate(f)
	}

	path := filepath.Join(t.TempDir(), "FormatoCV.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestExcelExtractorMappedCells(t *testing.T) {
	path := writeEOIWorkbook(t, nil)
	x := NewExcelExtractor(testExcelConfig(), nil)

	rec, err := x.Extract(context.Background(), Source{
		Folder: filepath.Dir(path),
		Path:   path,
		Kind:   constants.SourceExcel,
	})
	require.NoError(t, err)

	assert.Equal(t, "46831845", rec.Field(FieldDNI))
	assert.Equal(t, "carlos.quispe@gmail.com", rec.Field(FieldEmail))
	assert.Equal(t, "51987654321", rec.Field(FieldCelular))
	assert.Equal(t, "CARLOS ALBERTO QUISPE MAMANI", rec.Name)
	assert.Equal(t, "46831845", rec.IdentityKey())
	assert.InDelta(t, 0.95, float64(rec.Confidence), 0.001)

	require.Len(t, rec.Courses, 1)
	assert.Equal(t, "Curso de Scrum Master", rec.Courses[0])

	// 2020 plus the adjacent first half of 2021 merge into one run
	assert.Equal(t, 547, rec.GeneralExp.TotalDays)
	// only the ANALISTA row counts as specific experience
	assert.Equal(t, 366, rec.SpecificExp.TotalDays)
	assert.NotEmpty(t, rec.Text)
}

func TestExcelExtractorLabelScanFallback(t *testing.T) {
	cfg := testExcelConfig()
	delete(cfg.Cells, FieldDNI)

	path := writeEOIWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("EOI", "A5", "DNI"))
		require.NoError(t, f.SetCellValue("EOI", "B5", "46831845"))
	})
	x := NewExcelExtractor(cfg, nil)

	rec, err := x.Extract(context.Background(), Source{Path: path, Kind: constants.SourceExcel})
	require.NoError(t, err)
	assert.Equal(t, "46831845", rec.Field(FieldDNI))
	assert.Contains(t, rec.Warnings, "FIELD_BY_LABEL_SCAN:dni")
}

func TestExcelExtractorUnknownSheetFallsBack(t *testing.T) {
	cfg := testExcelConfig()
	cfg.Sheet = "NoExiste"
	path := writeEOIWorkbook(t, nil)
	x := NewExcelExtractor(cfg, nil)

	// falls back to the first sheet, the default empty one, which yields no text
	_, err := x.Extract(context.Background(), Source{Path: path, Kind: constants.SourceExcel})
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeExtraction))
}

func TestExcelExtractorMissingFile(t *testing.T) {
	x := NewExcelExtractor(testExcelConfig(), nil)
	_, err := x.Extract(context.Background(), Source{Path: "/no/such/file.xlsx"})
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeExtraction))
}
