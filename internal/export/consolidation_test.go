package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cquispe/eoi-consolidator/constants"
)

var testRuleIDs = []string{"postgrado", "exp_gen"}

func testRows() []Row {
	return []Row{
		{
			Folder: "01 PEREZ JUAN",
			File:   "FormatoCV.xlsx",
			Status: constants.StatusParsed,
			Kind:   constants.SourceExcel,
			Name:   "PEREZ JUAN",
			DNI:    "46831845",
			Scores: map[string]float64{"postgrado": 10, "exp_gen": 20},
			Total:  30,
		},
		{
			Folder: "02 SIN ARCHIVO",
			Status: constants.StatusSkipped,
			Error:  "CLASSIFICATION_ERROR: SIN_ARCHIVO_ELEGIBLE",
		},
		{
			Folder: "03 ROTO",
			File:   "cv.pdf",
			Status: constants.StatusFailed,
			Kind:   constants.SourcePDFText,
			Error:  "EXTRACTION_ERROR: no text obtainable",
		},
	}
}

func TestWriteCSVOneRowPerFolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolidado.csv")
	w := NewWriter(nil)
	require.NoError(t, w.WriteCSV(path, testRuleIDs, testRows()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(raw), "\xef\xbb\xbf")

	recs, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4) // header + one row per folder, failures included

	head := recs[0]
	assert.Equal(t, "carpeta", head[0])
	assert.Contains(t, head, "puntaje_postgrado")
	assert.Contains(t, head, "puntaje_exp_gen")

	assert.Equal(t, "01 PEREZ JUAN", recs[1][0])
	assert.Equal(t, "PARSED", recs[1][2])
	assert.Equal(t, "02 SIN ARCHIVO", recs[2][0])
	assert.Equal(t, "SKIPPED", recs[2][2])
	assert.Contains(t, recs[3], "EXTRACTION_ERROR: no text obtainable")
}

func TestWriteCSVScoreColumnsInRuleOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolidado.csv")
	w := NewWriter(nil)
	require.NoError(t, w.WriteCSV(path, testRuleIDs, testRows()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(raw), "\xef\xbb\xbf")
	recs, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)

	head := recs[0]
	pgIdx, egIdx := -1, -1
	for i, h := range head {
		switch h {
		case "puntaje_postgrado":
			pgIdx = i
		case "puntaje_exp_gen":
			egIdx = i
		}
	}
	require.GreaterOrEqual(t, pgIdx, 0)
	require.Greater(t, egIdx, pgIdx)
	assert.Equal(t, "10", recs[1][pgIdx])
	assert.Equal(t, "20", recs[1][egIdx])
	// skipped rows leave score cells empty
	assert.Empty(t, recs[2][pgIdx])
}

func TestWriteJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolidado.jsonl")
	w := NewWriter(nil)
	require.NoError(t, w.WriteJSONL(path, testRows()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)

	var first Row
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "01 PEREZ JUAN", first.Folder)
	assert.Equal(t, constants.StatusParsed, first.Status)
	assert.Equal(t, 30.0, first.Total)

	var second Row
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, constants.StatusSkipped, second.Status)
	assert.Contains(t, second.Error, "SIN_ARCHIVO_ELEGIBLE")
}

func TestWriteSelectionCSVs(t *testing.T) {
	dir := t.TempDir()
	selected := filepath.Join(dir, "files_selected.csv")
	skipped := filepath.Join(dir, "files_skipped.csv")
	w := NewWriter(nil)
	require.NoError(t, w.WriteSelectionCSVs(selected, skipped, testRows()))

	readCSV := func(path string) [][]string {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		content := strings.TrimPrefix(string(raw), "\xef\xbb\xbf")
		recs, err := csv.NewReader(strings.NewReader(content)).ReadAll()
		require.NoError(t, err)
		return recs
	}

	sel := readCSV(selected)
	require.Len(t, sel, 3) // header + two folders with a chosen file
	assert.Equal(t, []string{"01 PEREZ JUAN", "FormatoCV.xlsx", "EXCEL"}, sel[1])
	assert.Equal(t, "cv.pdf", sel[2][1])

	skp := readCSV(skipped)
	require.Len(t, skp, 2)
	assert.Equal(t, "02 SIN ARCHIVO", skp[1][0])
	assert.Contains(t, skp[1][1], "SIN_ARCHIVO_ELEGIBLE")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consolidado.xlsx")
	w := NewWriter(nil)
	require.NoError(t, w.WriteXLSX(path, testRuleIDs, testRows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("consolidado")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "carpeta", rows[0][0])
	assert.Equal(t, "01 PEREZ JUAN", rows[1][0])
	assert.Equal(t, "03 ROTO", rows[3][0])
}
