package workbook

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/criteria"
	"github.com/cquispe/eoi-consolidator/internal/extract"
)

const testSheet = "Evaluación CV"

func testTemplateConfig() common.TemplateConfig {
	return common.TemplateConfig{
		Sheet:     testSheet,
		HeaderRow: 3,
		StartCol:  6, // F
		StepCols:  2,
		MaxSlots:  3,
		CriterionRows: map[string]int{
			"postgrado": 5,
			"exp_gen":   6,
		},
		TotalRow: 10,
		StartRow: 3,
		EndRow:   10,
	}
}

// writeTemplate builds a minimal evaluation template: criterion captions in
// column A, merged title across the top, placeholder headers in the slots.
func writeTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet(testSheet)
	require.NoError(t, err)

	require.NoError(t, f.MergeCell(testSheet, "A1", "J1"))
	require.NoError(t, f.SetCellValue(testSheet, "A1", "CUADRO DE EVALUACIÓN DE EXPRESIONES DE INTERÉS"))
	require.NoError(t, f.SetCellValue(testSheet, "A5", "Formación de postgrado"))
	require.NoError(t, f.SetCellValue(testSheet, "A6", "Experiencia general"))
	require.NoError(t, f.SetCellValue(testSheet, "A10", "TOTAL"))
	require.NoError(t, f.SetCellValue(testSheet, "F3", "NOMBRE DEL CONSULTOR"))

	path := filepath.Join(t.TempDir(), "Cuadro_Evaluacion.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func testRecord(name, dni string) *extract.CandidateRecord {
	return &extract.CandidateRecord{
		ID:   uuid.New(),
		Name: name,
		Fields: map[string]string{
			extract.FieldDNI:     dni,
			extract.FieldCelular: "987654321",
			extract.FieldEmail:   "c@x.pe",
		},
	}
}

func testResult(id string) criteria.Result {
	return criteria.Result{
		CandidateID: id,
		Scores: []criteria.CriterionScore{
			{RuleID: "postgrado", Points: 10, Matched: true, Detail: "CUMPLE | maestría"},
			{RuleID: "exp_gen", Points: 20, Matched: true, Detail: "4.00 años efectivos (umbral 3.00)"},
		},
		Total: 30,
	}
}

func TestMergedCellWritesGoToAnchor(t *testing.T) {
	path := writeTemplate(t)
	wb, err := Open(path, testSheet, nil)
	require.NoError(t, err)
	defer wb.Close()

	// J1 is inside the merged A1:J1 range
	require.NoError(t, wb.SetCell("J1", "nuevo título"))
	got, err := wb.GetCell("A1")
	require.NoError(t, err)
	assert.Equal(t, "nuevo título", got)
}

func TestAllocatorAssignAndCapacity(t *testing.T) {
	path := writeTemplate(t)
	wb, err := Open(path, testSheet, nil)
	require.NoError(t, err)
	defer wb.Close()

	layout := NewLayout(testTemplateConfig())
	alloc, err := NewAllocator(wb, layout)
	require.NoError(t, err)

	b1, err := alloc.Assign("11111111")
	require.NoError(t, err)
	assert.Equal(t, 0, b1.Slot)
	assert.Equal(t, 6, b1.DetailCol)
	assert.Equal(t, 7, b1.ScoreCol)

	b2, err := alloc.Assign("22222222")
	require.NoError(t, err)
	assert.Equal(t, 1, b2.Slot)
	assert.Equal(t, 8, b2.DetailCol)

	// same identity gets the same block back
	again, err := alloc.Assign("11111111")
	require.NoError(t, err)
	assert.Equal(t, b1, again)

	_, err = alloc.Assign("33333333")
	require.NoError(t, err)
	_, err = alloc.Assign("44444444")
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeCapacity))
}

func TestAllocatorReusesOccupiedSlotByDNI(t *testing.T) {
	path := writeTemplate(t)

	// pre-fill slot 0 the way Fill writes headers
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(testSheet, "F3", "PEREZ JUAN | DNI: 46831845 | Cel: 9"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := Open(path, testSheet, nil)
	require.NoError(t, err)
	defer wb.Close()

	alloc, err := NewAllocator(wb, NewLayout(testTemplateConfig()))
	require.NoError(t, err)

	// the known candidate lands on its existing slot, a new one on the next
	b, err := alloc.Assign("46831845")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Slot)

	other, err := alloc.Assign("99999999")
	require.NoError(t, err)
	assert.Equal(t, 1, other.Slot)
}

func TestAllocatorReusesOccupiedSlotByName(t *testing.T) {
	path := writeTemplate(t)
	layout := NewLayout(testTemplateConfig())

	// OCR records can miss the DNI entirely; the name is the only identity
	rec := testRecord("QUISPE MAMANI CARLOS", "")

	wb, err := Open(path, testSheet, nil)
	require.NoError(t, err)
	alloc, err := NewAllocator(wb, layout)
	require.NoError(t, err)
	filler := NewFiller(wb, layout, alloc, nil)

	block, err := alloc.Assign(rec.IdentityKey())
	require.NoError(t, err)
	require.NoError(t, filler.Fill(block, rec, testResult(rec.ID.String())))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	// a fresh allocator over the saved workbook must map the name back to
	// the same slot instead of claiming a new one
	wb, err = Open(path, testSheet, nil)
	require.NoError(t, err)
	defer wb.Close()
	alloc, err = NewAllocator(wb, NewLayout(testTemplateConfig()))
	require.NoError(t, err)

	again, err := alloc.Assign(rec.IdentityKey())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Slot)

	other, err := alloc.Assign("OTRO POSTULANTE")
	require.NoError(t, err)
	assert.Equal(t, 1, other.Slot)
}

func TestFillerWritesBlock(t *testing.T) {
	path := writeTemplate(t)
	wb, err := Open(path, testSheet, nil)
	require.NoError(t, err)
	defer wb.Close()

	layout := NewLayout(testTemplateConfig())
	alloc, err := NewAllocator(wb, layout)
	require.NoError(t, err)
	filler := NewFiller(wb, layout, alloc, nil)

	rec := testRecord("PEREZ JUAN", "46831845")
	block, err := alloc.Assign(rec.IdentityKey())
	require.NoError(t, err)
	require.NoError(t, filler.Fill(block, rec, testResult(rec.ID.String())))

	header, _ := wb.GetCell("F3")
	assert.Equal(t, "PEREZ JUAN | DNI: 46831845 | Cel: 987654321 | Email: c@x.pe", header)

	detail, _ := wb.GetCell("F5")
	assert.Equal(t, "CUMPLE | maestría", detail)
	pts, _ := wb.GetCell("G5")
	assert.Equal(t, "10", pts)
	total, _ := wb.GetCell("G10")
	assert.Equal(t, "30", total)

	// nothing bleeds into the neighbour block
	next, _ := wb.GetCell("H5")
	assert.Empty(t, next)
}

func TestFillerConflictOnOccupiedSlot(t *testing.T) {
	path := writeTemplate(t)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(testSheet, "F3", "OTRO CANDIDATO | DNI: 11111111"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := Open(path, testSheet, nil)
	require.NoError(t, err)
	defer wb.Close()

	layout := NewLayout(testTemplateConfig())
	alloc, err := NewAllocator(wb, layout)
	require.NoError(t, err)
	filler := NewFiller(wb, layout, alloc, nil)

	rec := testRecord("PEREZ JUAN", "46831845")
	err = filler.Fill(layout.Block(0), rec, testResult(rec.ID.String()))
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeWriteConflict))
}

func TestFillerIdempotentForSameCandidate(t *testing.T) {
	path := writeTemplate(t)
	wb, err := Open(path, testSheet, nil)
	require.NoError(t, err)
	defer wb.Close()

	layout := NewLayout(testTemplateConfig())
	alloc, err := NewAllocator(wb, layout)
	require.NoError(t, err)
	filler := NewFiller(wb, layout, alloc, nil)

	rec := testRecord("PEREZ JUAN", "46831845")
	block, err := alloc.Assign(rec.IdentityKey())
	require.NoError(t, err)
	require.NoError(t, filler.Fill(block, rec, testResult(rec.ID.String())))
	require.NoError(t, filler.Fill(block, rec, testResult(rec.ID.String())))

	pts, _ := wb.GetCell("G5")
	assert.Equal(t, "10", pts)
}

func TestHeaderIdentity(t *testing.T) {
	assert.Equal(t, "46831845", headerIdentity("PEREZ JUAN | DNI: 46831845 | Cel: 9"))
	assert.Equal(t, "perez juan", headerIdentity("PÉREZ  JUAN"))
	// without a DNI only the name segment keys the slot, matching IdentityKey
	assert.Equal(t, "perez juan", headerIdentity("PÉREZ JUAN | Cel: 987654321 | Email: c@x.pe"))
}

func TestIsFreeHeader(t *testing.T) {
	assert.True(t, isFreeHeader(""))
	assert.True(t, isFreeHeader("NOMBRE DEL CONSULTOR"))
	assert.True(t, isFreeHeader("Apellidos y Nombres"))
	assert.False(t, isFreeHeader("PEREZ JUAN | DNI: 46831845"))
}
