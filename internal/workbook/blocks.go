package workbook

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cquispe/eoi-consolidator/internal/common"
	"github.com/cquispe/eoi-consolidator/internal/criteria"
)

// placeholderHeaders mark a slot as unused even when its header cell holds
// text: templates ship with captions in the first block.
var placeholderHeaders = []string{
	"nombre del consultor",
	"apellidos y nombres",
	"postulante",
	"nombre",
	"dni",
}

var reHeaderDNI = regexp.MustCompile(`DNI:?\s*(\d{8})`)

// Layout derives the per-slot cell geometry from template configuration.
type Layout struct {
	Sheet         string
	HeaderRow     int
	StartCol      int
	StepCols      int
	MaxSlots      int
	CriterionRows map[string]int
	TotalRow      int
	StartRow      int
	EndRow        int
}

func NewLayout(cfg common.TemplateConfig) Layout {
	return Layout{
		Sheet:         cfg.Sheet,
		HeaderRow:     cfg.HeaderRow,
		StartCol:      cfg.StartCol,
		StepCols:      cfg.StepCols,
		MaxSlots:      cfg.MaxSlots,
		CriterionRows: cfg.CriterionRows,
		TotalRow:      cfg.TotalRow,
		StartRow:      cfg.StartRow,
		EndRow:        cfg.EndRow,
	}
}

// Block is one candidate column pair in the evaluation sheet.
type Block struct {
	Slot      int
	DetailCol int // criterion evidence / detail
	ScoreCol  int // awarded points
}

func (l Layout) Block(slot int) Block {
	base := l.StartCol + slot*l.StepCols
	return Block{Slot: slot, DetailCol: base, ScoreCol: base + 1}
}

// Allocator assigns candidates to blocks. It is built once from a header-row
// scan, so reruns against a partially filled workbook reuse each candidate's
// existing block instead of claiming a new one.
type Allocator struct {
	layout     Layout
	free       []int
	byIdentity map[string]int
	headers    map[int]string
}

// NewAllocator scans the header row and indexes occupied slots by identity.
func NewAllocator(wb *Workbook, layout Layout) (*Allocator, error) {
	a := &Allocator{
		layout:     layout,
		byIdentity: map[string]int{},
		headers:    map[int]string{},
	}
	for slot := 0; slot < layout.MaxSlots; slot++ {
		b := layout.Block(slot)
		header, err := wb.GetCell(Cell(b.DetailCol, layout.HeaderRow))
		if err != nil {
			return nil, fmt.Errorf("read header slot %d: %w", slot, err)
		}
		if isFreeHeader(header) {
			a.free = append(a.free, slot)
			continue
		}
		a.headers[slot] = header
		a.byIdentity[headerIdentity(header)] = slot
	}
	return a, nil
}

// Assign returns the block for identity: the block already holding it when
// the header scan found one, otherwise the next free slot. A full sheet is a
// capacity error.
func (a *Allocator) Assign(identity string) (Block, error) {
	if slot, ok := a.byIdentity[identity]; ok {
		return a.layout.Block(slot), nil
	}
	if len(a.free) == 0 {
		return Block{}, common.NewCapacityError(fmt.Sprintf("all %d evaluation slots are taken", a.layout.MaxSlots))
	}
	slot := a.free[0]
	a.free = a.free[1:]
	a.byIdentity[identity] = slot
	return a.layout.Block(slot), nil
}

// Occupied reports the identity currently indexed at slot, if any.
func (a *Allocator) Occupied(slot int) (string, bool) {
	h, ok := a.headers[slot]
	if !ok {
		return "", false
	}
	return headerIdentity(h), true
}

func isFreeHeader(header string) bool {
	folded := criteria.Fold(header)
	if folded == "" {
		return true
	}
	for _, p := range placeholderHeaders {
		if folded == p || strings.Contains(folded, p) && len(folded) <= len(p)+4 {
			return true
		}
	}
	return false
}

// headerIdentity keys a filled slot: the DNI embedded in the header text when
// present, otherwise the folded name segment before the first " | ". This must
// produce the same key as CandidateRecord.IdentityKey, which folds the bare
// name, or reruns would re-allocate candidates without a DNI.
func headerIdentity(header string) string {
	if m := reHeaderDNI.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	name := header
	if i := strings.Index(header, " | "); i >= 0 {
		name = header[:i]
	}
	return criteria.Fold(name)
}
