package classify

import (
	"path/filepath"
	"strings"

	"github.com/cquispe/eoi-consolidator/constants"
)

// Filename scoring used to pick one file when a candidate folder holds
// several eligible submissions. Spreadsheets always beat PDFs.

var (
	goodNameMarkers = []string{"formatocv", "formato", "cv", "edi", "expresion", "expresión"}
	templateMarkers = []string{"plantilla", "template", "blank", "ejemplo"}
	mailPDFMarkers  = []string{"correo", "presentacion", "presentación", "mail", "mensaje", "email"}
)

func scoreExcel(path string) int {
	name := strings.ToLower(filepath.Base(path))
	score := constants.ExcelExtRank[constants.NormalizeExt(filepath.Ext(path))]
	for _, k := range goodNameMarkers {
		if strings.Contains(name, k) {
			score += 10
			break
		}
	}
	for _, k := range templateMarkers {
		if strings.Contains(name, k) {
			score -= 10
			break
		}
	}
	return score
}

func scorePDF(path string) int {
	name := strings.ToLower(filepath.Base(path))
	score := 0
	for _, k := range goodNameMarkers {
		if strings.Contains(name, k) {
			score += 10
			break
		}
	}
	if isMailPDFName(name) {
		score -= 50
	}
	return score
}

// isMailPDFName flags PDFs that are mail/presentation exports rather than the
// EOI form itself.
func isMailPDFName(name string) bool {
	n := strings.ToLower(name)
	for _, k := range mailPDFMarkers {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}
