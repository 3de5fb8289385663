package constants

import "strings"

// SourceKind classifies where a candidate's data came from.
type SourceKind string

const (
	SourceExcel   SourceKind = "EXCEL"
	SourcePDFText SourceKind = "PDF_TEXT"
	SourcePDFOCR  SourceKind = "PDF_OCR"
	SourceUnknown SourceKind = "UNKNOWN"
)

// AllowedExtensions holds the file extensions eligible as EOI submissions.
var AllowedExtensions = map[string]struct{}{
	"xlsx": {},
	"xlsm": {},
	"xls":  {},
	"pdf":  {},
}

// ExcelExtRank orders spreadsheet extensions by preference when a folder
// holds more than one workbook.
var ExcelExtRank = map[string]int{
	"xlsx": 30,
	"xlsm": 20,
	"xls":  10,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsExcelExt reports whether ext (normalized) is a spreadsheet extension.
func IsExcelExt(ext string) bool {
	_, ok := ExcelExtRank[NormalizeExt(ext)]
	return ok
}

// IsPDFExt reports whether ext (normalized) is a PDF extension.
func IsPDFExt(ext string) bool {
	return NormalizeExt(ext) == "pdf"
}

// IsTempOfficeFile reports whether name is an Office lock/backup file (~$...).
func IsTempOfficeFile(name string) bool {
	return strings.HasPrefix(name, "~$")
}
