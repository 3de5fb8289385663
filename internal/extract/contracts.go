package extract

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cquispe/eoi-consolidator/constants"
)

// Well-known field names of a normalized candidate record.
const (
	FieldDNI        = "dni"
	FieldNombres    = "nombres"
	FieldApPaterno  = "ap_paterno"
	FieldApMaterno  = "ap_materno"
	FieldEmail      = "email"
	FieldCelular    = "celular"
	FieldTelefono   = "telefono"
	FieldDireccion  = "direccion"
	FieldTitulo     = "titulo"
	FieldBachiller  = "bachiller"
	FieldEgresado   = "egresado"
	FieldUniversity = "universidad"
)

// Source is one classified candidate file, as produced by the classifier.
type Source struct {
	Folder   string // candidate folder path
	Path     string // chosen file inside the folder
	Kind     constants.SourceKind
	Warnings []string
}

// ExperienceItem is one declared work engagement.
type ExperienceItem struct {
	Entity  string    `json:"entidad"`
	Project string    `json:"proyecto"`
	Role    string    `json:"cargo"`
	Start   time.Time `json:"fecha_inicio"`
	End     time.Time `json:"fecha_fin"`
}

// ExperienceBlock aggregates experience items with the effective day count
// (overlapping intervals merged, ends inclusive).
type ExperienceBlock struct {
	Items     []ExperienceItem `json:"items"`
	TotalDays int              `json:"total_dias"`
	Summary   string           `json:"resumen"`
}

// CandidateRecord is the normalized result of extracting one EOI source.
// Immutable once produced; missing fields are empty strings with an attached
// warning, never silently dropped.
type CandidateRecord struct {
	ID     uuid.UUID            `json:"id"`
	Folder string               `json:"carpeta"`
	File   string               `json:"archivo"`
	Kind   constants.SourceKind `json:"tipo"`

	Name   string            `json:"nombre_full"`
	Fields map[string]string `json:"fields"`
	Text   string            `json:"-"`

	Courses     []string        `json:"cursos"`
	GeneralExp  ExperienceBlock `json:"exp_general"`
	SpecificExp ExperienceBlock `json:"exp_especifica"`

	Confidence float32  `json:"confidence"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Field returns a structured field by name ("" when absent).
func (r *CandidateRecord) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// IdentityKey is the stable key used to match a candidate against an already
// occupied template block: the DNI when present, else the folded full name.
func (r *CandidateRecord) IdentityKey() string {
	if dni := r.Field(FieldDNI); dni != "" {
		return dni
	}
	return foldIdentity(r.Name)
}

// Extractor turns a classified source into a CandidateRecord. Implementations
// exist per source kind (spreadsheet cells, PDF text, OCR).
type Extractor interface {
	Extract(ctx context.Context, src Source) (*CandidateRecord, error)
}
