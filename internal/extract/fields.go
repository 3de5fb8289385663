package extract

import (
	"regexp"
	"strings"
)

// Patterns for labeled-field recovery from PDF/OCR text. The EOI form is a
// tabular Spanish document, so labels and values frequently end up on the
// same flattened line.
var (
	reAnyDate = regexp.MustCompile(`\b(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})\b`)

	rePersonalAnchor = regexp.MustCompile(`(?i)I\.\s*DATOS\s+PERSONALES`)

	reApellidos = regexp.MustCompile(`(?i)Apellido\s+Materno\s*[:\-]?\s*` +
		`([A-Za-zÁÉÍÓÚÑáéíóúñ ]{3,80}?)\s+` +
		`(?:Nombres|Lugar|Documento|Identidad|D[ií]a|Mes|Año|Celular|email|Correo)\b`)

	reNombresDirect = regexp.MustCompile(`(?i)\bNombres\b\s*[:\-]?\s*` +
		`([A-Za-zÁÉÍÓÚÑáéíóúñ]{2,}(?:\s+[A-Za-zÁÉÍÓÚÑáéíóúñ]{2,}){0,2})`)

	// In some layouts the real name lands after the "Día Mes Año" header.
	reNombresAfterDMY = regexp.MustCompile(`(?i)\bD[ií]a\b\s+\bMes\b\s+\bA[nñ]o\b\s+([A-Za-zÁÉÍÓÚÑáéíóúñ]{2,30})\b`)

	reNombresTail = regexp.MustCompile(`(?i)\bNombres\b(.{0,120})`)
	reNameWord    = regexp.MustCompile(`(?i)\b([A-Za-zÁÉÍÓÚÑáéíóúñ]{2,})\b`)

	reUniversity = regexp.MustCompile(`(?i)\bUNIVERSIDAD\b[A-ZÁÉÍÓÚÑa-záéíóúñ .,]{0,120}`)
)

var nameLabelWords = map[string]struct{}{
	"lugar": {}, "documento": {}, "apellido": {}, "identidad": {},
	"celular": {}, "email": {}, "correo": {}, "nacimiento": {}, "de": {},
}

// trimAtLabel cuts a captured name at the first word that is actually the
// next form label, since label and value share a flattened line.
func trimAtLabel(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		if _, label := nameLabelWords[strings.ToLower(w)]; label {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

// personalBlockMax bounds how far past the section anchor name patterns are
// applied, so matches from later sections never leak into the identity fields.
const personalBlockMax = 2500

// extractNameParts recovers apellidos/nombres from the personal-data block.
// Returns apellido paterno, apellido materno, nombres and the composed name.
func extractNameParts(text string) (string, string, string, string) {
	block := text
	if loc := rePersonalAnchor.FindStringIndex(text); loc != nil {
		block = text[loc[1]:]
		if len(block) > personalBlockMax {
			block = block[:personalBlockMax]
		}
	}
	block = Norm(block)

	apellidos := ""
	if m := reApellidos.FindStringSubmatch(block); m != nil {
		apellidos = Norm(m[1])
	}

	nombres := ""
	if m := reNombresDirect.FindStringSubmatch(block); m != nil {
		nombres = trimAtLabel(Norm(m[1]))
	}
	if nombres == "" {
		if m := reNombresAfterDMY.FindStringSubmatch(block); m != nil {
			nombres = Norm(m[1])
		}
	}
	if nombres == "" {
		if m := reNombresTail.FindStringSubmatch(block); m != nil {
			for _, w := range reNameWord.FindAllStringSubmatch(m[1], -1) {
				if _, label := nameLabelWords[strings.ToLower(w[1])]; !label {
					nombres = Norm(w[1])
					break
				}
			}
		}
	}

	paterno, materno := splitApellidos(apellidos)
	full := Norm(nombres + " " + apellidos)
	return paterno, materno, nombres, full
}

func splitApellidos(apellidos string) (string, string) {
	parts := strings.Fields(apellidos)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// extractContact pulls DNI/cell/email out of flattened text by shape, not
// position: the tabular PDF layout makes positional anchors unreliable.
func extractContact(text string) map[string]string {
	out := map[string]string{}
	if m := reDNI.FindStringSubmatch(text); m != nil {
		out[FieldDNI] = m[1]
	}
	if m := reCell.FindStringSubmatch(text); m != nil {
		out[FieldCelular] = m[1]
	}
	if m := reEmail.FindString(text); m != "" {
		out[FieldEmail] = m
	}
	return out
}

// extractEducation detects academic level keywords and the issuing university.
func extractEducation(text string) map[string]string {
	out := map[string]string{}
	up := strings.ToUpper(text)
	if strings.Contains(up, "BACHILLER") {
		out[FieldBachiller] = "BACHILLER"
	}
	if strings.Contains(up, "EGRESADO") {
		out[FieldEgresado] = "EGRESADO"
	}
	if strings.Contains(up, "TITULO") || strings.Contains(up, "TÍTULO") {
		out[FieldTitulo] = "TITULO"
	}
	if m := reUniversity.FindString(text); m != "" {
		out[FieldUniversity] = Norm(m)
	}
	return out
}

// courseProviders are line markers for the complementary-studies section.
var courseProviders = []string{"PLATZI", "UDEMY", "ISO/IEC", "ISO", "ENFAE", "SENATI", "CURSO", "DIPLOMADO", "CERTIFICA"}

// extractCourses collects lines that look like training entries, deduplicated
// preserving order.
func extractCourses(text string) []string {
	var courses []string
	for _, ln := range strings.Split(text, "\n") {
		up := strings.ToUpper(ln)
		for _, p := range courseProviders {
			if strings.Contains(up, p) {
				if c := Norm(ln); len(c) >= 6 {
					courses = append(courses, c)
				}
				break
			}
		}
	}
	seen := map[string]struct{}{}
	out := courses[:0]
	for _, c := range courses {
		k := strings.ToLower(c)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// sliceSection returns text between two anchors (case-insensitive); empty when
// the start anchor is absent.
func sliceSection(text, startAnchor, endAnchor string) string {
	low := strings.ToLower(text)
	s := strings.Index(low, strings.ToLower(startAnchor))
	if s < 0 {
		return ""
	}
	if endAnchor != "" {
		if e := strings.Index(low[s+1:], strings.ToLower(endAnchor)); e >= 0 {
			return text[s : s+1+e]
		}
	}
	return text[s:]
}

// extractDatePairs pairs dates (start, end) in order of appearance.
func extractDatePairs(section string) []ExperienceItem {
	dates := reAnyDate.FindAllString(section, -1)
	var items []ExperienceItem
	for i := 0; i+1 < len(dates); i += 2 {
		start, _ := ParseDate(dates[i])
		end, _ := ParseDate(dates[i+1])
		items = append(items, ExperienceItem{Start: start, End: end})
	}
	return items
}
