package criteria

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips combining marks so "maestría" and "MAESTRIA" compare equal.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold normalizes s for matching: lowercase, accents removed, whitespace
// collapsed to single spaces.
func Fold(s string) string {
	out, _, err := transform.String(foldTransform, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// FindKeywords returns the first match per keyword in text, case- and
// accent-insensitive. Evidence is ordered by first-match offset in the folded
// text; equal offsets keep the keyword order of the rule, so results are
// reproducible across runs.
func FindKeywords(text string, keywords []string) []Match {
	folded := Fold(text)
	var out []Match
	for _, kw := range keywords {
		k := Fold(kw)
		if k == "" {
			continue
		}
		if off := strings.Index(folded, k); off >= 0 {
			out = append(out, Match{Keyword: kw, Offset: off})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
