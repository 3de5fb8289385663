package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpace    = regexp.MustCompile(`\s+`)
	reDNI      = regexp.MustCompile(`\b(\d{8})\b`)
	reEmail    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reNonDigit = regexp.MustCompile(`\D+`)
	reCell     = regexp.MustCompile(`(?:\+51\s*)?\b(9\d{8})\b`)
)

// Norm collapses whitespace runs and trims.
func Norm(s string) string {
	return strings.TrimSpace(reSpace.ReplaceAllString(s, " "))
}

// NormalizeDNI keeps the first 8-digit run, or the normalized input when none.
func NormalizeDNI(s string) string {
	if m := reDNI.FindStringSubmatch(Norm(s)); m != nil {
		return m[1]
	}
	return Norm(s)
}

// NormalizeEmail keeps the first address-shaped token.
func NormalizeEmail(s string) string {
	s = Norm(s)
	if m := reEmail.FindString(s); m != "" {
		return m
	}
	return s
}

// NormalizePhone strips everything but digits.
func NormalizePhone(s string) string {
	return reNonDigit.ReplaceAllString(Norm(s), "")
}

var identityFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldIdentity lowercases and de-accents a name for use as a lookup key.
func foldIdentity(s string) string {
	out, _, err := transform.String(identityFold, s)
	if err != nil {
		out = s
	}
	return Norm(strings.ToLower(out))
}
