// Package textnorm folds human-entered names so "João Félix", "joao felix"
// and " JOÃO  FÉLIX " compare equal.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics, case-folds and collapses whitespace.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}

// EqualFold reports whether a and b are the same name after Fold.
func EqualFold(a, b string) bool {
	fa := Fold(a)
	return fa != "" && fa == Fold(b)
}

// ContainsFold reports whether any candidate folds to the same name as needle.
func ContainsFold(candidates []string, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return false
	}
	for _, c := range candidates {
		if Fold(c) == n {
			return true
		}
	}
	return false
}
