// Package cardname holds the pure text functions used to compare free-text
// product titles with canonical card names.
package cardname

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a name into the comparison form stored in normalized_name
// columns: lowercase ASCII letters, digits and underscores separated by
// single spaces. Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case isQuote(r):
		case isDash(r) || unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case isWordRune(r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

func isQuote(r rune) bool {
	switch r {
	case '\'', '"', '`', '´', '‘', '’', '‚', '‛', '“', '”', '„', '′':
		return true
	}
	return false
}

// isDash reports dash-like separators, including the bullet and middle dot
// characters that shops use between name fragments.
func isDash(r rune) bool {
	switch r {
	case '-', '−', '∙', '•', '·':
		return true
	}
	return unicode.Is(unicode.Pd, r)
}
