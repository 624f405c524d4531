package cardname

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var conditionTokens = []string{
	"Near Mint", "Lightly Played", "Moderately Played", "Heavily Played", "Damaged", "Mint",
	"NM", "LP", "MP", "HP", "DMG",
}

var editionTokens = []string{
	"1st Edition", "Limited Edition", "Unlimited Edition", "Unlimited", "1st",
}

var rarityTokens = []string{
	"Quarter Century Secret Rare", "Prismatic Secret Rare", "Platinum Secret Rare",
	"Starlight Rare", "Ghost Rare", "Ultimate Rare", "Ultra Rare", "Super Rare", "Secret Rare",
	"Gold Rare", "Collector's Rare", "Prismatic Secret", "Quarter Century", "Short Print",
	"Rare", "Common",
}

var (
	setCodePattern   = regexp.MustCompile(`(?i)\b[A-Z][A-Z0-9]{1,4}-[A-Z]{0,2}\d{3,4}\b`)
	conditionPattern = tokenPattern(conditionTokens)
	editionPattern   = tokenPattern(editionTokens)
	rarityPattern    = tokenPattern(rarityTokens)
	emptyBrackets    = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// tokenPattern builds a case-insensitive alternation with the longest phrase
// first, so "Ultimate Rare" is consumed before "Rare" can match inside it.
func tokenPattern(tokens []string) *regexp.Regexp {
	sorted := slices.Clone(tokens)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return len(b) - len(a)
	})

	quoted := make([]string, 0, len(sorted))
	for _, token := range sorted {
		quoted = append(quoted, regexp.QuoteMeta(token))
	}
	return regexp.MustCompile(`(?i)\s*-?\s*\b(?:` + strings.Join(quoted, "|") + `)\b\s*`)
}

// ExtractCandidateName strips listing noise from a product title: set codes,
// then condition, edition and rarity tokens. The result keeps the original
// casing and punctuation of the remaining words.
func ExtractCandidateName(title string) string {
	cleaned := setCodePattern.ReplaceAllString(title, " ")
	cleaned = conditionPattern.ReplaceAllString(cleaned, " ")
	cleaned = editionPattern.ReplaceAllString(cleaned, " ")
	cleaned = rarityPattern.ReplaceAllString(cleaned, " ")
	cleaned = emptyBrackets.ReplaceAllString(cleaned, " ")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")

	return strings.TrimFunc(cleaned, func(r rune) bool {
		return unicode.IsSpace(r) || isDash(r)
	})
}

// FirstWords returns at most n whitespace separated words of s.
func FirstWords(s string, n int) string {
	words := strings.Fields(s)
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
