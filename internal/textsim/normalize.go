package textsim

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, strips accents, replaces every run of
// non-alphanumeric characters with a single space and trims the result.
//
// "Résumé, 2nd ed." becomes "resume 2nd ed".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	var sb strings.Builder
	sb.Grow(len(folded))
	space := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
			continue
		}
		space = true
	}
	return sb.String()
}

// Words splits normalized text into words.
func Words(s string) []string {
	return strings.Fields(s)
}

// wordSet returns the distinct words of s.
func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// termFrequency counts occurrences of each word.
func termFrequency(words []string) map[string]int {
	tf := make(map[string]int, len(words))
	for _, w := range words {
		tf[w]++
	}
	return tf
}
