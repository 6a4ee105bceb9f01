package segment

import (
	"slices"
	"sort"
	"strings"

	"github.com/nao1215/pagediff/internal/textsim"
)

// GeneralContentType is returned when no category keyword matches.
const GeneralContentType = "general"

// DefaultCategories returns the built-in category keyword sets.
// Callers own the returned map.
func DefaultCategories() map[string][]string {
	return map[string][]string{
		"academic": {
			"abstract", "introduction", "methodology", "conclusion", "references",
			"hypothesis", "literature review", "research", "study", "university",
		},
		"technical": {
			"specification", "architecture", "implementation", "configuration", "api",
			"system", "installation", "requirements", "interface", "protocol",
		},
		"financial": {
			"revenue", "balance sheet", "income", "assets", "liabilities",
			"cash flow", "quarterly", "fiscal", "earnings", "dividend",
		},
		"legal": {
			"agreement", "contract", "party", "parties", "hereby",
			"clause", "liability", "jurisdiction", "whereas", "indemnify",
		},
		"marketing": {
			"customer", "brand", "campaign", "market", "product",
			"promotion", "audience", "sales", "offer", "engagement",
		},
	}
}

type category struct {
	name string

	// keywords holds each keyword split into words.
	keywords [][]string
}

// Classifier labels text with the best-scoring category.
//
// The category table is supplied at construction and never modified, so a
// Classifier is safe for concurrent use.
type Classifier struct {
	categories []category
}

// NewClassifier creates a classifier from a category → keywords table.
// Keywords are normalized the same way page text is. Categories without
// usable keywords are ignored.
func NewClassifier(categories map[string][]string) *Classifier {
	c := &Classifier{categories: make([]category, 0, len(categories))}
	for name, keywords := range categories {
		cat := category{name: name}
		for _, kw := range keywords {
			if words := strings.Fields(textsim.Normalize(kw)); len(words) > 0 {
				cat.keywords = append(cat.keywords, words)
			}
		}
		if len(cat.keywords) > 0 {
			c.categories = append(c.categories, cat)
		}
	}
	sort.Slice(c.categories, func(i, j int) bool {
		return c.categories[i].name < c.categories[j].name
	})
	return c
}

// Classify returns the category whose keywords occur most often in the
// normalized text. Ties go to the alphabetically first category; text
// without any keyword hit is GeneralContentType.
func (c *Classifier) Classify(normalized string) string {
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return GeneralContentType
	}

	best, bestScore := GeneralContentType, 0
	for _, cat := range c.categories {
		score := 0
		for _, kw := range cat.keywords {
			score += countPhrase(words, kw)
		}
		if score > bestScore {
			best, bestScore = cat.name, score
		}
	}
	return best
}

// countPhrase counts the word positions where phrase starts. Matches may
// be adjacent.
func countPhrase(words, phrase []string) int {
	n := 0
	for i := 0; i+len(phrase) <= len(words); i++ {
		if slices.Equal(words[i:i+len(phrase)], phrase) {
			n++
		}
	}
	return n
}
