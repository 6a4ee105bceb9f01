package fingerprint

// MinWordLength is the shortest word kept as significant.
const MinWordLength = 3

// stopwords are frequent English function words that carry no content.
var stopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {}, "all": {},
	"also": {}, "and": {}, "any": {}, "are": {}, "because": {}, "been": {},
	"before": {}, "being": {}, "below": {}, "between": {}, "both": {}, "but": {},
	"can": {}, "could": {}, "did": {}, "does": {}, "doing": {}, "down": {},
	"during": {}, "each": {}, "few": {}, "for": {}, "from": {}, "further": {},
	"had": {}, "has": {}, "have": {}, "having": {}, "her": {}, "here": {},
	"hers": {}, "him": {}, "his": {}, "how": {}, "into": {}, "its": {},
	"itself": {}, "just": {}, "more": {}, "most": {}, "not": {}, "now": {},
	"off": {}, "once": {}, "only": {}, "other": {}, "our": {}, "ours": {},
	"out": {}, "over": {}, "own": {}, "same": {}, "she": {}, "should": {},
	"some": {}, "such": {}, "than": {}, "that": {}, "the": {}, "their": {},
	"theirs": {}, "them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "through": {}, "too": {}, "under": {}, "until": {},
	"very": {}, "was": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "who": {}, "whom": {}, "why": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {}, "yours": {},
}

// IsStopword reports whether w (already normalized) is a stopword.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// Significant reports whether a normalized word is kept in the
// significant-word set.
func Significant(w string) bool {
	return len([]rune(w)) >= MinWordLength && !IsStopword(w)
}
