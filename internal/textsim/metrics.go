package textsim

import "math"

// Jaccard returns |A ∩ B| / |A ∪ B| over the word sets of a and b.
func Jaccard(a, b string) float64 {
	sa, sb := wordSet(Words(a)), wordSet(Words(b))
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := intersect(sa, sb)
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// Dice returns 2|A ∩ B| / (|A| + |B|) over the word sets of a and b.
func Dice(a, b string) float64 {
	sa, sb := wordSet(Words(a)), wordSet(Words(b))
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	return 2 * float64(intersect(sa, sb)) / float64(len(sa)+len(sb))
}

func intersect(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// Cosine returns the cosine of the term-frequency vectors of a and b.
func Cosine(a, b string) float64 {
	ta, tb := termFrequency(Words(a)), termFrequency(Words(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var dot, na, nb float64
	for w, ca := range ta {
		fa := float64(ca)
		na += fa * fa
		if cb, ok := tb[w]; ok {
			dot += fa * float64(cb)
		}
	}
	for _, cb := range tb {
		fb := float64(cb)
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb)))
}

// Levenshtein returns the edit distance between a and b in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// EditSimilarity returns 1 - levenshtein(a,b) / max(len(a), len(b)),
// with lengths measured in runes.
func EditSimilarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	return 1 - float64(Levenshtein(a, b))/float64(max(la, lb))
}
