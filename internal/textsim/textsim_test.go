package textsim

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"Résumé, 2nd ed.", "resume 2nd ed"},
		{"  Hello,\n\tWORLD!! ", "hello world"},
		{"ﬁnance", "finance"},
		{"---", ""},
		{"", ""},
		{"Straße", "strasse"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.input); got != tc.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	a := "the quick brown fox"
	b := "the quick red fox"

	// Sets share 3 of 5 distinct words.
	if got := Jaccard(a, b); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("Jaccard = %v, expected 0.6", got)
	}
	if got := Dice(a, b); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Dice = %v, expected 0.75", got)
	}
	if got := Cosine(a, b); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Cosine = %v, expected 0.75", got)
	}
	if got := Levenshtein("kitten", "sitting"); got != 3 {
		t.Errorf("Levenshtein = %d, expected 3", got)
	}
	if got := Levenshtein("", "abc"); got != 3 {
		t.Errorf("Levenshtein with empty = %d, expected 3", got)
	}
	if got := EditSimilarity("abcd", "abcf"); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("EditSimilarity = %v, expected 0.75", got)
	}
	if got := Levenshtein("héllo", "hello"); got != 1 {
		t.Errorf("Levenshtein should count runes, got %d", got)
	}
}

func TestMetricsEmpty(t *testing.T) {
	t.Parallel()

	metrics := map[string]func(a, b string) float64{
		"jaccard": Jaccard,
		"dice":    Dice,
		"cosine":  Cosine,
		"edit":    EditSimilarity,
	}
	for name, fn := range metrics {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := fn("", "some text"); got != 0 {
				t.Errorf("%s(\"\", text) = %v, expected 0", name, got)
			}
			if got := fn("some text", ""); got != 0 {
				t.Errorf("%s(text, \"\") = %v, expected 0", name, got)
			}
		})
	}
}

func TestComparatorSimilarity(t *testing.T) {
	t.Parallel()

	c := Default()

	t.Run("self similarity", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"a", "Quarterly Report 2024", "x y z x y z"} {
			if got := c.Similarity(s, s); got != 1 {
				t.Errorf("Similarity(%q, %q) = %v, expected 1", s, s, got)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"", "anything", "!!!"} {
			if got := c.Similarity("", s); got != 0 {
				t.Errorf("Similarity(\"\", %q) = %v, expected 0", s, got)
			}
		}
	})

	t.Run("normalization only differences", func(t *testing.T) {
		t.Parallel()
		if got := c.Similarity("Hello, World", "hello world"); got != 1 {
			t.Errorf("Similarity = %v, expected 1", got)
		}
	})

	t.Run("symmetric and bounded", func(t *testing.T) {
		t.Parallel()
		a, b := "invoice total due", "total amount due today"
		ab, ba := c.Similarity(a, b), c.Similarity(b, a)
		if math.Abs(ab-ba) > 1e-12 {
			t.Errorf("not symmetric: %v vs %v", ab, ba)
		}
		if ab <= 0 || ab >= 1 {
			t.Errorf("Similarity = %v, expected within (0,1)", ab)
		}
	})
}

// TestReorderedParagraphs checks that moving paragraphs around keeps the
// set and frequency metrics high while the edit similarity drops.
func TestReorderedParagraphs(t *testing.T) {
	t.Parallel()

	paragraphs := []string{
		"abed bead cade dace ebb cab",
		"fig jig gif hij jigh fij",
		"klm mlk lmn nlm okm mon",
		"pqr rqp stu tsu upr qrs",
	}
	reversed := []string{paragraphs[3], paragraphs[2], paragraphs[1], paragraphs[0]}

	a := Normalize(strings.Join(paragraphs, "\n\n"))
	b := Normalize(strings.Join(reversed, "\n\n"))

	s := Default().Compare(a, b)
	if s.Jaccard < 0.99 || s.Cosine < 0.99 || s.Dice < 0.99 {
		t.Errorf("set metrics should stay high: %+v", s)
	}
	if s.Edit >= 0.6 {
		t.Errorf("edit similarity = %v, expected < 0.6", s.Edit)
	}
	if s.Fused <= s.Edit {
		t.Errorf("fused score %v should exceed edit similarity %v", s.Fused, s.Edit)
	}
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{"edit only", Weights{Edit: 1}, false},
		{"sum too low", Weights{Jaccard: 0.5}, true},
		{"negative", Weights{Jaccard: 1.5, Edit: -0.5}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewComparator(tc.weights)
			if tc.wantErr && !errors.Is(err, ErrInvalidWeights) {
				t.Errorf("expected ErrInvalidWeights, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
