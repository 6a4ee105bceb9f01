package textsim

import (
	"errors"
	"fmt"
	"math"
)

// Weights are the fusion weights of the four metrics. They must be
// non-negative and sum to 1.
type Weights struct {
	Jaccard float64 `json:"jaccard" yaml:"jaccard"`
	Edit    float64 `json:"edit" yaml:"edit"`
	Cosine  float64 `json:"cosine" yaml:"cosine"`
	Dice    float64 `json:"dice" yaml:"dice"`
}

// DefaultWeights returns Jaccard 0.3, edit 0.2, cosine 0.3, Dice 0.2.
func DefaultWeights() Weights {
	return Weights{Jaccard: 0.3, Edit: 0.2, Cosine: 0.3, Dice: 0.2}
}

// ErrInvalidWeights is returned for negative weights or weights that do
// not sum to 1.
var ErrInvalidWeights = errors.New("text weights must be non-negative and sum to 1")

// weightTolerance is the allowed deviation of a weight sum from 1.
const weightTolerance = 1e-6

// Validate checks that the weights are usable.
func (w Weights) Validate() error {
	if w.Jaccard < 0 || w.Edit < 0 || w.Cosine < 0 || w.Dice < 0 {
		return fmt.Errorf("%w: negative weight in %+v", ErrInvalidWeights, w)
	}
	if sum := w.Jaccard + w.Edit + w.Cosine + w.Dice; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: sum is %.4f", ErrInvalidWeights, sum)
	}
	return nil
}

// Scores is the breakdown of one comparison.
type Scores struct {
	Jaccard float64 `json:"jaccard"`
	Edit    float64 `json:"edit"`
	Cosine  float64 `json:"cosine"`
	Dice    float64 `json:"dice"`
	Fused   float64 `json:"fused"`
}

// Comparator fuses the four metrics.
type Comparator struct {
	weights Weights
}

// NewComparator creates a comparator. It returns an error wrapping
// ErrInvalidWeights when the weights are unusable.
func NewComparator(w Weights) (*Comparator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Comparator{weights: w}, nil
}

// Default returns a comparator with DefaultWeights.
func Default() *Comparator {
	return &Comparator{weights: DefaultWeights()}
}

// Similarity returns the fused similarity of two raw texts.
// Texts are normalized first. Empty input on either side yields 0 and
// equal normalized text yields exactly 1.
func (c *Comparator) Similarity(a, b string) float64 {
	return c.Compare(Normalize(a), Normalize(b)).Fused
}

// Compare scores two already normalized texts.
func (c *Comparator) Compare(a, b string) Scores {
	if a == "" || b == "" {
		return Scores{}
	}
	if a == b {
		return Scores{Jaccard: 1, Edit: 1, Cosine: 1, Dice: 1, Fused: 1}
	}
	s := Scores{
		Jaccard: Jaccard(a, b),
		Edit:    EditSimilarity(a, b),
		Cosine:  Cosine(a, b),
		Dice:    Dice(a, b),
	}
	fused := c.weights.Jaccard*s.Jaccard + c.weights.Edit*s.Edit +
		c.weights.Cosine*s.Cosine + c.weights.Dice*s.Dice
	s.Fused = math.Max(0, math.Min(1, fused))
	return s
}
