package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/pagediff/internal/model"
)

// DefaultThreshold is the minimum score for a committed pair.
const DefaultThreshold = 0.5

// ErrInvalidThreshold is returned for thresholds outside (0,1].
var ErrInvalidThreshold = errors.New("threshold must be in (0,1]")

// ScoreFunc returns the similarity of base item i and compare item j.
// It must be safe for concurrent use.
type ScoreFunc func(i, j int) float64

// Runner executes n independent units, possibly concurrently.
type Runner interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// sequential runs units one after another.
type sequential struct{}

func (sequential) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// State is the matching state of one item.
type State int

const (
	// Unmatched items have not been visited yet.
	Unmatched State = iota
	// Candidate items are being scored against the other side.
	Candidate
	// Matched items are committed to a pair.
	Matched
	// UnmatchedFinal items found no partner in the pass.
	UnmatchedFinal
)

// Assignment is one committed pair of indexes.
type Assignment struct {
	Base    int
	Compare int
	Score   float64
}

// Result is the outcome of a matching run.
type Result struct {
	// Matches are ordered by base index.
	Matches []Assignment

	// BaseOnly and CompareOnly list unmatched indexes in ascending order.
	BaseOnly    []int
	CompareOnly []int
}

// Pairs converts the result into model pairs: matches first, then
// base-only items, then compare-only items. The range functions map item
// indexes to page ranges.
func (r Result) Pairs(baseRange, compareRange func(int) model.Range) []model.Pair {
	out := make([]model.Pair, 0, len(r.Matches)+len(r.BaseOnly)+len(r.CompareOnly))
	for _, m := range r.Matches {
		out = append(out, model.MatchedPair(baseRange(m.Base), compareRange(m.Compare), m.Score))
	}
	for _, i := range r.BaseOnly {
		out = append(out, model.BaseOnlyPair(baseRange(i)))
	}
	for _, j := range r.CompareOnly {
		out = append(out, model.CompareOnlyPair(compareRange(j)))
	}
	return out
}

// PagePairs converts a page matching result into single-page pairs.
func (r Result) PagePairs() []model.Pair {
	return r.Pairs(model.PageRange, model.PageRange)
}

// Matcher pairs items greedily.
type Matcher struct {
	threshold float64
	runner    Runner
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithRunner sets the runner used to compute score matrices.
func WithRunner(r Runner) Option {
	return func(m *Matcher) {
		if r != nil {
			m.runner = r
		}
	}
}

// New creates a matcher with the given threshold.
func New(threshold float64, opts ...Option) (*Matcher, error) {
	if !(threshold > 0 && threshold <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	m := &Matcher{threshold: threshold, runner: sequential{}}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Threshold returns the commit threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match pairs nBase base items with nCompare compare items.
// On cancellation it returns ctx.Err() and no result.
func (m *Matcher) Match(ctx context.Context, nBase, nCompare int, score ScoreFunc) (Result, error) {
	base, compare := indexes(nBase), indexes(nCompare)
	matrix, err := ComputeMatrix(ctx, m.runner, base, compare, score)
	if err != nil {
		return Result{}, err
	}
	matches, restBase, restCompare := Greedy(matrix, base, compare, m.threshold)
	return Result{Matches: matches, BaseOnly: restBase, CompareOnly: restCompare}, nil
}

// MatchTwoPhase first pairs items on the cheap score with cheapThreshold,
// then re-scores only the leftover items with the full score and the
// matcher's threshold. Pairs from the first phase keep their cheap score.
func (m *Matcher) MatchTwoPhase(ctx context.Context, nBase, nCompare int, cheap ScoreFunc, cheapThreshold float64, full ScoreFunc) (Result, error) {
	base, compare := indexes(nBase), indexes(nCompare)

	cheapMatrix, err := ComputeMatrix(ctx, m.runner, base, compare, cheap)
	if err != nil {
		return Result{}, err
	}
	first, restBase, restCompare := Greedy(cheapMatrix, base, compare, cheapThreshold)

	fullMatrix, err := ComputeMatrix(ctx, m.runner, restBase, restCompare, full)
	if err != nil {
		return Result{}, err
	}
	second, leftBase, leftCompare := Greedy(fullMatrix, restBase, restCompare, m.threshold)

	return Result{
		Matches:     mergeByBase(first, second),
		BaseOnly:    leftBase,
		CompareOnly: leftCompare,
	}, nil
}

// Matrix holds scores for a subset of base and compare items.
// Row r and column c refer to the r-th listed base and c-th listed compare item.
type Matrix [][]float64

// ComputeMatrix scores every (base, compare) combination. Each row is one
// unit of work and writes only to its own slice.
func ComputeMatrix(ctx context.Context, runner Runner, base, compare []int, score ScoreFunc) (Matrix, error) {
	if runner == nil {
		runner = sequential{}
	}
	matrix := make(Matrix, len(base))
	if len(compare) == 0 {
		for r := range matrix {
			matrix[r] = []float64{}
		}
		return matrix, ctx.Err()
	}
	err := runner.Run(ctx, len(base), func(ctx context.Context, r int) error {
		row := make([]float64, len(compare))
		for c, j := range compare {
			if c%32 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			row[c] = model.Clamp01(score(base[r], j))
		}
		matrix[r] = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matrix, nil
}

// Greedy runs one greedy pass over a score matrix.
//
// Base items are visited in the order listed. Each takes the highest
// scoring unmatched compare item; on equal scores the earlier listed item
// wins. The pair is committed only if the score is at least threshold.
// It returns the committed pairs in visit order and the leftover base and
// compare indexes in listed order.
func Greedy(matrix Matrix, base, compare []int, threshold float64) ([]Assignment, []int, []int) {
	baseState := make([]State, len(base))
	compareState := make([]State, len(compare))
	matches := make([]Assignment, 0, min(len(base), len(compare)))

	for r := range base {
		baseState[r] = Candidate
		best, bestScore := -1, 0.0
		for c := range compare {
			if compareState[c] == Matched {
				continue
			}
			if s := matrix[r][c]; best < 0 || s > bestScore {
				best, bestScore = c, s
			}
		}
		if best >= 0 && bestScore >= threshold {
			baseState[r] = Matched
			compareState[best] = Matched
			matches = append(matches, Assignment{Base: base[r], Compare: compare[best], Score: bestScore})
			continue
		}
		baseState[r] = UnmatchedFinal
	}

	restBase := make([]int, 0)
	for r, st := range baseState {
		if st != Matched {
			restBase = append(restBase, base[r])
		}
	}
	restCompare := make([]int, 0)
	for c, st := range compareState {
		if st != Matched {
			restCompare = append(restCompare, compare[c])
		}
	}
	return matches, restBase, restCompare
}

func indexes(n int) []int {
	out := make([]int, max(n, 0))
	for i := range out {
		out[i] = i
	}
	return out
}

// mergeByBase merges two match lists, each sorted by base index.
func mergeByBase(a, b []Assignment) []Assignment {
	out := make([]Assignment, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Base <= b[j].Base {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
