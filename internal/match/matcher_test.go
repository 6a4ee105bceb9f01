package match

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/nao1215/pagediff/internal/model"
)

// parallelRunner runs every unit in its own goroutine.
type parallelRunner struct{}

func (parallelRunner) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx, i); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return first
}

// table builds a ScoreFunc from a literal matrix.
func table(rows [][]float64) ScoreFunc {
	return func(i, j int) float64 { return rows[i][j] }
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, th := range []float64{0, -0.1, 1.5} {
		if _, err := New(th); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("New(%v) error = %v, expected ErrInvalidThreshold", th, err)
		}
	}
	m, err := New(DefaultThreshold)
	if err != nil || m.Threshold() != 0.5 {
		t.Errorf("New(0.5) = %v, %v", m, err)
	}
}

func TestGreedy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		scores      [][]float64
		threshold   float64
		matches     []Assignment
		baseOnly    []int
		compareOnly []int
	}{
		{
			name:      "diagonal",
			scores:    [][]float64{{0.9, 0.1}, {0.2, 0.8}},
			threshold: 0.5,
			matches:   []Assignment{{0, 0, 0.9}, {1, 1, 0.8}},
		},
		{
			name: "first come first served",
			// Base 0 takes compare 0 even though base 1 likes it more.
			scores:      [][]float64{{0.6, 0.55}, {0.95, 0.1}},
			threshold:   0.5,
			matches:     []Assignment{{0, 0, 0.6}},
			baseOnly:    []int{1},
			compareOnly: []int{1},
		},
		{
			name:      "ties go to the earlier compare item",
			scores:    [][]float64{{0.7, 0.7}, {0.7, 0.7}},
			threshold: 0.5,
			matches:   []Assignment{{0, 0, 0.7}, {1, 1, 0.7}},
		},
		{
			name:        "threshold gates commits",
			scores:      [][]float64{{0.49}},
			threshold:   0.5,
			baseOnly:    []int{0},
			compareOnly: []int{0},
		},
		{
			name:      "threshold is inclusive",
			scores:    [][]float64{{0.5}},
			threshold: 0.5,
			matches:   []Assignment{{0, 0, 0.5}},
		},
		{
			name:        "more compare items",
			scores:      [][]float64{{0.1, 0.9, 0.2}},
			threshold:   0.5,
			matches:     []Assignment{{0, 1, 0.9}},
			compareOnly: []int{0, 2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, err := New(tc.threshold)
			if err != nil {
				t.Fatal(err)
			}
			res, err := m.Match(context.Background(), len(tc.scores), len(tc.scores[0]), table(tc.scores))
			if err != nil {
				t.Fatalf("Match failed: %v", err)
			}
			if len(tc.matches) == 0 {
				tc.matches = []Assignment{}
			}
			if !reflect.DeepEqual(res.Matches, tc.matches) {
				t.Errorf("matches = %v, expected %v", res.Matches, tc.matches)
			}
			if len(res.BaseOnly) != len(tc.baseOnly) || len(res.CompareOnly) != len(tc.compareOnly) {
				t.Fatalf("unmatched = %v / %v, expected %v / %v", res.BaseOnly, res.CompareOnly, tc.baseOnly, tc.compareOnly)
			}
			for i := range tc.baseOnly {
				if res.BaseOnly[i] != tc.baseOnly[i] {
					t.Errorf("BaseOnly = %v, expected %v", res.BaseOnly, tc.baseOnly)
				}
			}
			for i := range tc.compareOnly {
				if res.CompareOnly[i] != tc.compareOnly[i] {
					t.Errorf("CompareOnly = %v, expected %v", res.CompareOnly, tc.compareOnly)
				}
			}
		})
	}
}

// TestMatchEveryItemPairedOnce checks that pairs cover both sides exactly once.
func TestMatchEveryItemPairedOnce(t *testing.T) {
	t.Parallel()

	score := func(i, j int) float64 { return float64((i*7+j*3)%10) / 10 }
	m, _ := New(0.4, WithRunner(parallelRunner{}))
	res, err := m.Match(context.Background(), 9, 6, score)
	if err != nil {
		t.Fatal(err)
	}

	pairs := res.PagePairs()
	seenBase := make(map[int]int)
	seenCompare := make(map[int]int)
	for _, p := range pairs {
		if !p.Base.Valid() && !p.Compare.Valid() {
			t.Fatal("pair invalid on both sides")
		}
		if p.Base.Valid() {
			seenBase[p.Base.Start]++
		}
		if p.Compare.Valid() {
			seenCompare[p.Compare.Start]++
		}
		if p.Similarity < 0 || p.Similarity > 1 {
			t.Errorf("similarity %v out of range", p.Similarity)
		}
	}
	for i := range 9 {
		if seenBase[i] != 1 {
			t.Errorf("base %d appears %d times", i, seenBase[i])
		}
	}
	for j := range 6 {
		if seenCompare[j] != 1 {
			t.Errorf("compare %d appears %d times", j, seenCompare[j])
		}
	}
}

// TestMatchDeterministic checks that repeated runs with a concurrent
// runner give identical results.
func TestMatchDeterministic(t *testing.T) {
	t.Parallel()

	score := func(i, j int) float64 {
		if i == j {
			return 0.8
		}
		return 0.8 - float64((i+j)%3)/10
	}
	m, _ := New(0.5, WithRunner(parallelRunner{}))
	first, err := m.Match(context.Background(), 12, 12, score)
	if err != nil {
		t.Fatal(err)
	}
	for range 20 {
		again, err := m.Match(context.Background(), 12, 12, score)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("results differ between runs:\n%v\n%v", first, again)
		}
	}
}

// TestMatchInsertedPage covers a compare document with one extra page.
func TestMatchInsertedPage(t *testing.T) {
	t.Parallel()

	// Compare page 2 is new; the others shift by one after it.
	scores := [][]float64{
		{1, 0.1, 0.05, 0.1},
		{0.1, 1, 0.05, 0.1},
		{0.1, 0.1, 0.05, 1},
	}
	m, _ := New(DefaultThreshold)
	res, err := m.Match(context.Background(), 3, 4, table(scores))
	if err != nil {
		t.Fatal(err)
	}
	pairs := res.PagePairs()
	if len(pairs) != 4 {
		t.Fatalf("expected 4 pairs, got %d: %v", len(pairs), pairs)
	}
	matched := 0
	for _, p := range pairs[:3] {
		if p.Matched {
			matched++
		}
	}
	if matched != 3 {
		t.Errorf("expected 3 matched pairs, got %d", matched)
	}
	last := pairs[3]
	if !last.CompareOnly() || last.Compare.Start != 2 || last.Base.Start != model.InvalidIndex {
		t.Errorf("expected compare-only pair for page 2, got %+v", last)
	}
}

func TestMatchTwoPhase(t *testing.T) {
	t.Parallel()

	cheap := [][]float64{
		{0.99, 0.2, 0.2},
		{0.2, 0.6, 0.6},
		{0.2, 0.6, 0.6},
	}
	full := [][]float64{
		{0, 0, 0},
		{0, 0.3, 0.9},
		{0, 0.8, 0.3},
	}

	var (
		mu        sync.Mutex
		fullCalls int
	)
	fullFn := func(i, j int) float64 {
		mu.Lock()
		fullCalls++
		mu.Unlock()
		return full[i][j]
	}

	m, _ := New(0.5, WithRunner(parallelRunner{}))
	res, err := m.MatchTwoPhase(context.Background(), 3, 3, table(cheap), 0.95, fullFn)
	if err != nil {
		t.Fatal(err)
	}

	want := []Assignment{{0, 0, 0.99}, {1, 2, 0.9}, {2, 1, 0.8}}
	if !reflect.DeepEqual(res.Matches, want) {
		t.Errorf("matches = %v, expected %v", res.Matches, want)
	}
	if fullCalls != 4 {
		t.Errorf("full score computed %d times, expected 4 (only the leftover 2x2)", fullCalls)
	}
	if len(res.BaseOnly) != 0 || len(res.CompareOnly) != 0 {
		t.Errorf("unexpected leftovers: %v / %v", res.BaseOnly, res.CompareOnly)
	}
}

func TestMatchCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, _ := New(0.5)
	_, err := m.Match(ctx, 3, 3, func(int, int) float64 { return 1 })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMatchEmpty(t *testing.T) {
	t.Parallel()

	m, _ := New(0.5)
	res, err := m.Match(context.Background(), 0, 2, func(int, int) float64 { return 1 })
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 0 || len(res.CompareOnly) != 2 {
		t.Errorf("result = %+v", res)
	}

	res, err = m.Match(context.Background(), 2, 0, func(int, int) float64 { return 1 })
	if err != nil {
		t.Fatal(err)
	}
	if len(res.BaseOnly) != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{"", StrategyFused, false},
		{"fused", StrategyFused, false},
		{"Two-Phase", StrategyTwoPhase, false},
		{"two_phase", StrategyTwoPhase, false},
		{"optimal", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseStrategy(tc.input)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownStrategy) {
				t.Errorf("ParseStrategy(%q): expected ErrUnknownStrategy, got %v", tc.input, err)
			}
			continue
		}
		if err != nil || got != tc.expected {
			t.Errorf("ParseStrategy(%q) = %q, %v; expected %q", tc.input, got, err, tc.expected)
		}
	}
}
