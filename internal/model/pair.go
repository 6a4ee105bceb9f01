package model

import (
	"fmt"
	"math"
)

// InvalidIndex marks the missing side of an unmatched pair.
const InvalidIndex = -1

// Range is an inclusive page range. A range whose Start is InvalidIndex
// denotes "no counterpart".
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NoRange is the invalid range.
var NoRange = Range{Start: InvalidIndex, End: InvalidIndex}

// PageRange returns the single-page range for index i,
// or NoRange when i is negative.
func PageRange(i int) Range {
	if i < 0 {
		return NoRange
	}
	return Range{Start: i, End: i}
}

// Valid reports whether the range refers to at least one page.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.End >= r.Start
}

// String formats the range as "3" or "3-5", or "-" when invalid.
func (r Range) String() string {
	switch {
	case !r.Valid():
		return "-"
	case r.Start == r.End:
		return fmt.Sprintf("%d", r.Start)
	default:
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	}
}

// Pair is one pairing decision of the matcher. It is used for both pages
// (single-page ranges) and segments.
//
// A pair with an invalid side represents a pure deletion (only in base) or
// a pure insertion (only in compare). Pairs are never invalid on both sides.
type Pair struct {
	Base       Range   `json:"base"`
	Compare    Range   `json:"compare"`
	Similarity float64 `json:"similarity"`
	Matched    bool    `json:"matched"`
}

// MatchedPair creates a committed pair.
func MatchedPair(base, compare Range, similarity float64) Pair {
	return Pair{Base: base, Compare: compare, Similarity: Clamp01(similarity), Matched: true}
}

// BaseOnlyPair creates a pair for an item present only in the base document.
func BaseOnlyPair(base Range) Pair {
	return Pair{Base: base, Compare: NoRange}
}

// CompareOnlyPair creates a pair for an item present only in the compare document.
func CompareOnlyPair(compare Range) Pair {
	return Pair{Base: NoRange, Compare: compare}
}

// BaseOnly reports whether the pair has no compare side.
func (p Pair) BaseOnly() bool {
	return p.Base.Valid() && !p.Compare.Valid()
}

// CompareOnly reports whether the pair has no base side.
func (p Pair) CompareOnly() bool {
	return !p.Base.Valid() && p.Compare.Valid()
}

// ChangeType returns the structural change the pair represents:
// deleted for base-only, added for compare-only, modified otherwise.
func (p Pair) ChangeType() ChangeType {
	switch {
	case p.BaseOnly():
		return ChangeDeleted
	case p.CompareOnly():
		return ChangeAdded
	default:
		return ChangeModified
	}
}

// Clamp01 limits v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
