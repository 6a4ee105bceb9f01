package score

import (
	"math"

	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/textsim"
)

// SegmentScores is the breakdown of a segment comparison.
type SegmentScores struct {
	Text        float64 `json:"text"`
	ContentType float64 `json:"content_type"`
	Layout      float64 `json:"layout"`
	ImageCount  float64 `json:"image_count"`
	Title       float64 `json:"title"`
	Fused       float64 `json:"fused"`
}

// SegmentScorer scores pairs of segments.
type SegmentScorer struct {
	weights SegmentWeights
	text    *textsim.Comparator
}

// NewSegmentScorer creates a segment scorer. The weights are assumed valid.
func NewSegmentScorer(w SegmentWeights, text *textsim.Comparator) *SegmentScorer {
	if text == nil {
		text = textsim.Default()
	}
	return &SegmentScorer{weights: w, text: text}
}

// Score returns the fused similarity of two segments.
func (s *SegmentScorer) Score(a, b model.DocumentSegment) float64 {
	return s.Breakdown(a, b).Fused
}

// Breakdown scores two segments signal by signal.
func (s *SegmentScorer) Breakdown(a, b model.DocumentSegment) SegmentScores {
	sc := SegmentScores{
		Text:       s.text.Compare(a.Features.FullText, b.Features.FullText).Fused,
		Layout:     Layout(a.Features.PageDims, b.Features.PageDims),
		ImageCount: CountSimilarity(a.Features.ImageCount, b.Features.ImageCount),
		Title:      s.titleSimilarity(a.Title, b.Title),
	}
	if a.Features.ContentType != "" && a.Features.ContentType == b.Features.ContentType {
		sc.ContentType = 1
	}
	w := s.weights
	sc.Fused = model.Clamp01(w.Text*sc.Text + w.ContentType*sc.ContentType + w.Layout*sc.Layout +
		w.ImageCount*sc.ImageCount + w.Title*sc.Title)
	return sc
}

func (s *SegmentScorer) titleSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return s.text.Similarity(a, b)
}

// Layout compares the first-page geometry of two segments as
// 1 - mean(relative width delta, relative height delta).
// Missing geometry on either side yields 0.
func Layout(a, b []model.Dim) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dw := relativeDelta(a[0].Width, b[0].Width)
	dh := relativeDelta(a[0].Height, b[0].Height)
	return model.Clamp01(1 - (dw+dh)/2)
}

func relativeDelta(x, y float64) float64 {
	m := math.Max(math.Abs(x), math.Abs(y))
	if m == 0 {
		return 0
	}
	return math.Abs(x-y) / m
}

// CountSimilarity returns 1 - |a-b| / max(a,b), or 1 when both are zero.
func CountSimilarity(a, b int) float64 {
	m := max(a, b)
	if m <= 0 {
		return 1
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return model.Clamp01(1 - float64(d)/float64(m))
}
