package segment

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/pagediff/internal/fingerprint"
	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/textsim"
)

// Defaults for the title heuristic and segment merging.
const (
	DefaultMinPages      = 3
	DefaultTitleFontSize = 14.0
	DefaultTitleMinLen   = 5
	DefaultTitleMaxLen   = 100
	DefaultTopFraction   = 0.3
	DefaultTitlePages    = 2
	DefaultKeywordCount  = 10

	// UntitledDocument labels a segment without any title candidate.
	UntitledDocument = "Untitled Document"
)

// Options tune the segmentation heuristics.
type Options struct {
	// MinPages is the smallest segment emitted on its own.
	MinPages int

	// TitleFontSize is the font size a run must exceed to look like a title.
	TitleFontSize float64

	// TitleMinLen and TitleMaxLen bound the title length in runes.
	TitleMinLen int
	TitleMaxLen int

	// TopFraction is the part of the page height searched for titles.
	TopFraction float64
}

// DefaultOptions returns the standard heuristics.
func DefaultOptions() Options {
	return Options{
		MinPages:      DefaultMinPages,
		TitleFontSize: DefaultTitleFontSize,
		TitleMinLen:   DefaultTitleMinLen,
		TitleMaxLen:   DefaultTitleMaxLen,
		TopFraction:   DefaultTopFraction,
	}
}

// Segmenter splits documents into segments.
type Segmenter struct {
	opts       Options
	classifier *Classifier
}

// New creates a segmenter. A nil classifier uses DefaultCategories.
func New(opts Options, classifier *Classifier) *Segmenter {
	if opts.MinPages < 1 {
		opts.MinPages = 1
	}
	if opts.TopFraction <= 0 || opts.TopFraction > 1 {
		opts.TopFraction = DefaultTopFraction
	}
	if opts.TitleMaxLen <= 0 {
		opts.TitleMaxLen = DefaultTitleMaxLen
	}
	if classifier == nil {
		classifier = NewClassifier(DefaultCategories())
	}
	return &Segmenter{opts: opts, classifier: classifier}
}

// TitleCandidates returns the runs of p that look like a title, in
// reading order.
func (s *Segmenter) TitleCandidates(p *model.Page) []model.TextRun {
	if p == nil || p.Failed {
		return nil
	}
	limit := p.Height * s.opts.TopFraction
	var out []model.TextRun
	for _, r := range p.Runs {
		if p.Height > 0 && r.Y > limit {
			continue
		}
		if r.FontSize <= s.opts.TitleFontSize {
			continue
		}
		n := utf8.RuneCountInString(strings.TrimSpace(r.Text))
		if n < s.opts.TitleMinLen || n > s.opts.TitleMaxLen {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// IsSegmentStart reports whether page i of doc opens a new segment.
func (s *Segmenter) IsSegmentStart(doc *model.Document, i int) bool {
	return i == 0 || len(s.TitleCandidates(doc.Page(i))) > 0
}

// Segment splits doc into segments covering every page exactly once.
// An empty document yields an empty, non-nil slice.
func (s *Segmenter) Segment(doc *model.Document) []model.DocumentSegment {
	n := doc.PageCount()
	if n == 0 {
		return []model.DocumentSegment{}
	}

	starts := make([]int, 0)
	for i := range n {
		if s.IsSegmentStart(doc, i) {
			starts = append(starts, i)
		}
	}

	ranges := make([]model.Range, 0, len(starts))
	for k, start := range starts {
		end := n - 1
		if k+1 < len(starts) {
			end = starts[k+1] - 1
		}
		r := model.Range{Start: start, End: end}
		if len(ranges) > 0 && pages(r) < s.opts.MinPages {
			ranges[len(ranges)-1].End = r.End
			continue
		}
		ranges = append(ranges, r)
	}
	// A short leading run has no predecessor and joins the next one.
	if len(ranges) > 1 && pages(ranges[0]) < s.opts.MinPages {
		ranges[1].Start = ranges[0].Start
		ranges = ranges[1:]
	}

	out := make([]model.DocumentSegment, len(ranges))
	for i, r := range ranges {
		out[i] = s.build(doc, r)
	}
	return out
}

func pages(r model.Range) int {
	return r.End - r.Start + 1
}

func (s *Segmenter) build(doc *model.Document, r model.Range) model.DocumentSegment {
	seg := model.DocumentSegment{
		StartPage: r.Start,
		EndPage:   r.End,
		Title:     s.title(doc, r),
		Features: model.SegmentFeatures{
			Keywords: []string{},
			PageDims: make([]model.Dim, 0, pages(r)),
		},
	}

	texts := make([]string, 0, pages(r))
	for i := r.Start; i <= r.End; i++ {
		p := doc.Page(i)
		seg.Features.PageDims = append(seg.Features.PageDims, model.Dim{Width: p.Width, Height: p.Height})
		seg.Features.ImageCount += len(p.Images)
		if p.Failed {
			continue
		}
		if t := textsim.Normalize(p.PlainText()); t != "" {
			texts = append(texts, t)
		}
	}
	seg.Features.FullText = strings.Join(texts, " ")
	seg.Features.Keywords = topKeywords(seg.Features.FullText, DefaultKeywordCount)
	seg.Features.ContentType = s.classifier.Classify(seg.Features.FullText)
	return seg
}

// title picks the largest-font candidate on the first pages of r.
func (s *Segmenter) title(doc *model.Document, r model.Range) string {
	var (
		best  model.TextRun
		found bool
	)
	for i := r.Start; i <= min(r.End, r.Start+DefaultTitlePages-1); i++ {
		for _, c := range s.TitleCandidates(doc.Page(i)) {
			if !found || c.FontSize > best.FontSize {
				best, found = c, true
			}
		}
	}
	if !found {
		return UntitledDocument
	}
	return strings.TrimSpace(best.Text)
}

// topKeywords returns the k most frequent significant words, most frequent
// first, alphabetical on ties.
func topKeywords(text string, k int) []string {
	counts := make(map[string]int)
	for _, w := range textsim.Words(text) {
		if fingerprint.Significant(w) {
			counts[w]++
		}
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > k {
		words = words[:k]
	}
	return words
}
