package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/pagediff/internal/diff"
	"github.com/nao1215/pagediff/internal/fingerprint"
	"github.com/nao1215/pagediff/internal/match"
	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/score"
	"github.com/nao1215/pagediff/internal/segment"
	"github.com/nao1215/pagediff/internal/visual"
)

// MaxPlaneSize bounds the edge length of the luminance planes used when
// SSIM takes part in page matching.
const MaxPlaneSize = 256

// FingerprintStep extracts a fingerprint for every page of both documents.
// Pages are independent units and run on the pool.
type FingerprintStep struct {
	extractor *fingerprint.Extractor
	pool      *Pool
}

// NewFingerprintStep creates a fingerprint step.
func NewFingerprintStep(extractor *fingerprint.Extractor, pool *Pool) *FingerprintStep {
	return &FingerprintStep{extractor: extractor, pool: pool}
}

// Name returns the step name.
func (s *FingerprintStep) Name() string {
	return "fingerprint"
}

// Do executes the fingerprint step.
func (s *FingerprintStep) Do(ctx context.Context, report *model.Report) error {
	base, compare := pagesOf(report.BaseDocument), pagesOf(report.CompareDocument)
	nb := len(base)

	out := make([]*model.PageFingerprint, nb+len(compare))
	err := s.pool.Run(ctx, len(out), func(_ context.Context, i int) error {
		if i < nb {
			out[i] = s.extractor.Extract(base[i], model.SourceBase)
		} else {
			out[i] = s.extractor.Extract(compare[i-nb], model.SourceCompare)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fingerprint pages: %w", err)
	}

	report.BaseFP = out[:nb:nb]
	report.CompareFP = out[nb:]
	return nil
}

// SegmentStep splits both documents into segments.
type SegmentStep struct {
	segmenter *segment.Segmenter
}

// NewSegmentStep creates a segment step.
func NewSegmentStep(segmenter *segment.Segmenter) *SegmentStep {
	return &SegmentStep{segmenter: segmenter}
}

// Name returns the step name.
func (s *SegmentStep) Name() string {
	return "segment"
}

// Do executes the segment step.
func (s *SegmentStep) Do(_ context.Context, report *model.Report) error {
	if report.BaseDocument != nil {
		report.Segments.Base = s.segmenter.Segment(report.BaseDocument)
	}
	if report.CompareDocument != nil {
		report.Segments.Compare = s.segmenter.Segment(report.CompareDocument)
	}
	return nil
}

// SegmentMatchStep pairs the segments of both documents.
type SegmentMatchStep struct {
	matcher *match.Matcher
	scorer  *score.SegmentScorer
}

// NewSegmentMatchStep creates a segment matching step.
func NewSegmentMatchStep(matcher *match.Matcher, scorer *score.SegmentScorer) *SegmentMatchStep {
	return &SegmentMatchStep{matcher: matcher, scorer: scorer}
}

// Name returns the step name.
func (s *SegmentMatchStep) Name() string {
	return "match_segments"
}

// Do executes the segment matching step.
func (s *SegmentMatchStep) Do(ctx context.Context, report *model.Report) error {
	base, compare := report.Segments.Base, report.Segments.Compare
	result, err := s.matcher.Match(ctx, len(base), len(compare), func(i, j int) float64 {
		return s.scorer.Score(base[i], compare[j])
	})
	if err != nil {
		return fmt.Errorf("match segments: %w", err)
	}
	report.SegmentPairs = result.Pairs(
		func(i int) model.Range { return base[i].Range() },
		func(j int) model.Range { return compare[j].Range() },
	)
	return nil
}

// PageMatchStep pairs the pages of both documents.
type PageMatchStep struct {
	matcher         *match.Matcher
	scorer          *score.PageScorer
	strategy        match.Strategy
	visualThreshold float64
	logger          *slog.Logger
}

// PageMatchOption configures a PageMatchStep.
type PageMatchOption func(*PageMatchStep)

// WithStrategy selects the matching strategy.
func WithStrategy(strategy match.Strategy) PageMatchOption {
	return func(s *PageMatchStep) {
		s.strategy = strategy
	}
}

// WithVisualThreshold sets the first-phase threshold of two-phase matching.
func WithVisualThreshold(threshold float64) PageMatchOption {
	return func(s *PageMatchStep) {
		s.visualThreshold = threshold
	}
}

// WithPageMatchLogger sets a custom logger for the page matching step.
func WithPageMatchLogger(logger *slog.Logger) PageMatchOption {
	return func(s *PageMatchStep) {
		s.logger = logger
	}
}

// NewPageMatchStep creates a page matching step using the fused strategy.
func NewPageMatchStep(matcher *match.Matcher, scorer *score.PageScorer, opts ...PageMatchOption) *PageMatchStep {
	s := &PageMatchStep{
		matcher:         matcher,
		scorer:          scorer,
		strategy:        match.StrategyFused,
		visualThreshold: match.DefaultVisualThreshold,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PageMatchStep) Name() string {
	return "match_pages"
}

// Do executes the page matching step.
func (s *PageMatchStep) Do(ctx context.Context, report *model.Report) error {
	base := s.signals(report.BaseDocument, report.BaseFP)
	compare := s.signals(report.CompareDocument, report.CompareFP)
	if s.scorer.UsesSSIM() {
		attachPlanes(report.BaseDocument, report.CompareDocument, base, compare)
	}

	full := func(i, j int) float64 { return s.scorer.Score(base[i], compare[j]) }

	var (
		result match.Result
		err    error
	)
	switch s.strategy {
	case match.StrategyTwoPhase:
		cheap := func(i, j int) float64 { return s.scorer.VisualScore(base[i], compare[j]) }
		result, err = s.matcher.MatchTwoPhase(ctx, len(base), len(compare), cheap, s.visualThreshold, full)
	default:
		result, err = s.matcher.Match(ctx, len(base), len(compare), full)
	}
	if err != nil {
		return fmt.Errorf("match pages: %w", err)
	}

	report.Strategy = string(s.strategy)
	report.Pairs = result.PagePairs()
	s.logger.Debug("pages matched",
		"comparison", report.ID,
		"matched", len(result.Matches),
		"base_only", len(result.BaseOnly),
		"compare_only", len(result.CompareOnly),
	)
	return nil
}

func (s *PageMatchStep) signals(doc *model.Document, fps []*model.PageFingerprint) []score.PageSignals {
	n := len(pagesOf(doc))
	out := make([]score.PageSignals, n)
	for i := range out {
		if i < len(fps) {
			out[i].Fingerprint = fps[i]
		}
	}
	return out
}

// attachPlanes builds luminance planes of one common size for every page
// with a raster.
func attachPlanes(baseDoc, compareDoc *model.Document, base, compare []score.PageSignals) {
	pages := append(append([]*model.Page{}, pagesOf(baseDoc)...), pagesOf(compareDoc)...)
	w, h := MaxPlaneSize, MaxPlaneSize
	found := false
	for _, p := range pages {
		if p.Failed || p.Image == nil || p.Image.Bounds().Empty() {
			continue
		}
		b := p.Image.Bounds()
		w, h = min(w, b.Dx()), min(h, b.Dy())
		found = true
	}
	if !found {
		return
	}

	for i, p := range pagesOf(baseDoc) {
		base[i].Plane = plane(p, w, h)
	}
	for i, p := range pagesOf(compareDoc) {
		compare[i].Plane = plane(p, w, h)
	}
}

func plane(p *model.Page, w, h int) *visual.Plane {
	if p.Failed || p.Image == nil || p.Image.Bounds().Empty() {
		return nil
	}
	return visual.Luminance(p.Image).Shrink(w, h)
}

// DiffStep extracts the differences of every pair. Pairs are independent
// units and run on the pool; each writes only its own slot of the result.
type DiffStep struct {
	extractor *diff.Extractor
	pool      *Pool
}

// NewDiffStep creates a difference extraction step.
func NewDiffStep(extractor *diff.Extractor, pool *Pool) *DiffStep {
	return &DiffStep{extractor: extractor, pool: pool}
}

// Name returns the step name.
func (s *DiffStep) Name() string {
	return "diff"
}

// Do executes the difference extraction step.
func (s *DiffStep) Do(ctx context.Context, report *model.Report) error {
	pairs := report.Pairs
	pages := make([]model.PageComparison, len(pairs))
	err := s.pool.Run(ctx, len(pairs), func(_ context.Context, i int) error {
		p := pairs[i]
		pc := s.extractor.Compare(pageAt(report.BaseDocument, p.Base), pageAt(report.CompareDocument, p.Compare))
		pc.Similarity = p.Similarity
		pages[i] = *pc
		return nil
	})
	if err != nil {
		return fmt.Errorf("extract differences: %w", err)
	}
	report.Pages = pages
	return nil
}

// RollupStep computes the document digests and the summary.
type RollupStep struct{}

// NewRollupStep creates a rollup step.
func NewRollupStep() *RollupStep {
	return &RollupStep{}
}

// Name returns the step name.
func (s *RollupStep) Name() string {
	return "rollup"
}

// Do executes the rollup step.
func (s *RollupStep) Do(_ context.Context, report *model.Report) error {
	if len(report.BaseFP) > 0 {
		report.Base.Digest = fingerprint.DocumentDigest(report.BaseFP)
	}
	if len(report.CompareFP) > 0 {
		report.Compare.Digest = fingerprint.DocumentDigest(report.CompareFP)
	}
	report.Rollup()
	return nil
}

func pagesOf(doc *model.Document) []*model.Page {
	if doc == nil {
		return nil
	}
	return doc.Pages
}

// pageAt returns the single page a pair side refers to, nil when absent.
func pageAt(doc *model.Document, r model.Range) *model.Page {
	if doc == nil || !r.Valid() {
		return nil
	}
	return doc.Page(r.Start)
}
