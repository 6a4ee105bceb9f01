package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/pagediff/internal/config"
	"github.com/nao1215/pagediff/internal/diff"
	"github.com/nao1215/pagediff/internal/fingerprint"
	"github.com/nao1215/pagediff/internal/match"
	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/pipeline"
	"github.com/nao1215/pagediff/internal/score"
	"github.com/nao1215/pagediff/internal/segment"
	"github.com/nao1215/pagediff/internal/textsim"
	"github.com/nao1215/pagediff/internal/visual"
)

// Engine runs document comparisons.
type Engine struct {
	pipeline *pipeline.Pipeline
	timeout  time.Duration
	strategy match.Strategy
	newID    func() string
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine and all of its steps.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithIDGenerator replaces the random report id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// New validates the tuning of cfg and builds an engine from it.
// Configuration errors are returned here, never during a comparison.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.ValidateTuning(); err != nil {
		return nil, err
	}

	e := &Engine{
		timeout:  cfg.Timeout,
		strategy: cfg.ParsedStrategy(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	text, err := textsim.NewComparator(cfg.TextWeights)
	if err != nil {
		return nil, err
	}

	pool := pipeline.NewPool(
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithPoolLogger(e.logger),
	)
	pageMatcher, err := match.New(cfg.Threshold, match.WithRunner(pool))
	if err != nil {
		return nil, err
	}
	segmentMatcher, err := match.New(cfg.Threshold, match.WithRunner(pool))
	if err != nil {
		return nil, err
	}

	extractor := fingerprint.NewExtractor(
		fingerprint.WithHasher(visual.NewHasher(cfg.ParsedHashKind(), cfg.HashGrid)),
		fingerprint.WithLogger(e.logger),
	)
	segmenter := segment.New(segment.Options{
		MinPages:      cfg.MinSegmentPages,
		TitleFontSize: cfg.TitleFontSize,
		TitleMinLen:   cfg.TitleMinLength,
		TitleMaxLen:   cfg.TitleMaxLength,
		TopFraction:   segment.DefaultTopFraction,
	}, segment.NewClassifier(cfg.ContentTypes))

	diffOpts := diff.DefaultOptions()
	diffOpts.Policy = cfg.Severity
	diffOpts.SSIMWindow = cfg.SSIMWindow

	p := pipeline.New(pipeline.WithLogger(e.logger))
	p.AddSteps(
		pipeline.NewFingerprintStep(extractor, pool),
		pipeline.NewSegmentStep(segmenter),
		pipeline.NewSegmentMatchStep(segmentMatcher, score.NewSegmentScorer(cfg.SegmentWeights, text)),
		pipeline.NewPageMatchStep(pageMatcher, score.NewPageScorer(cfg.PageWeights, text, cfg.SSIMWindow),
			pipeline.WithStrategy(e.strategy),
			pipeline.WithVisualThreshold(cfg.VisualThreshold),
			pipeline.WithPageMatchLogger(e.logger),
		),
		pipeline.NewDiffStep(diff.New(diffOpts), pool),
		pipeline.NewRollupStep(),
	)
	e.pipeline = p
	return e, nil
}

// Steps returns the names of the comparison steps in execution order.
func (e *Engine) Steps() []string {
	return e.pipeline.StepNames()
}

// Compare compares base against compare.
//
// The run is bounded by the configured timeout. When the run is cancelled
// or times out, Compare returns the partial report together with the
// context error; that report has Complete set to false and must not be
// treated as final. Failed pages are not errors: they are reported as
// "could not compare" entries and the run completes.
func (e *Engine) Compare(ctx context.Context, base, compare *model.Document) (*model.Report, error) {
	if base == nil {
		base = model.NewDocument("", nil)
	}
	if compare == nil {
		compare = model.NewDocument("", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	report := model.NewReport(e.newID(), base, compare)
	report.Strategy = string(e.strategy)

	e.logger.Info("comparison started",
		"comparison", report.ID,
		"base", base.Name,
		"base_pages", base.PageCount(),
		"compare", compare.Name,
		"compare_pages", compare.PageCount(),
	)

	err := e.pipeline.Execute(ctx, report)
	report.Finish()

	if err != nil {
		e.logger.Warn("comparison incomplete",
			"comparison", report.ID,
			"timed_out", report.TimedOut,
			"error", err,
		)
		return report, fmt.Errorf("compare %q with %q: %w", base.Name, compare.Name, err)
	}

	e.logger.Info("comparison finished",
		"comparison", report.ID,
		"differences", report.Summary.TotalDifferences,
		"similarity", report.Summary.OverallSimilarity,
		"duration", report.Duration,
	)
	return report, nil
}
