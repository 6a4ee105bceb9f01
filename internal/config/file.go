package config

import (
	"fmt"
	"time"

	"github.com/nao1215/pagediff/internal/score"
	"github.com/nao1215/pagediff/internal/textsim"
)

// File represents the structure of the .pagediff tuning file.
//
// Scalar values override the defaults when non-zero. A weight group
// replaces the default group as a whole as soon as one of its weights is
// set, so a weight can be turned off by listing it as 0 next to the others.
type File struct {
	Matching     MatchingSection     `yaml:"matching,omitempty"`
	Weights      WeightsSection      `yaml:"weights,omitempty"`
	Segmentation SegmentationSection `yaml:"segmentation,omitempty"`
	Visual       VisualSection       `yaml:"visual,omitempty"`
	Run          RunSection          `yaml:"run,omitempty"`

	// ContentTypes replaces the built-in content-type keyword table.
	ContentTypes map[string][]string `yaml:"contentTypes,omitempty"`

	// Severity overrides severities by category: text, image, font, style,
	// metadata or structural.
	Severity map[string]string `yaml:"severity,omitempty"`
}

// MatchingSection configures pairing.
type MatchingSection struct {
	Threshold       float64 `yaml:"threshold,omitempty"`
	VisualThreshold float64 `yaml:"visualThreshold,omitempty"`
	Strategy        string  `yaml:"strategy,omitempty"`
}

// PageWeightsSection is the page-level fusion split.
type PageWeightsSection struct {
	Visual float64 `yaml:"visual"`
	Text   float64 `yaml:"text"`
}

// VisualWeightsSection splits the visual signal between hash and SSIM.
type VisualWeightsSection struct {
	Hash float64 `yaml:"hash"`
	SSIM float64 `yaml:"ssim"`
}

// WeightsSection holds all fusion weights.
type WeightsSection struct {
	Page    PageWeightsSection   `yaml:"page,omitempty"`
	Visual  VisualWeightsSection `yaml:"visual,omitempty"`
	Segment score.SegmentWeights `yaml:"segment,omitempty"`
	Text    textsim.Weights      `yaml:"text,omitempty"`
}

// SegmentationSection configures the segmentation heuristics.
type SegmentationSection struct {
	MinPages       int     `yaml:"minPages,omitempty"`
	TitleFontSize  float64 `yaml:"titleFontSize,omitempty"`
	TitleMinLength int     `yaml:"titleMinLength,omitempty"`
	TitleMaxLength int     `yaml:"titleMaxLength,omitempty"`
}

// VisualSection configures the visual comparators.
type VisualSection struct {
	SSIMWindow    int    `yaml:"ssimWindow,omitempty"`
	HashGrid      int    `yaml:"hashGrid,omitempty"`
	HashKind      string `yaml:"hashKind,omitempty"`
	RenderPattern string `yaml:"renderPattern,omitempty"`
}

// RunSection configures execution.
type RunSection struct {
	Concurrency int           `yaml:"concurrency,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// ApplyTo merges the file into cfg. The result is not validated.
func (f *File) ApplyTo(cfg *Config) error {
	if f == nil {
		return nil
	}

	m := f.Matching
	if m.Threshold != 0 {
		cfg.Threshold = m.Threshold
	}
	if m.VisualThreshold != 0 {
		cfg.VisualThreshold = m.VisualThreshold
	}
	if m.Strategy != "" {
		cfg.Strategy = m.Strategy
	}

	w := f.Weights
	if w.Page != (PageWeightsSection{}) {
		cfg.PageWeights.Visual = w.Page.Visual
		cfg.PageWeights.Text = w.Page.Text
	}
	if w.Visual != (VisualWeightsSection{}) {
		cfg.PageWeights.Hash = w.Visual.Hash
		cfg.PageWeights.SSIM = w.Visual.SSIM
	}
	if w.Segment != (score.SegmentWeights{}) {
		cfg.SegmentWeights = w.Segment
	}
	if w.Text != (textsim.Weights{}) {
		cfg.TextWeights = w.Text
	}

	s := f.Segmentation
	if s.MinPages != 0 {
		cfg.MinSegmentPages = s.MinPages
	}
	if s.TitleFontSize != 0 {
		cfg.TitleFontSize = s.TitleFontSize
	}
	if s.TitleMinLength != 0 {
		cfg.TitleMinLength = s.TitleMinLength
	}
	if s.TitleMaxLength != 0 {
		cfg.TitleMaxLength = s.TitleMaxLength
	}

	v := f.Visual
	if v.SSIMWindow != 0 {
		cfg.SSIMWindow = v.SSIMWindow
	}
	if v.HashGrid != 0 {
		cfg.HashGrid = v.HashGrid
	}
	if v.HashKind != "" {
		cfg.HashKind = v.HashKind
	}
	if v.RenderPattern != "" {
		cfg.RenderPattern = v.RenderPattern
	}

	if f.Run.Concurrency != 0 {
		cfg.Concurrency = f.Run.Concurrency
	}
	if f.Run.Timeout != 0 {
		cfg.Timeout = f.Run.Timeout
	}

	if len(f.ContentTypes) > 0 {
		cfg.ContentTypes = f.ContentTypes
	}
	if len(f.Severity) > 0 {
		policy, err := cfg.Severity.Override(f.Severity)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSeverity, err)
		}
		cfg.Severity = policy
	}
	return nil
}
