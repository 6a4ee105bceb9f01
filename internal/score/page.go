package score

import (
	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/textsim"
	"github.com/nao1215/pagediff/internal/visual"
)

// PageSignals is what the page scorer knows about one page.
type PageSignals struct {
	Fingerprint *model.PageFingerprint

	// Plane is a luminance plane at a size shared by all pages of the run.
	// It is only needed when SSIM takes part in page scoring.
	Plane *visual.Plane
}

func (p PageSignals) hasHash() bool {
	return p.Fingerprint.HasVisual()
}

func (p PageSignals) hasPlane() bool {
	return !p.Plane.Empty()
}

// PageScores is the breakdown of a page comparison.
type PageScores struct {
	Visual float64 `json:"visual"`
	Text   float64 `json:"text"`
	Fused  float64 `json:"fused"`

	// VisualAvailable and TextAvailable report whether the signal was
	// present on at least one side and therefore took part in the fusion.
	VisualAvailable bool `json:"visual_available"`
	TextAvailable   bool `json:"text_available"`
}

// PageScorer scores pairs of pages.
//
// A signal absent on both pages is dropped and the remaining weights are
// renormalized, so two documents without rasters are matched on text
// alone. A signal present on only one page scores 0 for that signal.
type PageScorer struct {
	weights PageWeights
	text    *textsim.Comparator
	window  int
}

// NewPageScorer creates a page scorer. The weights are assumed valid.
func NewPageScorer(w PageWeights, text *textsim.Comparator, ssimWindow int) *PageScorer {
	if text == nil {
		text = textsim.Default()
	}
	return &PageScorer{weights: w, text: text, window: ssimWindow}
}

// UsesSSIM reports whether SSIM contributes to page scores.
func (s *PageScorer) UsesSSIM() bool {
	return s.weights.SSIM > 0
}

// Score returns the fused page similarity.
func (s *PageScorer) Score(a, b PageSignals) float64 {
	return s.Breakdown(a, b).Fused
}

// VisualScore returns the visual signal alone. It is the cheap first
// phase of two-phase matching.
func (s *PageScorer) VisualScore(a, b PageSignals) float64 {
	v, _ := s.visual(a, b)
	return v
}

// Breakdown scores two pages signal by signal.
func (s *PageScorer) Breakdown(a, b PageSignals) PageScores {
	if a.Fingerprint == nil || b.Fingerprint == nil || a.Fingerprint.Failed || b.Fingerprint.Failed {
		return PageScores{}
	}

	var sc PageScores
	sc.Visual, sc.VisualAvailable = s.visual(a, b)
	sc.Text, sc.TextAvailable = s.textScore(a, b)

	var weight, total float64
	if sc.VisualAvailable && s.weights.Visual > 0 {
		weight += s.weights.Visual
		total += s.weights.Visual * sc.Visual
	}
	if sc.TextAvailable && s.weights.Text > 0 {
		weight += s.weights.Text
		total += s.weights.Text * sc.Text
	}
	if weight > 0 {
		sc.Fused = model.Clamp01(total / weight)
	}
	return sc
}

func (s *PageScorer) textScore(a, b PageSignals) (float64, bool) {
	fa, fb := a.Fingerprint, b.Fingerprint
	if !fa.HasText() && !fb.HasText() {
		return 0, false
	}
	if fa.TextHash != "" && fa.TextHash == fb.TextHash {
		return 1, true
	}
	return s.text.Compare(fa.Text, fb.Text).Fused, true
}

// visual combines the hash and SSIM sub-signals with the same
// missing-signal rule as the top-level fusion.
func (s *PageScorer) visual(a, b PageSignals) (float64, bool) {
	var weight, total float64
	available := false

	if s.weights.Hash > 0 && (a.hasHash() || b.hasHash()) {
		available = true
		weight += s.weights.Hash
		if a.hasHash() && b.hasHash() {
			total += s.weights.Hash * visual.Similarity(a.Fingerprint.PerceptualHash, b.Fingerprint.PerceptualHash)
		}
	}
	if s.weights.SSIM > 0 && (a.hasPlane() || b.hasPlane()) {
		available = true
		weight += s.weights.SSIM
		if a.hasPlane() && b.hasPlane() {
			total += s.weights.SSIM * visual.SSIMPlanes(a.Plane, b.Plane, s.window)
		}
	}
	if !available || weight == 0 {
		return 0, false
	}
	return model.Clamp01(total / weight), true
}
