package score

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned for negative weights or weight groups that
// do not sum to 1.
var ErrInvalidWeights = errors.New("fusion weights must be non-negative and sum to 1")

const weightTolerance = 1e-6

// PageWeights split the page score between the visual and text signals,
// and the visual signal between perceptual hash and SSIM.
type PageWeights struct {
	Visual float64 `json:"visual" yaml:"visual"`
	Text   float64 `json:"text" yaml:"text"`
	Hash   float64 `json:"hash" yaml:"hash"`
	SSIM   float64 `json:"ssim" yaml:"ssim"`
}

// DefaultPageWeights favors the visual signal, computed from the hash only.
func DefaultPageWeights() PageWeights {
	return PageWeights{Visual: 0.65, Text: 0.35, Hash: 1, SSIM: 0}
}

// Validate checks both weight groups.
func (w PageWeights) Validate() error {
	if err := checkGroup("page", w.Visual, w.Text); err != nil {
		return err
	}
	return checkGroup("visual", w.Hash, w.SSIM)
}

// SegmentWeights weight the five segment signals.
type SegmentWeights struct {
	Text        float64 `json:"text" yaml:"text"`
	ContentType float64 `json:"content_type" yaml:"contentType"`
	Layout      float64 `json:"layout" yaml:"layout"`
	ImageCount  float64 `json:"image_count" yaml:"imageCount"`
	Title       float64 `json:"title" yaml:"title"`
}

// DefaultSegmentWeights returns text 0.4, content type 0.2, layout 0.2,
// image count 0.1 and title 0.1.
func DefaultSegmentWeights() SegmentWeights {
	return SegmentWeights{Text: 0.4, ContentType: 0.2, Layout: 0.2, ImageCount: 0.1, Title: 0.1}
}

// Validate checks the weights.
func (w SegmentWeights) Validate() error {
	return checkGroup("segment", w.Text, w.ContentType, w.Layout, w.ImageCount, w.Title)
}

func checkGroup(name string, weights ...float64) error {
	var sum float64
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: negative %s weight %v", ErrInvalidWeights, name, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: %s weights sum to %.4f", ErrInvalidWeights, name, sum)
	}
	return nil
}
