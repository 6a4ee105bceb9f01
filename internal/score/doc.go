// Package score fuses independent similarity signals into one number.
//
// Segment scoring combines text, content type, layout, image count and
// title similarity. Page scoring combines a visual signal (perceptual hash
// and optionally SSIM) with text similarity. Every score is in [0,1].
package score
