// Package visual compares rendered page images.
//
// Two independent signals are provided:
//   - a perceptual hash (average or gradient) compared by Hamming distance,
//     which is cheap and tolerant of small rendering noise
//   - SSIM, a windowed structural similarity that reacts to local changes
//     the hash smooths away
//
// Both work on a luminance plane computed with 0.299R + 0.587G + 0.114B.
// Missing or unusable input yields similarity 0 rather than an error.
package visual
