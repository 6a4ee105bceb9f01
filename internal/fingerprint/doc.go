// Package fingerprint derives a PageFingerprint from a provider page.
//
// A fingerprint is computed once per page before matching. It holds the
// normalized text and its hash, the significant-word set, a font usage
// histogram, element counts and, when a rendered raster is available, a
// perceptual hash.
package fingerprint
