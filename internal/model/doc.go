// Package model defines the data structures shared by the comparison engine.
//
// This package contains the following main types:
//   - Document, Page: the input model delivered by a document-model provider
//   - PageFingerprint, DocumentSegment: features derived before matching
//   - Pair: a pairing decision between base and compare pages or segments
//   - Difference: a closed set of difference kinds found for a matched pair
//   - PageComparison, Report: per-pair results and the document-level rollup
//
// The types are kept in their own package because the fingerprint, segment,
// match, diff and report packages all depend on them.
//
// All exported types serialize to JSON; rendered page rasters are excluded.
package model
