// Package textsim scores the similarity of two page texts.
//
// Four metrics are computed on normalized text and fused with configurable
// weights: Jaccard over word sets, Levenshtein edit similarity, cosine over
// term frequencies, and Dice word overlap. The metrics are deliberately
// different in what they notice: reordering paragraphs keeps the set and
// frequency metrics high while the edit similarity drops.
package textsim
