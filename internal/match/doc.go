// Package match pairs base items with compare items.
//
// Pairing is greedy and threshold-gated: base items are visited in index
// order and each takes the best still-unmatched compare item if that score
// reaches the threshold. The result is not a globally optimal assignment,
// but it is deterministic and every item ends up in exactly one pair.
//
// Candidate scores may be computed concurrently; the greedy pass itself is
// a single writer over the matched sets.
package match
