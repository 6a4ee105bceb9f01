// Package diff extracts per-modality differences from a pair of pages.
//
// A pair with a missing page short-circuits to one structural difference,
// and a pair involving a page the provider failed on short-circuits to one
// "could not compare" difference. Otherwise text lines, placed images,
// fonts and text styling are compared independently, and every difference
// gets its severity from a SeverityPolicy.
package diff
