// Package engine compares two documents and produces a model.Report.
//
// An Engine is built once from a validated configuration and can run any
// number of comparisons, concurrently if needed. Each run fingerprints
// both documents, segments them, pairs segments and pages, extracts the
// differences of every page pair and rolls them up into a summary.
package engine
