// Package pipeline runs a document comparison as a sequence of steps.
//
// Each step receives the report assembled so far and adds to it:
// fingerprinting, segmentation, segment matching, page matching,
// difference extraction and the rollup. Cancellation is checked between
// steps, and a cancelled run leaves the report marked as timed out and
// never complete.
//
// Work inside a step that splits into independent units, such as
// fingerprinting pages or differencing page pairs, runs on a Pool backed
// by errgroup with a concurrency limit. Every unit writes only its own
// slot of a pre-allocated result.
package pipeline
