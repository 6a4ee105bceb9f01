// Package main provides the entry point for the pagediff CLI.
//
// pagediff compares two revisions of a document page by page. It pairs
// pages that survived reordering, insertion and deletion, and reports
// text, image, font, style and page-level differences with a severity.
//
// Usage:
//
//	pagediff compare <base> <compare>
//	pagediff history
//
// See --help for all available options.
package main

// main is the entry point for pagediff.
func main() {
	Execute()
}
