// Package report renders comparison reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - MarkdownWriter: Markdown with tables, alerts and a Mermaid chart
//   - JSONWriter, FullJSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface and can be combined with
// MultiWriter. Report data structures live in the model package.
//
// Page numbers are printed 1-based; the model and JSON output keep the
// 0-based indexes.
package report
