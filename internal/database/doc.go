// Package database provides SQLite-based storage for comparison history.
//
// ReportDB stores:
//   - Comparison reports as JSON, with summary columns for listing
//   - The page pairing of every comparison, for per-page history queries
//
// The store uses modernc.org/sqlite, a CGO-free driver, with WAL mode
// enabled by default. The database is a single file in the XDG data
// directory unless configured otherwise.
package database
