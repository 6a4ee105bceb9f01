// Package log builds slog loggers that keep document content out of logs.
//
// Documents under comparison are often confidential. RedactHandler wraps
// any slog.Handler and rewrites attributes before they are written:
//   - content keys (text, base_text, compare_text, title, ...) become a
//     length marker such as "[42 chars]"
//   - values that look like credentials (JWTs, bearer tokens, private key
//     blocks) are masked
//   - any other string longer than MaxValueLength is truncated
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Warn("page could not be hashed", "page", 3, "text", page.Text)
//	// page=3 text="[812 chars]"
package log
