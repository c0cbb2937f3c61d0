// Package logtail reads and colours the CadSocial log file.
//
// # Reading
//
// Read returns the last N lines using a ring buffer of size N, so memory is
// bounded by N rather than the file size. Missing files read as empty.
//
// # Format
//
// Lines are expected in the console layout written by internal/logging:
//
//	2026-03-01T12:00:00Z INFO reconcile: sync finished succeeded=2 failed=0
//
// Parse splits a line into timestamp, level, component and the rest; Filter
// narrows lines by minimum level, component and a case-insensitive substring.
// Lines in any other shape (JSON logs, panics) pass through Parse with only
// Rest set and are never dropped by a Match-only filter.
//
// # Colorization
//
// Styles renders the parsed parts with lipgloss. Colour output depends on the
// terminal profile lipgloss detects; on a non-terminal the text is unchanged.
package logtail
