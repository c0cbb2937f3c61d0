// Package logging assembles the slog loggers used across CadSocial.
//
// New routes records to a size-rotated log file and, when the console writer
// is a terminal, to the console as well. Two formats are supported: "console"
// renders one key=value line per record with the component pulled up front,
// "json" emits slog's JSON with ts/level/msg keys. Component tags a logger so
// every line names the package that wrote it.
//
// The interactive form never passes a console writer, so log lines cannot
// tear through the TUI; `cadsocial logs` reads the file back instead.
package logging
