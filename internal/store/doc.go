// Package store persists recorded calls to composed methods in SQLite.
//
// The log is append-only:
//   - invocations: one row per call, with positional args
//   - completions: at most one per invocation, Success or Error
//
// Rows are keyed by content-addressed IDs from package ir, so writing the
// same record twice is a no-op. Every multi-row read is ordered by
// seq ASC, id COLLATE BINARY ASC; wall-clock time is never stored.
package store
