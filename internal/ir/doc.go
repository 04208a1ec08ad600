// Package ir provides the canonical intermediate representation for hoc.
//
// This package contains data types only: compiled class specs, recorded
// call invocations and completions, and the sealed value model used for
// call arguments and results. All other internal packages may import ir;
// ir imports nothing internal.
//
// Key design constraints:
//   - NO float values - numbers are int64
//   - JSON tags use snake_case
//   - Recorded calls are ordered by a logical seq, never by wall-clock time
//   - IDs are content-addressed over RFC 8785 canonical JSON
package ir
