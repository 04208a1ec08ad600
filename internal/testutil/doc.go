// Package testutil holds deterministic stand-ins shared by the harness and
// by package tests: a resettable clock, a fixed flow token generator and
// the ComposableBase fixture class. Nothing here imports testing, since the
// demo command links the fixture into the binary.
package testutil
