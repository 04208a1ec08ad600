package cli

import (
	"io"
	"log/slog"
)

// newLogger returns the text logger commands write diagnostics to.
// Debug records only show with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
