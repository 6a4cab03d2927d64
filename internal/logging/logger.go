// Package logging builds the structured logger every gemkit command uses.
package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger writing to w.
// When w is a terminal the output is slog text; when it is piped or
// redirected the output is JSON, one object per line.
// verbose lowers the level to debug, which includes per-step start/finish
// records and every subprocess command line.
//
// Callers scope the logger with command context via With():
//
//	logger := logging.NewCommandLogger(stderr, false).With("command", "init", "dir", dir)
func NewCommandLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
