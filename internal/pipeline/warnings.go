package pipeline

import (
	"log/slog"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
)

// Warning represents a non-fatal problem a step recovered from.
type Warning struct {
	// Code is a stable warning identifier.
	Code errors.Code

	// Message is a human-readable description.
	Message string
}

// Warnings collects recoverable problems and logs each one at warn level
// as it is added, so nothing is dropped silently.
type Warnings struct {
	logger *slog.Logger
	list   []Warning
}

// NewWarnings creates a collector. A nil logger discards log output.
func NewWarnings(logger *slog.Logger) *Warnings {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Warnings{logger: logger}
}

// Add records a warning. cause may be nil.
func (w *Warnings) Add(code errors.Code, message string, cause error) {
	attrs := []any{"code", string(code)}
	if cause != nil {
		attrs = append(attrs, "error", cause.Error())
	}
	w.logger.Warn(message, attrs...)
	w.list = append(w.list, Warning{Code: code, Message: message})
}

// List returns the warnings in the order they were added.
func (w *Warnings) List() []Warning {
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	return out
}
