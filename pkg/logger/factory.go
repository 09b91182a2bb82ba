package logger

import (
	"log/slog"
	"os"
)

// New creates a JSON logger writing to stdout. Any extractors are applied
// to every record, pulling request-scoped attributes out of the context.
func New(extractors ...ContextExtractor) *slog.Logger {
	return NewWithLevel(slog.LevelInfo, extractors...)
}

// NewWithLevel is New with an explicit minimum level.
func NewWithLevel(level slog.Level, extractors ...ContextExtractor) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(NewLogHandlerDecorator(handler, extractors...))
}
