package logger

import (
	"io"
	"log/slog"
)

// NewNope returns a logger that discards all records. Useful in tests
// where log output is noise.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
