package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/logger"
)

type traceKey struct{}

func traceExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(traceKey{}).(string)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("trace_id", v), true
	}
}

func TestLogHandlerDecorator(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := logger.NewLogHandlerDecorator(
		slog.NewJSONHandler(&buf, nil),
		traceExtractor(),
		nil, // nil extractors are dropped, not called
	)
	log := slog.New(handler)

	ctx := context.WithValue(context.Background(), traceKey{}, "trace-1")
	log.InfoContext(ctx, "file uploaded", slog.String("path", "data/a.txt"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "file uploaded", rec["msg"])
	assert.Equal(t, "data/a.txt", rec["path"])
	assert.Equal(t, "trace-1", rec["trace_id"])

	buf.Reset()
	rec = map[string]any{} // Unmarshal merges into an existing map; start fresh
	log.Info("no context value")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	_, present := rec["trace_id"]
	assert.False(t, present)
}

func TestNewWithLevel(t *testing.T) {
	t.Parallel()

	log := logger.NewWithLevel(slog.LevelWarn)
	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, log.Enabled(context.Background(), slog.LevelWarn))
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	// Must not panic and must discard everything.
	logger.NewNope().Error("dropped")
}
