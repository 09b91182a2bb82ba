// Package logger builds the slog loggers used across the service.
//
// New returns a JSON slog.Logger that enriches every record with values
// pulled from the request context via ContextExtractor functions, so
// request-scoped metadata such as the request ID shows up on every log
// line without the call site passing it explicitly:
//
//	log := logger.New(logger.WithRequestID)
//	log.InfoContext(ctx, "file uploaded", slog.String("path", p))
//
// NewWithSentry additionally fans records at warn level and above out to
// Sentry, falling back to the plain JSON logger when no DSN is
// configured. NewNope returns a logger that discards everything and is
// meant for tests.
package logger
