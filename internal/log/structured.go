package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger groups the log lines the server and service emit for
// their main lifecycle events, so field names stay consistent across
// call sites.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request. Client errors log
// at Warn, server errors at Error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogStateSaved logs a successful budget state save
func (sl *StructuredLogger) LogStateSaved(ctx context.Context, groupKey string, revision int64) {
	fields := NewFields().
		WithGroup(groupKey).
		WithRevision(revision).
		WithOperation(OpUpdate).
		WithComponent(ComponentBudget)

	sl.logger.InfoContext(ctx, "Budget state saved", fields.ToSlice()...)
}

// LogRolloverApplied logs a rollover that advanced a group to today
func (sl *StructuredLogger) LogRolloverApplied(ctx context.Context, groupKey string, rolloverDate string, revision int64) {
	fields := NewFields().
		WithGroup(groupKey).
		WithRevision(revision).
		WithOperation(OpRollover).
		WithComponent(ComponentRollover).
		ToSlice()

	fields = append(fields, FieldRolloverDate, rolloverDate)

	sl.logger.InfoContext(ctx, "Rollover applied", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
