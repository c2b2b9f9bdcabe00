package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context, falling back to
// the process default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default()}
}

// StructuredLogger writes the application's well-known events with a fixed
// set of fields, so they can be searched the same way everywhere.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request. 4xx responses log at
// warn and 5xx at error.
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
		WithClientIP(clientIP)

	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogTripEdited logs a committed trip field edit
func (sl *StructuredLogger) LogTripEdited(ctx context.Context, plate, date, field string) {
	fields := NewFields().
		WithTrip(plate, date).
		WithOperation(OpUpdate).
		ToSlice()

	fields = append(fields, FieldTripField, field)

	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Trip field updated", fields...)
}

// LogTransferCommitted logs a successful allowance transfer
func (sl *StructuredLogger) LogTransferCommitted(ctx context.Context, proposalID, source, target string, transferred int) {
	fields := NewFields().
		WithTransfer(proposalID, source, target, transferred).
		WithOperation(OpTransfer)

	sl.logger.WithComponent(ComponentTransfer).InfoContext(ctx, "Allowance transfer committed", fields.ToSlice()...)
}

// LogTransferNotRefreshed warns that a committed transfer left stale views.
func (sl *StructuredLogger) LogTransferNotRefreshed(ctx context.Context, proposalID, reason string) {
	sl.logger.WithComponent(ComponentTransfer).WarnContext(ctx, "Views not refreshed after transfer",
		FieldProposalID, proposalID,
		FieldError, reason)
}

// LogRefreshFailed warns about a ledger fetch that produced no new views.
func (sl *StructuredLogger) LogRefreshFailed(ctx context.Context, reason string, err error) {
	fields := NewFields().
		WithOperation(OpRefresh).
		WithError(err).
		ToSlice()

	sl.logger.WithComponent(ComponentLedger).WarnContext(ctx, "Ledger refresh failed", append(fields, "reason", reason)...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
