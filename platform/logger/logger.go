// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// BillIDKey is the context key for the bill being processed
	BillIDKey contextKey = "bill_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and bill_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if billID, ok := ctx.Value(BillIDKey).(string); ok && billID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("bill_id", billID))}
	}

	return newLogger
}

// WithBillID returns a logger with the bill ID attached.
func (l *Logger) WithBillID(billID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("bill_id", billID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// NotificationError logs a failed notification attempt for one channel.
// Channel failures are operational events, never user-facing errors.
func (l *Logger) NotificationError(channel, billID string, err error) {
	l.Error("notification_error",
		slog.String("channel", channel),
		slog.String("bill_id", billID),
		slog.String("error", err.Error()),
	)
}

// ProviderCall logs an outbound call to a third-party provider.
func (l *Logger) ProviderCall(provider, operation string, success bool, detail string) {
	if success {
		l.Info("provider_call",
			slog.String("provider", provider),
			slog.String("operation", operation),
			slog.Bool("success", success),
		)
	} else {
		l.Warn("provider_call",
			slog.String("provider", provider),
			slog.String("operation", operation),
			slog.Bool("success", success),
			slog.String("detail", detail),
		)
	}
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
