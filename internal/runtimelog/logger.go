// Package runtimelog provides structured logging for the engine host,
// adapted from the teacher's internal/logger: the same log/slog JSON
// handler setup and trace-ID context propagation, generalised from a
// per-token trading trace ID to a per-evaluation trace ID keyed by
// recordable path.
package runtimelog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hgraph-go/runtime/internal/clock"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Init creates a structured logger for the given host service, outputting
// JSON to stdout with the service name embedded, and installs it as the
// slog default.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)
	slog.SetDefault(logger)
	return logger
}

// WithTraceID stores a trace ID in the context for downstream propagation
// across node Eval calls within the same tick.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from context. Returns "" if not set.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID builds a trace ID from a recordable path and the engine
// time of the tick driving it: "{path}@{engineTime}".
func GenerateTraceID(path string, at clock.EngineTime) string {
	return fmt.Sprintf("%s@%d", path, int64(at))
}

// LogWithTrace returns slog attributes including the trace ID from
// context, for use as: slog.Info("msg", runtimelog.LogWithTrace(ctx)...).
func LogWithTrace(ctx context.Context) []any {
	tid := TraceID(ctx)
	if tid == "" {
		return nil
	}
	return []any{slog.String("trace_id", tid)}
}
