package infrastructure

import (
	"context"
)

type contextKey string

// Context keys for the correlation IDs the log handler copies onto records
const (
	// TraceIDContextKey is the key for storing trace ID in context
	TraceIDContextKey contextKey = "trace_id"
	// BatchIDContextKey carries the ingest batch a call runs for
	BatchIDContextKey contextKey = "batch_id"
)

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDContextKey)
}

// WithBatchID tags ctx with an ingest batch. Records logged with the
// returned context, including those of remote fetches made for the batch,
// carry a batch_id attribute.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDContextKey, batchID)
}

// BatchIDFromContext returns the ingest batch ctx runs for, if any.
func BatchIDFromContext(ctx context.Context) string {
	return stringValue(ctx, BatchIDContextKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
