package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type traceIDKey struct{}

// InjectTraceID attaches a fresh trace id to the context and to the zerolog
// logger carried by it, so every log line of one request shares the id.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	ctx = context.WithValue(ctx, traceIDKey{}, id)
	logger := log.With().Str("traceId", id).Logger()
	return logger.WithContext(ctx)
}

// TraceID returns the trace id carried by ctx, empty when none was injected.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
