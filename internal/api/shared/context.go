package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// ContextKey is the type for values stored in request contexts.
type ContextKey string

const (
	// TraceIDKey carries the per-request trace ID.
	TraceIDKey ContextKey = "traceID"

	// ClientKeyIDKey carries the identifier of the API key that
	// authenticated the request.
	ClientKeyIDKey ContextKey = "clientKeyID"

	traceIDLength = 16
)

// SetTraceID attaches a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the trace ID from the context, or "" when absent.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SetClientKeyID records which configured API key authenticated the request.
func SetClientKeyID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ClientKeyIDKey, id)
}

// GetClientKeyID returns the authenticated key's identifier, or "" when the
// request was not authenticated.
func GetClientKeyID(ctx context.Context) string {
	id, ok := ctx.Value(ClientKeyIDKey).(string)
	if !ok {
		return ""
	}
	return id
}

// generateTraceID returns a 32-character hex ID. When crypto/rand fails it
// falls back to timestamps rather than a static value.
func generateTraceID() string {
	b := make([]byte, traceIDLength)
	if n, err := rand.Read(b); err != nil || n != traceIDLength {
		binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
		binary.BigEndian.PutUint64(b[8:], uint64(time.Now().Unix()))
	}
	return hex.EncodeToString(b)
}
