// Package middleware holds the HTTP middleware chain: request tracing and
// API-key authentication.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/oselle/lookbook-api/internal/api/shared"
)

// Trace attaches a trace ID to every request and logs its arrival. Apply it
// first so the rest of the chain can correlate on the ID.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			"trace_id", shared.GetTraceID(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
