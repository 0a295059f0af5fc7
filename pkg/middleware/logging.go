package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/swagculi/chatapp/pkg/logging"
)

// RequestLogger injects a request-scoped child logger into the context.
// Runs inside the tracer middleware, so the span is already on the context.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				logging.RequestID(uuid.NewString()),
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				attrs = append(attrs, logging.TraceID(sc.TraceID().String()))
			}
			reqLog := log.With(attrs...)
			ctx := logging.WithContext(r.Context(), reqLog)
			reqLog.Debug("request started")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
