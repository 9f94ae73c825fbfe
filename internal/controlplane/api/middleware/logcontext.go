package middleware

import (
	"net"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/kanbu/kanbu-acl/internal/logger"
)

// LogContext attaches a logger.LogContext carrying the request ID, client IP
// and, when a span is active, the trace and span IDs. It must run after
// chi's RequestID and RealIP middleware.
func LogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lc := logger.NewLogContext(chimw.GetReqID(r.Context()), clientIP(r.RemoteAddr))
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			lc = lc.WithTrace(sc.TraceID().String(), sc.SpanID().String())
		}
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), lc)))
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
