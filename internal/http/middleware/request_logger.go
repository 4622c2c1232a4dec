package middleware

import (
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// RequestLogger emits one structured line per request with the final status
// and latency. Webhook deliveries log at debug level: the provider
// redelivers aggressively and would drown the operator API lines.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			emit := logger.Info
			if strings.HasPrefix(r.URL.Path, "/webhooks/") {
				emit = logger.Debug
			}
			emit("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", chimw.GetReqID(r.Context()),
				"remote_ip", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
