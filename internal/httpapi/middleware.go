package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"plexshelf/internal/logging"
	"plexshelf/internal/services"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags each request with a correlation id, echoed in the
// X-Request-ID response header, and logs method, path, status, and latency.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger := logging.WithContext(ctx, s.logger)
		attrs := []logging.Attr{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Warn("api request", logging.Args(attrs...)...)
			return
		}
		logger.Debug("api request", logging.Args(attrs...)...)
	})
}
