package middleware

import (
	"net/http"
	"time"

	"github.com/tetrabit/cardcache/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogging emits one structured log line per request at info level,
// using the logger RequestIDMiddleware already stored in the context.
func RequestLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log := GetLogger(r.Context())
			log.Info("request handled",
				logging.FieldMethod, r.Method,
				logging.FieldRoute, r.URL.Path,
				logging.FieldStatus, rec.status,
				logging.FieldDuration, time.Since(start).Milliseconds(),
			)
		})
	}
}
