package middleware

import (
	"net/http"
	"time"

	"github.com/bikerly/api/internal/metrics"
)

// MetricsMiddleware records request counts and latencies to Prometheus.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			recorder := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(recorder, r)

			metrics.RecordHTTPRequest(r.Method, r.URL.Path, recorder.statusCode, time.Since(start).Seconds())
		})
	}
}
