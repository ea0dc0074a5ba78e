package middleware

import (
	"fmt"
	"net/http"

	"github.com/bikerly/api/internal/apperrors"
	"github.com/bikerly/api/internal/logging"
)

// RecoveryMiddleware recovers from panics. The panic value is logged in
// full; the caller only ever sees the generic internal error envelope.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic recovered", nil, map[string]interface{}{
						"panic": fmt.Sprintf("%v", rec),
						"path":  r.URL.Path,
					})
					apperrors.Write(w, r, fmt.Errorf("panic: %v", rec))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
