package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDKeyType string

const RequestIDKey requestIDKeyType = "request_id"

// RequestIDMiddleware tags every request with an ID for log correlation. A
// caller-supplied X-Request-Id is honored so IDs survive proxy hops; the
// ID is echoed back on the response either way.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.New().String()
			}

			w.Header().Set("X-Request-Id", id)

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), RequestIDKey, id),
			))
		})
	}
}

// GetRequestID returns the request ID, or "" outside a request context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
