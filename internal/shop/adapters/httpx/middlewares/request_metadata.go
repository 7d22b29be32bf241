package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	HeaderXRequestId      = "X-Request-Id"
	HeaderXIdempotencyKey = "X-Idempotency-Key"

	contextKeyIdempotencyKey contextKey = "x-idempotency-key"
)

// EnsureRequestID fills in a UUID X-Request-Id when the client sent none.
// It must run before middleware.RequestID so chi adopts the same id.
func EnsureRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderXRequestId) == "" {
			r.Header.Set(HeaderXRequestId, uuid.NewString())
		}
		next.ServeHTTP(w, r)
	})
}

// AttachRequestMetadata echoes the request id to the client and stores the
// idempotency key in the request context.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set(HeaderXRequestId, requestID)
		}

		ctx := r.Context()
		if key := r.Header.Get(HeaderXIdempotencyKey); key != "" {
			ctx = context.WithValue(ctx, contextKeyIdempotencyKey, key)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdempotencyKey returns the X-Idempotency-Key of the request, or "".
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(contextKeyIdempotencyKey).(string)
	return key
}
