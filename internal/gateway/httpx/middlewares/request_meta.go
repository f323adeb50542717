package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// contextKey is an unexported type for context keys in this package, so the
// values cannot collide with keys from other packages.
type contextKey string

// ContextKeyRequestID carries the request identifier assigned by
// middleware.RequestID through the handler chain.
const ContextKeyRequestID contextKey = "request_id"

// AttachRequestMetadata copies the chi request ID into a typed context key
// so downstream code can read it without importing chi's middleware.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
