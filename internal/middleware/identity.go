// Package middleware provides the HTTP middleware chain: caller identity
// propagation and request logging.
//
// Authentication itself happens upstream; the gateway in front of this
// service verifies the caller and forwards the resolved user ID in the
// X-User-Id header. The core never sees credentials.
package middleware

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the resolved caller ID.
const UserIDKey contextKey = "user_id"

// UserIDHeader carries the resolved caller ID from the upstream gateway.
const UserIDHeader = "X-User-Id"

// GetUserID extracts the caller ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns a copy of ctx carrying the caller ID. Exposed for
// handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// Identity copies the gateway-resolved caller ID from the request header
// into the context. Requests without the header pass through; handlers
// that need an identity reject them.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(UserIDHeader); userID != "" {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}
