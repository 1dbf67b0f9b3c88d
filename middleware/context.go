// Package middleware carries the HTTP-level cross-cutting concerns:
// bearer-token authentication and per-request context plumbing.
package middleware

import (
	"context"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/auth"
)

// Context key type to avoid collisions
type contextKey string

const (
	// claimsKey is the context key for validated token claims
	claimsKey contextKey = "claims"
)

// WithClaims adds validated token claims to the context
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaimsFromContext retrieves token claims from context
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if val := ctx.Value(claimsKey); val != nil {
		if claims, ok := val.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
