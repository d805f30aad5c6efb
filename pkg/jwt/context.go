package jwt

import "context"

type contextKey struct{}

// NewContext attaches verified access-token claims to a request context.
func NewContext(ctx context.Context, claims *AccessClaims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// FromContext returns the claims attached by the auth middleware.
func FromContext(ctx context.Context) (*AccessClaims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*AccessClaims)
	return claims, ok
}
