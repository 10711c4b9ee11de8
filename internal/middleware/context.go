package middleware

import (
	"context"

	"brandmind/internal/auth"
	"brandmind/internal/domain"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userKey      contextKey = "user"
	claimsKey    contextKey = "claims"
	localeKey    contextKey = "locale"
)

// UserFromContext returns the authenticated user attached by Authenticate.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}

// ClaimsFromContext returns the verified token claims, nil for API-key auth.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return c
	}
	return nil
}

// ContextWithUser attaches an authenticated user, for handler tests.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// ContextWithClaims attaches verified claims, for handler tests.
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
