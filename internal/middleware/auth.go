package middleware

import (
	"context"
	"net/http"
	"strings"

	"brandmind/internal/auth"
	"brandmind/internal/domain"
)

// UserSource resolves credentials to accounts.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByAPIKey(ctx context.Context, key string) (*domain.User, error)
}

// Authenticate accepts either a bearer access token or an X-API-Key header,
// resolves it to an active account and attaches the user (and token claims,
// when present) to the request context. Inactive accounts are rejected the
// same way as missing credentials.
func Authenticate(issuer *auth.Issuer, users UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get("X-API-Key"); key != "" {
				user, err := users.GetByAPIKey(r.Context(), key)
				if err != nil || !user.IsActive {
					deny(w, http.StatusUnauthorized, "invalid_api_key", "API key is not valid", nil)
					return
				}
				next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				deny(w, http.StatusUnauthorized, "missing_token", "authentication required", nil)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				deny(w, http.StatusUnauthorized, "invalid_token", "malformed authorization header", nil)
				return
			}
			claims, err := issuer.Verify(parts[1])
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired", nil)
				return
			}
			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil || !user.IsActive {
				deny(w, http.StatusUnauthorized, "user_not_found", "account not found or inactive", nil)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = ContextWithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
