package middleware

import (
	"context"
	"net/http"
	"strings"

	"goldbook/internal/service"
)

type contextKey string

const claimsKey contextKey = "sessionClaims"

// Auth validates bearer tokens and stores the claims in the request context.
func Auth(tokens *service.TokenService) func(http.Handler) http.Handler {
	return authWith(tokens, false)
}

// AdminAuth additionally requires the admin flag on the token.
func AdminAuth(tokens *service.TokenService) func(http.Handler) http.Handler {
	return authWith(tokens, true)
}

func authWith(tokens *service.TokenService, adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if adminOnly && !claims.IsAdmin {
				http.Error(w, "admin access required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves validated claims from the request context.
func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok
}
