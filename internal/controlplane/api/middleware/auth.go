// Package middleware provides HTTP middleware for the admin API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kanbu/kanbu-acl/internal/controlplane/api/auth"
	"github.com/kanbu/kanbu-acl/internal/logger"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// GetClaimsFromContext returns the authenticated claims, or nil when the
// request was not authenticated.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// JWTAuth rejects requests without a valid access token and stores the
// claims in the request context.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				unauthorized(w, "Missing or malformed Authorization header")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				logger.DebugCtx(r.Context(), "API token rejected", logger.Err(err))
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if lc := logger.FromContext(ctx); lc != nil {
				ctx = logger.WithContext(ctx, lc.WithUser(claims.UserID, claims.Username))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
