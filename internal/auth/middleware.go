package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type contextKey string

const claimsKey contextKey = "claims"

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	RevokedBefore(ctx context.Context, userID string) (time.Time, error)
}

// Middleware authenticates bearer tokens and stores the claims in the
// request context. Tokens issued before the owner's last password change are
// rejected. A denylist lookup failure is logged and the token allowed.
func Middleware(tokens *TokenManager, denylist RevocationChecker, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", err)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				log.LogSecurity("TOKEN_REJECTED", err.Error())
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", models.ErrUnauthorized)
				return
			}

			if denylist != nil {
				revoked, err := denylist.IsRevoked(r.Context(), claims.TokenID)
				if err != nil {
					log.Warn("AUTH", "Denylist unavailable: "+err.Error())
				} else if revoked {
					utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", models.ErrUnauthorized)
					return
				}

				cutoff, err := denylist.RevokedBefore(r.Context(), claims.UserID)
				if err != nil {
					log.Warn("AUTH", "Session cutoff unavailable: "+err.Error())
				} else if !cutoff.IsZero() && claims.IssuedAt.Before(cutoff) {
					log.LogSecurity("TOKEN_REJECTED", "issued before session cutoff for "+claims.UserID)
					utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", models.ErrUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", models.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if strings.EqualFold(claims.Role, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, http.StatusForbidden, "Forbidden", models.ErrForbidden)
		})
	}
}

func ClaimsFrom(ctx context.Context) (models.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(models.Claims)
	return claims, ok
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if claims, ok := ClaimsFrom(ctx); ok {
		return claims.UserID
	}
	return ""
}

// WithClaims is used by tests and background jobs that act as a user.
func WithClaims(ctx context.Context, claims models.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
