package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
)

type stubDenylist map[string]bool

func (s stubDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s[jti], nil
}

func (s stubDenylist) RevokedBefore(ctx context.Context, userID string) (time.Time, error) {
	return time.Time{}, nil
}

func protected(tokens *TokenManager, deny RevocationChecker, roles ...string) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
	var h http.Handler = final
	if len(roles) > 0 {
		h = RequireRole(roles...)(h)
	}
	return Middleware(tokens, deny, logger.Discard())(h)
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokenManager("secret", time.Minute)
	raw, claims, err := tokens.Issue(&models.User{ID: "u1", Role: models.RoleOfficer})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		deny   stubDenylist
		roles  []string
		want   int
	}{
		{"no header", "", nil, nil, http.StatusUnauthorized},
		{"garbage", "Bearer nope", nil, nil, http.StatusUnauthorized},
		{"valid", "Bearer " + raw, nil, nil, http.StatusOK},
		{"revoked", "Bearer " + raw, stubDenylist{claims.TokenID: true}, nil, http.StatusUnauthorized},
		{"role allowed", "Bearer " + raw, nil, []string{models.RoleAdmin, models.RoleOfficer}, http.StatusOK},
		{"role denied", "Bearer " + raw, nil, []string{models.RoleAdmin}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			var deny RevocationChecker
			if tt.deny != nil {
				deny = tt.deny
			}
			protected(tokens, deny, tt.roles...).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "u1", rec.Body.String())
			}
		})
	}
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
