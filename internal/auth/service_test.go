package auth

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	authdb "icpep-backend/internal/auth/db"
	"icpep-backend/internal/cache"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
)

type fixture struct {
	svc      *Service
	db       *authdb.DB
	denylist *cache.Denylist
	now      time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*models.User)(nil), (*models.RefreshToken)(nil)} {
		_, err := bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	mr := miniredis.RunT(t)
	denylist := cache.NewDenylist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	f := &fixture{db: authdb.New(bunDB), denylist: denylist, now: time.Now().UTC()}
	f.svc = NewService(f.db, NewTokenManager("secret", 15*time.Minute), denylist, 24*time.Hour, bcrypt.MinCost, logger.Discard())
	f.svc.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) createUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), models.CreateUserRequest{
		Email: email, Name: "Test User", Password: password, Role: role,
	})
	require.NoError(t, err)
	return u
}

func TestLogin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createUser(t, "Admin@CIT.edu", "correct-horse", models.RoleAdmin)

	pair, err := f.svc.Login(ctx, models.LoginRequest{Email: "admin@cit.edu", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Len(t, pair.RefreshToken, 96)
	assert.Equal(t, "admin@cit.edu", pair.User.Email)

	claims, err := f.svc.Tokens.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	stored, err := f.db.FindRefreshToken(ctx, hashRefreshToken(pair.RefreshToken))
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, stored.TokenHash)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "admin@cit.edu", Password: "wrong-pass"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "ghost@cit.edu", Password: "whatever"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createUser(t, "o@cit.edu", "password1", models.RoleOfficer)

	first, err := f.svc.Login(ctx, models.LoginRequest{Email: "o@cit.edu", Password: "password1"})
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, models.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// replaying the rotated token kills the new session too
	_, err = f.svc.Refresh(ctx, models.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.svc.Refresh(ctx, models.RefreshRequest{RefreshToken: second.RefreshToken})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestRefreshExpired(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createUser(t, "o@cit.edu", "password1", models.RoleOfficer)
	pair, err := f.svc.Login(ctx, models.LoginRequest{Email: "o@cit.edu", Password: "password1"})
	require.NoError(t, err)

	f.now = f.now.Add(25 * time.Hour)
	_, err = f.svc.Refresh(ctx, models.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createUser(t, "o@cit.edu", "password1", models.RoleOfficer)
	pair, err := f.svc.Login(ctx, models.LoginRequest{Email: "o@cit.edu", Password: "password1"})
	require.NoError(t, err)
	claims, err := f.svc.Tokens.Parse(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.RefreshToken, claims))

	revoked, err := f.denylist.IsRevoked(ctx, claims.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.Refresh(ctx, models.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestLogoutWithSomeoneElsesRefreshToken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.createUser(t, "a@cit.edu", "password1", models.RoleOfficer)
	f.createUser(t, "b@cit.edu", "password2", models.RoleOfficer)
	a, err := f.svc.Login(ctx, models.LoginRequest{Email: "a@cit.edu", Password: "password1"})
	require.NoError(t, err)
	b, err := f.svc.Login(ctx, models.LoginRequest{Email: "b@cit.edu", Password: "password2"})
	require.NoError(t, err)
	bClaims, err := f.svc.Tokens.Parse(b.AccessToken)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Logout(ctx, a.RefreshToken, bClaims), models.ErrForbidden)
}

func TestChangePassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.createUser(t, "o@cit.edu", "password1", models.RoleOfficer)
	pair, err := f.svc.Login(ctx, models.LoginRequest{Email: "o@cit.edu", Password: "password1"})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, u.ID, models.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password1"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	err = f.svc.ChangePassword(ctx, u.ID, models.ChangePasswordRequest{CurrentPassword: "nope-nope", NewPassword: "password2"})
	assert.ErrorIs(t, err, models.ErrForbidden)
	err = f.svc.ChangePassword(ctx, u.ID, models.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "short"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, models.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password2"}))

	_, err = f.svc.Refresh(ctx, models.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "o@cit.edu", Password: "password2"})
	assert.NoError(t, err)

	me, err := f.svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, me.PasswordChangedAt)
}

func TestChangePasswordRejectsEarlierAccessTokens(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.createUser(t, "o@cit.edu", "password1", models.RoleOfficer)

	f.svc.Tokens.now = func() time.Time { return f.now.Add(-time.Minute) }
	old, err := f.svc.Login(ctx, models.LoginRequest{Email: "o@cit.edu", Password: "password1"})
	require.NoError(t, err)

	h := Middleware(f.svc.Tokens, f.denylist, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, call(old.AccessToken))

	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, models.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password2"}))
	assert.Equal(t, http.StatusUnauthorized, call(old.AccessToken))

	f.svc.Tokens.now = func() time.Time { return f.now.Add(time.Second) }
	fresh, err := f.svc.Login(ctx, models.LoginRequest{Email: "o@cit.edu", Password: "password2"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, call(fresh.AccessToken))
}

func TestCreateUserDuplicate(t *testing.T) {
	f := setup(t)
	f.createUser(t, "o@cit.edu", "password1", models.RoleOfficer)
	_, err := f.svc.CreateUser(context.Background(), models.CreateUserRequest{
		Email: "O@cit.edu", Name: "Again", Password: "password1", Role: models.RoleOfficer,
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestEnsureAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.EnsureAdmin(ctx, "", "Admin", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = f.svc.EnsureAdmin(ctx, "root@cit.edu", "Admin", "bootstrap-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.EnsureAdmin(ctx, "root@cit.edu", "Admin", "bootstrap-pass")
	require.NoError(t, err)
	assert.False(t, created)

	pair, err := f.svc.Login(ctx, models.LoginRequest{Email: "root@cit.edu", Password: "bootstrap-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, pair.User.Role)
}
