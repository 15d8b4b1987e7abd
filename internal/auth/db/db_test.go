package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"icpep-backend/internal/auth/db"
	"icpep-backend/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = bunDB.Close() })

	for _, model := range []interface{}{(*models.User)(nil), (*models.RefreshToken)(nil)} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(context.Background()); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}
	return db.New(bunDB)
}

func newUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID: uuid.New().String(), Email: email, Name: "N", PasswordHash: "h",
		Role: models.RoleOfficer, Active: true, CreatedAt: now, UpdatedAt: now,
	}
}

func TestUsers(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	u := newUser("a@cit.edu")
	require.NoError(t, d.CreateUser(ctx, u))
	assert.ErrorIs(t, d.CreateUser(ctx, newUser("a@cit.edu")), models.ErrConflict)

	got, err := d.FindUserByEmail(ctx, "a@cit.edu")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = d.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, d.UpdatePassword(ctx, u.ID, "h2", time.Now()))
	got, err = d.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.ErrorIs(t, d.UpdatePassword(ctx, "missing", "h", time.Now()), models.ErrNotFound)
}

func TestRefreshTokens(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"t1", "t2"} {
		require.NoError(t, d.InsertRefreshToken(ctx, &models.RefreshToken{
			ID: id, UserID: "u1", TokenHash: "hash-" + id, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
		}))
	}

	ok, err := d.RevokeRefreshToken(ctx, "t1", now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.RevokeRefreshToken(ctx, "t1", now)
	require.NoError(t, err)
	assert.False(t, ok, "second revoke is a no-op")

	require.NoError(t, d.RevokeUserTokens(ctx, "u1", now))
	tok, err := d.FindRefreshToken(ctx, "hash-t2")
	require.NoError(t, err)
	assert.NotNil(t, tok.RevokedAt)

	_, err = d.FindRefreshToken(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
