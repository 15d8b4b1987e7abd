package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"icpep-backend/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// isUniqueViolation recognises Postgres 23505 and the SQLite equivalent used in tests.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// ---------------- USERS ----------------

func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := d.Bun.NewInsert().Model(u).Exec(ctx)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: an account with email %s already exists", models.ErrConflict, u.Email)
	}
	return err
}

func (d *DB) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := d.Bun.NewSelect().
		Model(&u).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user "+email)
	}
	return &u, nil
}

func (d *DB) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := d.Bun.NewSelect().
		Model(&u).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &u, nil
}

func (d *DB) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hash).
		Set("password_changed_at = ?", changedAt).
		Set("updated_at = ?", changedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// ---------------- REFRESH TOKENS ----------------

func (d *DB) InsertRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	_, err := d.Bun.NewInsert().Model(t).Exec(ctx)
	return err
}

func (d *DB) FindRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := d.Bun.NewSelect().
		Model(&t).
		Where("token_hash = ?", hash).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "refresh token")
	}
	return &t, nil
}

// RevokeRefreshToken reports false when the token was already revoked.
func (d *DB) RevokeRefreshToken(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.RefreshToken)(nil)).
		Set("revoked_at = ?", at).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *DB) RevokeUserTokens(ctx context.Context, userID string, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.RefreshToken)(nil)).
		Set("revoked_at = ?", at).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
