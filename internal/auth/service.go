package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type DBLayer interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error

	InsertRefreshToken(ctx context.Context, t *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, at time.Time) (bool, error)
	RevokeUserTokens(ctx context.Context, userID string, at time.Time) error
}

type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	RevokeUserBefore(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
}

type Service struct {
	DB         DBLayer
	Tokens     *TokenManager
	Denylist   Revoker
	RefreshTTL time.Duration
	BcryptCost int
	Logger     *logger.Logger
	Now        func() time.Time
}

func NewService(db DBLayer, tokens *TokenManager, denylist Revoker, refreshTTL time.Duration, bcryptCost int, log *logger.Logger) *Service {
	return &Service{
		DB:         db,
		Tokens:     tokens,
		Denylist:   denylist,
		RefreshTTL: refreshTTL,
		BcryptCost: bcryptCost,
		Logger:     log,
		Now:        time.Now,
	}
}

var errBadCredentials = fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)

func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.DB.FindUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.Logger.LogSecurity("LOGIN_FAILED", "unknown account "+email)
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", "wrong password for "+email)
		return nil, errBadCredentials
	}
	if !user.Active {
		s.Logger.LogSecurity("LOGIN_FAILED", "inactive account "+email)
		return nil, errBadCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.Logger.LogSecurity("LOGIN", user.ID+" ("+user.Role+")")
	return pair, nil
}

func (s *Service) issuePair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	access, claims, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	raw, err := utils.RandomHex(48)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := s.Now().UTC()
	rt := &models.RefreshToken{
		ID:        utils.GenerateUUID(),
		UserID:    user.ID,
		TokenHash: hashRefreshToken(raw),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.DB.InsertRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  claims.ExpiresAt,
		RefreshToken:     raw,
		RefreshExpiresAt: rt.ExpiresAt,
		User:             *user,
	}, nil
}

// Refresh rotates a refresh token. Presenting an already revoked token
// revokes every session of its owner.
func (s *Service) Refresh(ctx context.Context, req models.RefreshRequest) (*models.TokenPair, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	rt, err := s.DB.FindRefreshToken(ctx, hashRefreshToken(req.RefreshToken))
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown refresh token", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	if rt.RevokedAt != nil {
		s.Logger.LogSecurity("REFRESH_REUSE", "revoked token presented for "+rt.UserID)
		if err := s.DB.RevokeUserTokens(ctx, rt.UserID, now); err != nil {
			s.Logger.Error("AUTH", "Failed to revoke sessions: "+err.Error())
		}
		if err := s.cutOffAccessTokens(ctx, rt.UserID, now); err != nil {
			s.Logger.Error("AUTH", err.Error())
		}
		return nil, fmt.Errorf("%w: refresh token revoked", models.ErrUnauthorized)
	}
	if !now.Before(rt.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", models.ErrUnauthorized)
	}

	user, err := s.DB.FindUserByID(ctx, rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: account unavailable", models.ErrUnauthorized)
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: account disabled", models.ErrUnauthorized)
	}

	ok, err := s.DB.RevokeRefreshToken(ctx, rt.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: refresh token already used", models.ErrUnauthorized)
	}
	return s.issuePair(ctx, user)
}

// Logout revokes the caller's refresh token, when given, and denylists the
// access token until it expires.
func (s *Service) Logout(ctx context.Context, refreshToken string, claims models.Claims) error {
	now := s.Now().UTC()
	if refreshToken != "" {
		rt, err := s.DB.FindRefreshToken(ctx, hashRefreshToken(refreshToken))
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			return err
		case rt.UserID != claims.UserID:
			return fmt.Errorf("%w: refresh token belongs to another account", models.ErrForbidden)
		default:
			if _, err := s.DB.RevokeRefreshToken(ctx, rt.ID, now); err != nil {
				return err
			}
		}
	}
	if s.Denylist != nil {
		if err := s.Denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
			return err
		}
	}
	s.Logger.LogSecurity("LOGOUT", claims.UserID)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := utils.Validate(req); err != nil {
		return err
	}
	if req.NewPassword == req.CurrentPassword {
		return fmt.Errorf("%w: new password must differ from the current one", models.ErrInvalidInput)
	}
	user, err := s.DB.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("%w: current password is incorrect", models.ErrForbidden)
	}
	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	now := s.Now().UTC()
	if err := s.DB.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return err
	}
	if err := s.DB.RevokeUserTokens(ctx, user.ID, now); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.cutOffAccessTokens(ctx, user.ID, now); err != nil {
		return err
	}
	s.Logger.LogSecurity("PASSWORD_CHANGED", user.ID)
	return nil
}

// cutOffAccessTokens makes the middleware reject access tokens issued before
// at. Tokens carry whole-second iat, so the cutoff is truncated the same way.
func (s *Service) cutOffAccessTokens(ctx context.Context, userID string, at time.Time) error {
	if s.Denylist == nil {
		return nil
	}
	if err := s.Denylist.RevokeUserBefore(ctx, userID, at.Truncate(time.Second), s.Tokens.TTL()); err != nil {
		return fmt.Errorf("revoke access tokens: %w", err)
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	u := &models.User{
		ID:           utils.GenerateUUID(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.DB.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.LogSecurity("USER_CREATED", u.Email+" ("+u.Role+")")
	return u, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.DB.FindUserByID(ctx, userID)
}

// EnsureAdmin creates the bootstrap admin when no account uses email yet.
// Empty credentials disable bootstrapping.
func (s *Service) EnsureAdmin(ctx context.Context, email, name, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	_, err := s.DB.FindUserByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}
	if _, err := s.CreateUser(ctx, models.CreateUserRequest{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     models.RoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return true, nil
}
