package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleAdmin   = "admin"
	RoleOfficer = "officer"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID                string     `bun:"id,pk" json:"id"`
	Email             string     `bun:"email,unique,notnull" json:"email"`
	Name              string     `bun:"name,notnull" json:"name"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"-"`
	Role              string     `bun:"role,notnull" json:"role"`
	Active            bool       `bun:"active,notnull" json:"active"`
	PasswordChangedAt *time.Time `bun:"password_changed_at,nullzero" json:"passwordChangedAt,omitempty"`
	CreatedAt         time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt         time.Time  `bun:"updated_at,notnull" json:"updatedAt"`
}

type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens"`

	ID        string     `bun:"id,pk"`
	UserID    string     `bun:"user_id,notnull"`
	TokenHash string     `bun:"token_hash,unique,notnull"`
	ExpiresAt time.Time  `bun:"expires_at,notnull"`
	RevokedAt *time.Time `bun:"revoked_at,nullzero"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin officer"`
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	User             User      `json:"user"`
}

// Claims is what the auth middleware puts in the request context.
type Claims struct {
	UserID    string
	Role      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
