package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/auth"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, error)
	Refresh(ctx context.Context, req models.RefreshRequest) (*models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string, claims models.Claims) error
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

type Handler struct {
	Service AuthService
	Logger  *logger.Logger
	// LoginLimiter wraps the login route when set.
	LoginLimiter func(http.Handler) http.Handler
}

func NewHandler(s AuthService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	login := r
	if h.LoginLimiter != nil {
		login = r.With(h.LoginLimiter)
	}
	login.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
}

// SessionRoutes expect auth.Middleware to have run.
func (h *Handler) SessionRoutes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/me", h.Me)
	r.Put("/auth/password", h.ChangePassword)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.With(auth.RequireRole(models.RoleAdmin)).Post("/users", h.CreateUser)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	pair, err := h.Service.Login(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Login failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Logged in", pair)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	pair, err := h.Service.Refresh(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Refresh failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Token refreshed", pair)
}

// Logout accepts an optional {"refreshToken": "..."} body.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		utils.WriteServiceError(w, "Unauthorized", models.ErrUnauthorized)
		return
	}
	var req models.RefreshRequest
	if err := utils.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	if err := h.Service.Logout(r.Context(), req.RefreshToken, claims); err != nil {
		h.Logger.Error("AUTH", "Logout failed: "+err.Error())
		utils.WriteServiceError(w, "Logout failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Logged out", nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteServiceError(w, "Account not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Account retrieved", u)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), auth.UserID(r.Context()), req); err != nil {
		utils.WriteServiceError(w, "Failed to change password", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Password changed", nil)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	u, err := h.Service.CreateUser(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to create user", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "User created", u)
}
