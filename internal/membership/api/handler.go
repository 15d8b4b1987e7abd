package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type MembershipService interface {
	Register(ctx context.Context, req models.MembershipRequest) (*models.Membership, error)
	Get(ctx context.Context, id string) (*models.Membership, error)
	List(ctx context.Context, status string) ([]models.Membership, error)
	Approve(ctx context.Context, id string, req models.ReviewRequest) (*models.Membership, error)
	Reject(ctx context.Context, id string, req models.ReviewRequest) (*models.Membership, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	Service MembershipService
	Logger  *logger.Logger
}

func NewHandler(s MembershipService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/memberships", h.Register)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/memberships", h.List)
	r.Get("/memberships/{id}", h.Get)
	r.Post("/memberships/{id}/approve", h.Approve)
	r.Post("/memberships/{id}/reject", h.Reject)
	r.Delete("/memberships/{id}", h.Delete)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.MembershipRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	m, err := h.Service.Register(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", "Membership registration rejected: "+err.Error())
		utils.WriteServiceError(w, "Registration failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Application received", m)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		utils.WriteServiceError(w, "Failed to list memberships", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Memberships retrieved", items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Membership not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Membership retrieved", m)
}

// decodeReview allows an empty body.
func decodeReview(r *http.Request) (models.ReviewRequest, error) {
	var req models.ReviewRequest
	if err := utils.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	req, err := decodeReview(r)
	if err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	m, err := h.Service.Approve(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to approve membership", err)
		return
	}
	h.Logger.Info("API", "Membership approved: "+m.ID.Hex())
	utils.WriteSuccess(w, http.StatusOK, "Membership approved", m)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	req, err := decodeReview(r)
	if err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	m, err := h.Service.Reject(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to reject membership", err)
		return
	}
	h.Logger.Info("API", "Membership rejected: "+m.ID.Hex())
	utils.WriteSuccess(w, http.StatusOK, "Membership rejected", m)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, "Failed to delete membership", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Membership deleted", nil)
}
