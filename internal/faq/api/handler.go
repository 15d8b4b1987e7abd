package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type FAQService interface {
	Create(ctx context.Context, req models.FAQRequest) (*models.FAQ, error)
	Get(ctx context.Context, id string) (*models.FAQ, error)
	List(ctx context.Context, includeDrafts bool) ([]models.FAQ, error)
	Update(ctx context.Context, id string, req models.FAQRequest) (*models.FAQ, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	Service FAQService
	Logger  *logger.Logger
}

func NewHandler(s FAQService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/faqs", h.list(false))
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/faqs", h.list(true))
	r.Post("/faqs", h.Create)
	r.Get("/faqs/{id}", h.Get)
	r.Put("/faqs/{id}", h.Update)
	r.Delete("/faqs/{id}", h.Delete)
}

func (h *Handler) list(includeDrafts bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		faqs, err := h.Service.List(r.Context(), includeDrafts)
		if err != nil {
			h.Logger.Error("API", "Failed to list faqs: "+err.Error())
			utils.WriteServiceError(w, "Failed to list FAQs", err)
			return
		}
		utils.WriteSuccess(w, http.StatusOK, "FAQs retrieved", faqs)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "FAQ not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "FAQ retrieved", f)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.FAQRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	f, err := h.Service.Create(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to create FAQ", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "FAQ created", f)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.FAQRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	f, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to update FAQ", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "FAQ updated", f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, "Failed to delete FAQ", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "FAQ deleted", nil)
}
