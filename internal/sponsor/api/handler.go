package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type SponsorService interface {
	Create(ctx context.Context, req models.SponsorRequest) (*models.Sponsor, error)
	Get(ctx context.Context, id string) (*models.Sponsor, error)
	List(ctx context.Context) ([]models.Sponsor, error)
	Grouped(ctx context.Context) ([]models.SponsorGroup, error)
	Update(ctx context.Context, id string, req models.SponsorRequest) (*models.Sponsor, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	Service SponsorService
	Logger  *logger.Logger
}

func NewHandler(s SponsorService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/sponsors", h.Grouped)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/sponsors", h.List)
	r.Post("/sponsors", h.Create)
	r.Get("/sponsors/{id}", h.Get)
	r.Put("/sponsors/{id}", h.Update)
	r.Delete("/sponsors/{id}", h.Delete)
}

func (h *Handler) Grouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.Grouped(r.Context())
	if err != nil {
		h.Logger.Error("API", "Failed to group sponsors: "+err.Error())
		utils.WriteServiceError(w, "Failed to list sponsors", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Sponsors retrieved", groups)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sponsors, err := h.Service.List(r.Context())
	if err != nil {
		utils.WriteServiceError(w, "Failed to list sponsors", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Sponsors retrieved", sponsors)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sp, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Sponsor not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Sponsor retrieved", sp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SponsorRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	sp, err := h.Service.Create(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to create sponsor", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Sponsor created", sp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.SponsorRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	sp, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to update sponsor", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Sponsor updated", sp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, "Failed to delete sponsor", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Sponsor deleted", nil)
}
