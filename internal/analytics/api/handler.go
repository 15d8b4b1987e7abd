package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type DashboardService interface {
	Summary(ctx context.Context) (*models.DashboardSummary, error)
}

type Handler struct {
	Service DashboardService
	Logger  *logger.Logger
}

func NewHandler(s DashboardService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.Summary)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		h.Logger.Error("API", "Failed to build dashboard: "+err.Error())
		utils.WriteServiceError(w, "Failed to load dashboard", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Dashboard retrieved", summary)
}
