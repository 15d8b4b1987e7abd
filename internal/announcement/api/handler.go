package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type AnnouncementService interface {
	Create(ctx context.Context, req models.AnnouncementRequest) (*models.Announcement, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	GetPublished(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, f models.AnnouncementFilter) (*models.Page[models.Announcement], error)
	Update(ctx context.Context, id string, req models.AnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	Service AnnouncementService
	Logger  *logger.Logger
}

func NewHandler(s AnnouncementService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/announcements", h.List)
	r.Get("/announcements/{id}", h.Get)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/announcements", h.AdminList)
	r.Get("/announcements/{id}", h.AdminGet)
	r.Post("/announcements", h.Create)
	r.Put("/announcements/{id}", h.Update)
	r.Delete("/announcements/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// AdminList includes posts scheduled for later.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, includeScheduled bool) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.Service.List(r.Context(), models.AnnouncementFilter{
		Category:         q.Get("category"),
		Page:             page,
		Limit:            limit,
		IncludeScheduled: includeScheduled,
	})
	if err != nil {
		h.Logger.Error("API", "Failed to list announcements: "+err.Error())
		utils.WriteServiceError(w, "Failed to list announcements", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Announcements retrieved", result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.GetPublished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Announcement not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Announcement retrieved", a)
}

// AdminGet also returns posts scheduled for later.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Announcement not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Announcement retrieved", a)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.AnnouncementRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	a, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", "Failed to create announcement: "+err.Error())
		utils.WriteServiceError(w, "Failed to create announcement", err)
		return
	}
	h.Logger.Info("API", "Announcement created: "+a.ID.Hex())
	utils.WriteSuccess(w, http.StatusCreated, "Announcement created", a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.AnnouncementRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	a, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to update announcement", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Announcement updated", a)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		utils.WriteServiceError(w, "Failed to delete announcement", err)
		return
	}
	h.Logger.Info("API", "Announcement deleted: "+id)
	utils.WriteSuccess(w, http.StatusOK, "Announcement deleted", nil)
}
