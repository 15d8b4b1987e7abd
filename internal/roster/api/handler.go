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

type RosterService interface {
	CreateOfficer(ctx context.Context, req models.OfficerRequest) (*models.Officer, error)
	GetOfficer(ctx context.Context, id string) (*models.Officer, error)
	ListOfficers(ctx context.Context, term string, activeOnly bool) ([]models.Officer, error)
	UpdateOfficer(ctx context.Context, id string, req models.OfficerRequest) (*models.Officer, error)
	DeleteOfficer(ctx context.Context, id string) error

	CreateFaculty(ctx context.Context, req models.FacultyRequest) (*models.FacultyProfile, error)
	GetFaculty(ctx context.Context, id string) (*models.FacultyProfile, error)
	ListFaculty(ctx context.Context) ([]models.FacultyProfile, error)
	UpdateFaculty(ctx context.Context, id string, req models.FacultyRequest) (*models.FacultyProfile, error)
	DeleteFaculty(ctx context.Context, id string) error
}

type Handler struct {
	Service RosterService
	Logger  *logger.Logger
}

func NewHandler(s RosterService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/officers", h.ListOfficers)
	r.Get("/officers/{id}", h.GetOfficer)
	r.Get("/faculty", h.ListFaculty)
	r.Get("/faculty/{id}", h.GetFaculty)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/officers", h.ListOfficers)
	r.Post("/officers", h.CreateOfficer)
	r.Put("/officers/{id}", h.UpdateOfficer)
	r.Delete("/officers/{id}", h.DeleteOfficer)
	r.Get("/faculty", h.ListFaculty)
	r.Post("/faculty", h.CreateFaculty)
	r.Put("/faculty/{id}", h.UpdateFaculty)
	r.Delete("/faculty/{id}", h.DeleteFaculty)
}

// ListOfficers shows only active officers unless ?all=true.
func (h *Handler) ListOfficers(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	officers, err := h.Service.ListOfficers(r.Context(), r.URL.Query().Get("term"), !all)
	if err != nil {
		h.Logger.Error("API", "Failed to list officers: "+err.Error())
		utils.WriteServiceError(w, "Failed to list officers", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Officers retrieved", officers)
}

func (h *Handler) GetOfficer(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.GetOfficer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Officer not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Officer retrieved", o)
}

func (h *Handler) CreateOfficer(w http.ResponseWriter, r *http.Request) {
	var req models.OfficerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	o, err := h.Service.CreateOfficer(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to create officer", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Officer created", o)
}

func (h *Handler) UpdateOfficer(w http.ResponseWriter, r *http.Request) {
	var req models.OfficerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	o, err := h.Service.UpdateOfficer(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to update officer", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Officer updated", o)
}

func (h *Handler) DeleteOfficer(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteOfficer(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, "Failed to delete officer", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Officer deleted", nil)
}

func (h *Handler) ListFaculty(w http.ResponseWriter, r *http.Request) {
	faculty, err := h.Service.ListFaculty(r.Context())
	if err != nil {
		h.Logger.Error("API", "Failed to list faculty: "+err.Error())
		utils.WriteServiceError(w, "Failed to list faculty", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Faculty retrieved", faculty)
}

func (h *Handler) GetFaculty(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.GetFaculty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Faculty profile not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Faculty profile retrieved", f)
}

func (h *Handler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var req models.FacultyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	f, err := h.Service.CreateFaculty(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to create faculty profile", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Faculty profile created", f)
}

func (h *Handler) UpdateFaculty(w http.ResponseWriter, r *http.Request) {
	var req models.FacultyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	f, err := h.Service.UpdateFaculty(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to update faculty profile", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Faculty profile updated", f)
}

func (h *Handler) DeleteFaculty(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteFaculty(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, "Failed to delete faculty profile", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Faculty profile deleted", nil)
}
