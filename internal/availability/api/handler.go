package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

const (
	defaultRange       = 7 * 24 * time.Hour
	defaultMinDuration = 30 * time.Minute
)

type AvailabilityService interface {
	Add(ctx context.Context, req models.AvailabilityRequest) (*models.AvailabilitySlot, error)
	List(ctx context.Context, officerID string, from, to time.Time) ([]models.AvailabilitySlot, error)
	Delete(ctx context.Context, id string) error
	CommonWindows(ctx context.Context, officerIDs []string, from, to time.Time, minDuration time.Duration) ([]models.TimeWindow, error)
}

type Handler struct {
	Service AvailabilityService
	Logger  *logger.Logger
	Now     func() time.Time
}

func NewHandler(s AvailabilityService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log, Now: time.Now}
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/availability", h.List)
	r.Post("/availability", h.Add)
	r.Get("/availability/common", h.Common)
	r.Delete("/availability/{id}", h.Delete)
}

// parseRange reads from/to as RFC 3339, defaulting to a week starting now.
func (h *Handler) parseRange(q url.Values) (time.Time, time.Time, error) {
	from := h.Now().UTC()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from must be RFC 3339", models.ErrInvalidInput)
		}
		from = t.UTC()
	}
	to := from.Add(defaultRange)
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be RFC 3339", models.ErrInvalidInput)
		}
		to = t.UTC()
	}
	return from, to, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r.URL.Query())
	if err != nil {
		utils.WriteServiceError(w, "Invalid range", err)
		return
	}
	slots, err := h.Service.List(r.Context(), r.URL.Query().Get("officerId"), from, to)
	if err != nil {
		utils.WriteServiceError(w, "Failed to list availability", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Availability retrieved", slots)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AvailabilityRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	slot, err := h.Service.Add(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to add availability", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Availability added", slot)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, "Failed to delete availability", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Availability deleted", nil)
}

// Common handles ?officers=a,b&from=&to=&min=45m.
func (h *Handler) Common(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := h.parseRange(q)
	if err != nil {
		utils.WriteServiceError(w, "Invalid range", err)
		return
	}
	minDuration := defaultMinDuration
	if v := q.Get("min"); v != "" {
		if minDuration, err = time.ParseDuration(v); err != nil {
			utils.WriteServiceError(w, "Invalid minimum duration", fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
			return
		}
	}
	var officers []string
	for _, id := range strings.Split(q.Get("officers"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			officers = append(officers, id)
		}
	}

	windows, err := h.Service.CommonWindows(r.Context(), officers, from, to, minDuration)
	if err != nil {
		utils.WriteServiceError(w, "Failed to compute common windows", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Common windows computed", windows)
}
