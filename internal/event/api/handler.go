package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type EventService interface {
	Create(ctx context.Context, req models.EventRequest) (*models.EventView, error)
	Get(ctx context.Context, id string) (*models.EventView, error)
	List(ctx context.Context, status string) ([]models.EventView, error)
	Update(ctx context.Context, id string, req models.EventRequest) (*models.EventView, error)
	Delete(ctx context.Context, id string) error
	RSVP(ctx context.Context, eventID string, req models.RSVPRequest) (*models.RSVPResponse, error)
	CancelRSVP(ctx context.Context, eventID, rsvpID, email string) error
	ListRSVPs(ctx context.Context, eventID string) ([]models.RSVP, error)
	CheckIn(ctx context.Context, pass string) (*models.RSVP, error)
}

type Handler struct {
	Service EventService
	Logger  *logger.Logger
}

func NewHandler(s EventService, log *logger.Logger) *Handler {
	return &Handler{Service: s, Logger: log}
}

// PublicRoutes are the read routes, safe to cache.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/events", h.List)
	r.Get("/events/{id}", h.Get)
}

// RSVPRoutes are public writes.
func (h *Handler) RSVPRoutes(r chi.Router) {
	r.Post("/events/{id}/rsvp", h.RSVP)
	r.Delete("/events/{id}/rsvp/{rsvpId}", h.CancelRSVP)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/events", h.List)
	r.Post("/events", h.Create)
	r.Post("/events/checkin", h.CheckIn)
	r.Put("/events/{id}", h.Update)
	r.Delete("/events/{id}", h.Delete)
	r.Get("/events/{id}/rsvps", h.ListRSVPs)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.Logger.Error("API", "Failed to list events: "+err.Error())
		utils.WriteServiceError(w, "Failed to list events", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", events)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Event not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event retrieved", e)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	e, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", "Failed to create event: "+err.Error())
		utils.WriteServiceError(w, "Failed to create event", err)
		return
	}
	h.Logger.Info("API", "Event created: "+e.ID.Hex())
	utils.WriteSuccess(w, http.StatusCreated, "Event created", e)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	e, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "Failed to update event", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event updated", e)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		utils.WriteServiceError(w, "Failed to delete event", err)
		return
	}
	h.Logger.Info("API", "Event deleted: "+id)
	utils.WriteSuccess(w, http.StatusOK, "Event deleted", nil)
}

func (h *Handler) RSVP(w http.ResponseWriter, r *http.Request) {
	var req models.RSVPRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	resp, err := h.Service.RSVP(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, "RSVP failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "RSVP confirmed", resp)
}

// CancelRSVP takes the e-mail from ?email= or a JSON body.
func (h *Handler) CancelRSVP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	body.Email = r.URL.Query().Get("email")
	if body.Email == "" {
		if err := utils.DecodeJSON(r, &body); err != nil {
			utils.WriteServiceError(w, "Invalid request body", err)
			return
		}
	}
	err := h.Service.CancelRSVP(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "rsvpId"), body.Email)
	if err != nil {
		utils.WriteServiceError(w, "Failed to cancel RSVP", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "RSVP cancelled", nil)
}

func (h *Handler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	rsvps, err := h.Service.ListRSVPs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, "Failed to list RSVPs", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "RSVPs retrieved", rsvps)
}

// CheckIn expects {"pass": "<sealed token from the QR code>"}.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pass string `json:"pass"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	rsvp, err := h.Service.CheckIn(r.Context(), body.Pass)
	if err != nil {
		h.Logger.LogSecurity("CHECKIN_REJECTED", err.Error())
		utils.WriteServiceError(w, "Check-in failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Checked in", rsvp)
}
