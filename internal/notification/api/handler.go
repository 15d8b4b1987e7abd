package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/metrics"
	"icpep-backend/internal/models"
	"icpep-backend/internal/notification"
	"icpep-backend/internal/utils"
)

type NotificationService interface {
	Recent(ctx context.Context, limit int, includeStaff bool) ([]models.Notification, error)
	Broadcast(ctx context.Context, p notification.Publisher, req models.BroadcastRequest) error
}

type Subscriber interface {
	Subscribe(ctx context.Context) <-chan models.Notification
}

type Handler struct {
	Service   NotificationService
	Publisher notification.Publisher
	Hub       Subscriber
	Logger    *logger.Logger
	Heartbeat time.Duration
}

func NewHandler(s NotificationService, p notification.Publisher, hub Subscriber, log *logger.Logger) *Handler {
	return &Handler{Service: s, Publisher: p, Hub: hub, Logger: log, Heartbeat: 25 * time.Second}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Get("/notifications/stream", h.Stream)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/notifications", h.ListAll)
	r.Post("/notifications", h.Broadcast)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListAll includes staff-only notifications such as membership applications.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, includeStaff bool) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Service.Recent(r.Context(), limit, includeStaff)
	if err != nil {
		h.Logger.Error("API", "Failed to list notifications: "+err.Error())
		utils.WriteServiceError(w, "Failed to list notifications", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Notifications retrieved", items)
}

func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req models.BroadcastRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, "Invalid request body", err)
		return
	}
	if err := h.Service.Broadcast(r.Context(), h.Publisher, req); err != nil {
		h.Logger.Error("API", "Failed to broadcast notification: "+err.Error())
		utils.WriteServiceError(w, "Failed to broadcast notification", err)
		return
	}
	utils.WriteSuccess(w, http.StatusAccepted, "Notification queued", nil)
}

// Stream holds the connection open and writes each notification as an SSE
// "notification" event, with comment heartbeats in between.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	events := h.Hub.Subscribe(ctx)
	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.Logger.Error("SSE", "Failed to encode notification: "+err.Error())
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID.Hex(), data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
