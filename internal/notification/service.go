package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/metrics"
	"icpep-backend/internal/models"
	"icpep-backend/internal/sse"
	"icpep-backend/internal/utils"
)

type DBLayer interface {
	Insert(ctx context.Context, n *models.Notification) error
	Recent(ctx context.Context, limit int64, includeStaff bool) ([]models.Notification, error)
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	DB     DBLayer
	Hub    *sse.Hub
	Logger *logger.Logger
	Now    func() time.Time
}

func NewService(db DBLayer, hub *sse.Hub, log *logger.Logger) *Service {
	return &Service{DB: db, Hub: hub, Logger: log, Now: time.Now}
}

// Deliver stores the notification and pushes public ones to live stream clients.
func (s *Service) Deliver(ctx context.Context, ev models.DomainEvent) (*models.Notification, error) {
	if strings.TrimSpace(ev.Kind) == "" || strings.TrimSpace(ev.Title) == "" {
		return nil, fmt.Errorf("%w: notification needs kind and title", models.ErrInvalidInput)
	}
	created := ev.OccurredAt
	if created.IsZero() {
		created = s.Now()
	}
	n := &models.Notification{
		Kind:      ev.Kind,
		Title:     ev.Title,
		Message:   ev.Message,
		RefID:     ev.RefID,
		Audience:  models.AudienceFor(ev.Kind),
		CreatedAt: created.UTC(),
	}
	if err := s.DB.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}

	clients := 0
	if s.Hub != nil && n.Audience == models.AudiencePublic {
		clients = s.Hub.Broadcast(*n)
	}
	metrics.NotificationsDelivered.WithLabelValues(n.Kind).Inc()
	s.Logger.LogProcess("NOTIFY", fmt.Sprintf("%s %q delivered to %d stream clients", n.Kind, n.Title, clients))
	return n, nil
}

// Recent lists the newest notifications; staff-only ones need includeStaff.
func (s *Service) Recent(ctx context.Context, limit int, includeStaff bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.DB.Recent(ctx, int64(limit), includeStaff)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.DB.Count(ctx)
}

// Broadcast sends a manual admin notification through the given publisher.
func (s *Service) Broadcast(ctx context.Context, p Publisher, req models.BroadcastRequest) error {
	if err := utils.Validate(req); err != nil {
		return err
	}
	ev := models.DomainEvent{
		Kind:       models.KindBroadcast,
		Title:      req.Title,
		Message:    req.Message,
		OccurredAt: s.Now().UTC(),
	}
	return p.Publish(ctx, ev)
}
