package announcement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/mongodb"
	"icpep-backend/internal/notification"
	"icpep-backend/internal/utils"
)

type DBLayer interface {
	Insert(ctx context.Context, a *models.Announcement) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error)
	List(ctx context.Context, category string, publishedBefore *time.Time, skip, limit int64) ([]models.Announcement, int64, error)
	Update(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Service struct {
	DB        DBLayer
	Publisher notification.Publisher
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewService(db DBLayer, p notification.Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, Publisher: p, Logger: log, Now: time.Now}
}

func (s *Service) Create(ctx context.Context, req models.AnnouncementRequest) (*models.Announcement, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	a := &models.Announcement{CreatedAt: now}
	apply(a, req, now)

	if err := s.DB.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}

	// scheduled posts are not announced
	if !a.PublishedAt.After(now) {
		notification.Notify(ctx, s.Publisher, s.Logger, models.DomainEvent{
			Kind:       models.KindAnnouncementPublished,
			RefID:      a.ID.Hex(),
			Title:      a.Title,
			Message:    excerpt(a.Body, 140),
			OccurredAt: now,
		})
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Announcement, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.DB.FindByID(ctx, oid)
}

// GetPublished is Get for public readers: a post scheduled for later reads as
// not found until its publish time.
func (s *Service) GetPublished(ctx context.Context, id string) (*models.Announcement, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PublishedAt.After(s.Now().UTC()) {
		return nil, fmt.Errorf("announcement %s: %w", id, models.ErrNotFound)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f models.AnnouncementFilter) (*models.Page[models.Announcement], error) {
	page, limit, skip, lim := mongodb.Paginate(f.Page, f.Limit)
	var before *time.Time
	if !f.IncludeScheduled {
		now := s.Now().UTC()
		before = &now
	}
	items, total, err := s.DB.List(ctx, strings.ToLower(f.Category), before, skip, lim)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return &models.Page[models.Announcement]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) Update(ctx context.Context, id string, req models.AnnouncementRequest) (*models.Announcement, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(a, req, a.PublishedAt)
	a.UpdatedAt = s.Now().UTC()
	if err := s.DB.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(ctx, oid)
}

func apply(a *models.Announcement, req models.AnnouncementRequest, defaultPublished time.Time) {
	a.Title = strings.TrimSpace(req.Title)
	a.Body = req.Body
	a.Category = req.Category
	a.Author = strings.TrimSpace(req.Author)
	a.ImageURL = req.ImageURL
	a.Pinned = req.Pinned
	a.PublishedAt = defaultPublished
	if req.PublishedAt != nil {
		a.PublishedAt = req.PublishedAt.UTC()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
}

func excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
