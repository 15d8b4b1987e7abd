package faq

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/models"
	"icpep-backend/internal/mongodb"
	"icpep-backend/internal/utils"
)

type DBLayer interface {
	Insert(ctx context.Context, f *models.FAQ) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.FAQ, error)
	List(ctx context.Context, publishedOnly bool) ([]models.FAQ, error)
	Update(ctx context.Context, f *models.FAQ) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

func apply(f *models.FAQ, req models.FAQRequest) {
	f.Question = strings.TrimSpace(req.Question)
	f.Answer = strings.TrimSpace(req.Answer)
	f.Category = strings.ToLower(strings.TrimSpace(req.Category))
	f.Rank = req.Rank
	f.Published = req.Published
}

func (s *Service) Create(ctx context.Context, req models.FAQRequest) (*models.FAQ, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	f := &models.FAQ{}
	apply(f, req)
	if err := s.DB.Insert(ctx, f); err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.FAQ, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.DB.FindByID(ctx, oid)
}

// List returns FAQs ordered by rank. Drafts are only included for admins.
func (s *Service) List(ctx context.Context, includeDrafts bool) ([]models.FAQ, error) {
	return s.DB.List(ctx, !includeDrafts)
}

func (s *Service) Update(ctx context.Context, id string, req models.FAQRequest) (*models.FAQ, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(f, req)
	if err := s.DB.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(ctx, oid)
}
