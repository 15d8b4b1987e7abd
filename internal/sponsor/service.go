package sponsor

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
	Insert(ctx context.Context, s *models.Sponsor) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sponsor, error)
	List(ctx context.Context, activeOnly bool) ([]models.Sponsor, error)
	Update(ctx context.Context, s *models.Sponsor) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

func apply(s *models.Sponsor, req models.SponsorRequest) {
	s.Name = strings.TrimSpace(req.Name)
	s.Tier = req.Tier
	s.LogoURL = req.LogoURL
	s.Website = req.Website
	s.Active = true
	if req.Active != nil {
		s.Active = *req.Active
	}
}

func (s *Service) Create(ctx context.Context, req models.SponsorRequest) (*models.Sponsor, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	sp := &models.Sponsor{}
	apply(sp, req)
	if err := s.DB.Insert(ctx, sp); err != nil {
		return nil, fmt.Errorf("create sponsor: %w", err)
	}
	return sp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Sponsor, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.DB.FindByID(ctx, oid)
}

func (s *Service) List(ctx context.Context) ([]models.Sponsor, error) {
	return s.DB.List(ctx, false)
}

// Grouped returns active sponsors bucketed by tier in display order.
// Empty tiers are omitted.
func (s *Service) Grouped(ctx context.Context) ([]models.SponsorGroup, error) {
	sponsors, err := s.DB.List(ctx, true)
	if err != nil {
		return nil, err
	}
	byTier := make(map[string][]models.Sponsor, len(models.SponsorTiers))
	for _, sp := range sponsors {
		byTier[sp.Tier] = append(byTier[sp.Tier], sp)
	}
	groups := []models.SponsorGroup{}
	for _, tier := range models.SponsorTiers {
		if list := byTier[tier]; len(list) > 0 {
			groups = append(groups, models.SponsorGroup{Tier: tier, Sponsors: list})
		}
	}
	return groups, nil
}

func (s *Service) Update(ctx context.Context, id string, req models.SponsorRequest) (*models.Sponsor, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	sp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(sp, req)
	if err := s.DB.Update(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(ctx, oid)
}
