package roster

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/models"
	"icpep-backend/internal/mongodb"
	"icpep-backend/internal/utils"
)

type OfficerDB interface {
	InsertOfficer(ctx context.Context, o *models.Officer) error
	FindOfficer(ctx context.Context, id primitive.ObjectID) (*models.Officer, error)
	ListOfficers(ctx context.Context, term string, activeOnly bool) ([]models.Officer, error)
	UpdateOfficer(ctx context.Context, o *models.Officer) error
	DeleteOfficer(ctx context.Context, id primitive.ObjectID) error
}

type FacultyDB interface {
	InsertFaculty(ctx context.Context, f *models.FacultyProfile) error
	FindFaculty(ctx context.Context, id primitive.ObjectID) (*models.FacultyProfile, error)
	ListFaculty(ctx context.Context) ([]models.FacultyProfile, error)
	UpdateFaculty(ctx context.Context, f *models.FacultyProfile) error
	DeleteFaculty(ctx context.Context, id primitive.ObjectID) error
}

type Service struct {
	Officers OfficerDB
	Faculty  FacultyDB
}

func NewService(officers OfficerDB, faculty FacultyDB) *Service {
	return &Service{Officers: officers, Faculty: faculty}
}

func applyOfficer(o *models.Officer, req models.OfficerRequest) {
	o.Name = strings.TrimSpace(req.Name)
	o.Position = strings.TrimSpace(req.Position)
	o.Term = req.Term
	o.Email = strings.ToLower(req.Email)
	o.PhotoURL = req.PhotoURL
	o.Rank = req.Rank
	o.Active = true
	if req.Active != nil {
		o.Active = *req.Active
	}
}

func (s *Service) CreateOfficer(ctx context.Context, req models.OfficerRequest) (*models.Officer, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	o := &models.Officer{}
	applyOfficer(o, req)
	if err := s.Officers.InsertOfficer(ctx, o); err != nil {
		return nil, fmt.Errorf("create officer: %w", err)
	}
	return o, nil
}

func (s *Service) GetOfficer(ctx context.Context, id string) (*models.Officer, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.Officers.FindOfficer(ctx, oid)
}

// ListOfficers sorts by rank, then name.
func (s *Service) ListOfficers(ctx context.Context, term string, activeOnly bool) ([]models.Officer, error) {
	return s.Officers.ListOfficers(ctx, strings.TrimSpace(term), activeOnly)
}

func (s *Service) UpdateOfficer(ctx context.Context, id string, req models.OfficerRequest) (*models.Officer, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	o, err := s.GetOfficer(ctx, id)
	if err != nil {
		return nil, err
	}
	applyOfficer(o, req)
	if err := s.Officers.UpdateOfficer(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) DeleteOfficer(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.Officers.DeleteOfficer(ctx, oid)
}

func applyFaculty(f *models.FacultyProfile, req models.FacultyRequest) {
	f.Name = strings.TrimSpace(req.Name)
	f.Title = strings.TrimSpace(req.Title)
	f.Department = strings.TrimSpace(req.Department)
	f.Email = strings.ToLower(req.Email)
	f.PhotoURL = req.PhotoURL
	f.Bio = req.Bio
	f.Role = req.Role
}

func (s *Service) CreateFaculty(ctx context.Context, req models.FacultyRequest) (*models.FacultyProfile, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	f := &models.FacultyProfile{}
	applyFaculty(f, req)
	if err := s.Faculty.InsertFaculty(ctx, f); err != nil {
		return nil, fmt.Errorf("create faculty profile: %w", err)
	}
	return f, nil
}

func (s *Service) GetFaculty(ctx context.Context, id string) (*models.FacultyProfile, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.Faculty.FindFaculty(ctx, oid)
}

func (s *Service) ListFaculty(ctx context.Context) ([]models.FacultyProfile, error) {
	return s.Faculty.ListFaculty(ctx)
}

func (s *Service) UpdateFaculty(ctx context.Context, id string, req models.FacultyRequest) (*models.FacultyProfile, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	f, err := s.GetFaculty(ctx, id)
	if err != nil {
		return nil, err
	}
	applyFaculty(f, req)
	if err := s.Faculty.UpdateFaculty(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) DeleteFaculty(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.Faculty.DeleteFaculty(ctx, oid)
}
