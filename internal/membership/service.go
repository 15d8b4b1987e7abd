package membership

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
	Insert(ctx context.Context, m *models.Membership) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Membership, error)
	List(ctx context.Context, status models.MembershipStatus) ([]models.Membership, error)
	Update(ctx context.Context, m *models.Membership) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	DB        DBLayer
	Publisher notification.Publisher
	Logger    *logger.Logger
	Term      time.Duration
	Now       func() time.Time
}

func NewService(db DBLayer, p notification.Publisher, term time.Duration, log *logger.Logger) *Service {
	return &Service{DB: db, Publisher: p, Term: term, Logger: log, Now: time.Now}
}

// Register stores a pending application. Student id and e-mail are unique.
func (s *Service) Register(ctx context.Context, req models.MembershipRequest) (*models.Membership, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	m := &models.Membership{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		StudentID: req.StudentID,
		Program:   strings.TrimSpace(req.Program),
		YearLevel: req.YearLevel,
		Phone:     strings.TrimSpace(req.Phone),
		Type:      req.Type,
		Status:    models.MembershipPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.Insert(ctx, m); err != nil {
		return nil, err
	}

	notification.Notify(ctx, s.Publisher, s.Logger, models.DomainEvent{
		Kind:       models.KindMembershipRegistered,
		RefID:      m.ID.Hex(),
		Title:      "New membership application",
		Message:    fmt.Sprintf("%s (%s) applied as a %s member", m.FullName(), m.Program, m.Type),
		OccurredAt: now,
	})
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Membership, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.DB.FindByID(ctx, oid)
}

func (s *Service) List(ctx context.Context, status string) ([]models.Membership, error) {
	st := models.MembershipStatus(strings.ToLower(status))
	switch st {
	case "", models.MembershipPending, models.MembershipApproved, models.MembershipRejected, models.MembershipExpired:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	return s.DB.List(ctx, st)
}

func (s *Service) pending(ctx context.Context, id string) (*models.Membership, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MembershipPending {
		return nil, fmt.Errorf("%w: membership is %s, not pending", models.ErrConflict, m.Status)
	}
	return m, nil
}

// Approve starts a membership term counted from now.
func (s *Service) Approve(ctx context.Context, id string, req models.ReviewRequest) (*models.Membership, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	m, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	expires := now.Add(s.Term)
	m.Status = models.MembershipApproved
	m.Note = req.Note
	m.ApprovedAt = &now
	m.ExpiresAt = &expires
	m.UpdatedAt = now
	if err := s.DB.Update(ctx, m); err != nil {
		return nil, err
	}

	notification.Notify(ctx, s.Publisher, s.Logger, models.DomainEvent{
		Kind:       models.KindMembershipApproved,
		RefID:      m.ID.Hex(),
		Title:      "Welcome to ICpEP.SE, " + m.FirstName + "!",
		Message:    "Membership valid until " + expires.Format("January 2, 2006"),
		OccurredAt: now,
	})
	return m, nil
}

func (s *Service) Reject(ctx context.Context, id string, req models.ReviewRequest) (*models.Membership, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	m, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Status = models.MembershipRejected
	m.Note = req.Note
	m.UpdatedAt = s.Now().UTC()
	if err := s.DB.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(ctx, oid)
}

// ExpireDue moves approved memberships whose term ended before now to expired.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.DB.ExpireBefore(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire memberships: %w", err)
	}
	return n, nil
}
