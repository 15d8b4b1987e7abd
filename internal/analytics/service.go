package analytics

import (
	"context"
	"fmt"
	"time"

	"icpep-backend/internal/models"
)

type MembershipCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type EventCounter interface {
	CountEvents(ctx context.Context, status models.EventStatus, now time.Time) (int64, error)
	CountActiveRSVPs(ctx context.Context) (int64, error)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type SponsorCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// Service aggregates dashboard figures from the other stores.
type Service struct {
	Memberships   MembershipCounter
	Events        EventCounter
	Announcements Counter
	Sponsors      SponsorCounter
	Notifications Counter
	Now           func() time.Time
}

func NewService(m MembershipCounter, e EventCounter, a Counter, s SponsorCounter, n Counter) *Service {
	return &Service{
		Memberships:   m,
		Events:        e,
		Announcements: a,
		Sponsors:      s,
		Notifications: n,
		Now:           time.Now,
	}
}

func (s *Service) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	out := &models.DashboardSummary{
		Memberships: map[string]int64{},
		Events:      map[string]int64{},
	}

	byStatus, err := s.Memberships.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count memberships: %w", err)
	}
	for _, st := range []models.MembershipStatus{models.MembershipPending, models.MembershipApproved, models.MembershipRejected, models.MembershipExpired} {
		out.Memberships[string(st)] = byStatus[string(st)]
	}

	now := s.Now()
	for _, st := range []models.EventStatus{models.EventUpcoming, models.EventOngoing, models.EventEnded} {
		n, err := s.Events.CountEvents(ctx, st, now)
		if err != nil {
			return nil, fmt.Errorf("count %s events: %w", st, err)
		}
		out.Events[string(st)] = n
	}

	if out.TotalRSVPs, err = s.Events.CountActiveRSVPs(ctx); err != nil {
		return nil, fmt.Errorf("count rsvps: %w", err)
	}
	if out.Announcements, err = s.Announcements.Count(ctx); err != nil {
		return nil, fmt.Errorf("count announcements: %w", err)
	}
	if out.ActiveSponsors, err = s.Sponsors.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("count sponsors: %w", err)
	}
	if out.NotificationsSent, err = s.Notifications.Count(ctx); err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	return out, nil
}
