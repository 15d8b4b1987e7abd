package event

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/cache"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/metrics"
	"icpep-backend/internal/models"
	"icpep-backend/internal/mongodb"
	"icpep-backend/internal/notification"
	"icpep-backend/internal/utils"
)

type DBLayer interface {
	InsertEvent(ctx context.Context, e *models.Event) error
	FindEvent(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	ListEvents(ctx context.Context, status models.EventStatus, now time.Time) ([]models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
	AdjustRSVPCount(ctx context.Context, id primitive.ObjectID, delta int) error

	InsertRSVP(ctx context.Context, r *models.RSVP) error
	FindRSVP(ctx context.Context, id primitive.ObjectID) (*models.RSVP, error)
	FindRSVPByEmail(ctx context.Context, eventID primitive.ObjectID, email string) (*models.RSVP, error)
	UpdateRSVP(ctx context.Context, r *models.RSVP) error
	DeleteRSVP(ctx context.Context, id primitive.ObjectID) error
	ListRSVPs(ctx context.Context, eventID primitive.ObjectID) ([]models.RSVP, error)
}

type Locker interface {
	WithLock(ctx context.Context, key, owner string, fn func() error) error
}

type PassIssuer interface {
	Generate(pass models.RSVPPass) (string, []byte, error)
	Open(token string) (models.RSVPPass, error)
}

type Service struct {
	DB        DBLayer
	Locker    Locker
	Passes    PassIssuer
	Publisher notification.Publisher
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewService(db DBLayer, locker Locker, passes PassIssuer, p notification.Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, Locker: locker, Passes: passes, Publisher: p, Logger: log, Now: time.Now}
}

func (s *Service) view(e *models.Event) models.EventView {
	return models.NewEventView(*e, s.Now())
}

func checkDates(req models.EventRequest) error {
	if req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("%w: endDate must not precede startDate", models.ErrInvalidInput)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req models.EventRequest) (*models.EventView, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if err := checkDates(req); err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	e := &models.Event{CreatedAt: now, UpdatedAt: now}
	apply(e, req)

	if err := s.DB.InsertEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	notification.Notify(ctx, s.Publisher, s.Logger, models.DomainEvent{
		Kind:       models.KindEventCreated,
		RefID:      e.ID.Hex(),
		Title:      "New event: " + e.Title,
		Message:    fmt.Sprintf("%s at %s", e.StartDate.Format("Jan 2, 2006 3:04 PM"), e.Location),
		OccurredAt: now,
	})

	v := s.view(e)
	return &v, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.EventView, error) {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}
	e, err := s.DB.FindEvent(ctx, oid)
	if err != nil {
		return nil, err
	}
	v := s.view(e)
	return &v, nil
}

// List filters on the derived status; an empty status returns everything.
func (s *Service) List(ctx context.Context, status string) ([]models.EventView, error) {
	var st models.EventStatus
	if status != "" {
		st = parseStatus(status)
		if st == "" {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
		}
	}
	now := s.Now()
	events, err := s.DB.ListEvents(ctx, st, now)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, models.NewEventView(e, now))
	}
	return views, nil
}

func parseStatus(s string) models.EventStatus {
	for _, st := range []models.EventStatus{models.EventUpcoming, models.EventOngoing, models.EventEnded} {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return ""
}

func (s *Service) Update(ctx context.Context, id string, req models.EventRequest) (*models.EventView, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if err := checkDates(req); err != nil {
		return nil, err
	}
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return nil, err
	}

	var updated *models.Event
	err = s.withEventLock(ctx, oid, func() error {
		e, err := s.DB.FindEvent(ctx, oid)
		if err != nil {
			return err
		}
		if req.Capacity > 0 && req.Capacity < e.RSVPCount {
			return fmt.Errorf("%w: capacity %d is below the %d existing RSVPs", models.ErrInvalidInput, req.Capacity, e.RSVPCount)
		}
		apply(e, req)
		e.UpdatedAt = s.Now().UTC()
		if err := s.DB.UpdateEvent(ctx, e); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	v := s.view(updated)
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.DB.DeleteEvent(ctx, oid)
}

func apply(e *models.Event, req models.EventRequest) {
	e.Title = strings.TrimSpace(req.Title)
	e.Description = req.Description
	e.Location = strings.TrimSpace(req.Location)
	e.StartDate = req.StartDate.UTC()
	e.EndDate = req.EndDate.UTC()
	e.Capacity = req.Capacity
	e.ImageURL = req.ImageURL
	e.Tags = req.Tags
}

// withEventLock serialises writes that touch an event's RSVP count.
func (s *Service) withEventLock(ctx context.Context, eventID primitive.ObjectID, fn func() error) error {
	owner := utils.GenerateUUID()
	err := s.Locker.WithLock(ctx, "rsvp_lock:"+eventID.Hex(), owner, fn)
	if errors.Is(err, cache.ErrLockBusy) {
		return fmt.Errorf("%w: event is busy, try again", models.ErrConflict)
	}
	return err
}

// RSVP reserves a seat for req.Email and returns a sealed QR pass.
// A previously cancelled RSVP for the same e-mail is reactivated.
func (s *Service) RSVP(ctx context.Context, eventID string, req models.RSVPRequest) (*models.RSVPResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	oid, err := mongodb.ParseID(eventID)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var rsvp *models.RSVP
	err = s.withEventLock(ctx, oid, func() error {
		e, err := s.DB.FindEvent(ctx, oid)
		if err != nil {
			return err
		}
		now := s.Now().UTC()
		if e.StatusAt(now) == models.EventEnded {
			return models.ErrEventEnded
		}

		existing, err := s.DB.FindRSVPByEmail(ctx, oid, email)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Status == models.RSVPGoing {
			return fmt.Errorf("%w: %s already has an RSVP for this event", models.ErrConflict, email)
		}
		if e.Capacity > 0 && e.RSVPCount >= e.Capacity {
			return models.ErrCapacityReached
		}

		var undo func() error
		if existing != nil {
			prev := *existing
			undo = func() error { return s.DB.UpdateRSVP(context.WithoutCancel(ctx), &prev) }
			existing.Name = strings.TrimSpace(req.Name)
			existing.StudentID = req.StudentID
			existing.Status = models.RSVPGoing
			existing.CheckedIn = false
			existing.CheckedInAt = nil
			existing.CreatedAt = now
			if err := s.DB.UpdateRSVP(ctx, existing); err != nil {
				return err
			}
			rsvp = existing
		} else {
			rsvp = &models.RSVP{
				EventID:   oid,
				Name:      strings.TrimSpace(req.Name),
				Email:     email,
				StudentID: req.StudentID,
				Status:    models.RSVPGoing,
				CreatedAt: now,
			}
			if err := s.DB.InsertRSVP(ctx, rsvp); err != nil {
				return err
			}
			undo = func() error { return s.DB.DeleteRSVP(context.WithoutCancel(ctx), rsvp.ID) }
		}
		if err := s.DB.AdjustRSVPCount(ctx, oid, 1); err != nil {
			if uerr := undo(); uerr != nil {
				s.Logger.Error("RSVP", fmt.Sprintf("failed to roll back rsvp %s: %v", rsvp.ID.Hex(), uerr))
			}
			return fmt.Errorf("count rsvp: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RSVPs.WithLabelValues(rsvpResult(err)).Inc()
		return nil, err
	}
	metrics.RSVPs.WithLabelValues("accepted").Inc()
	s.Logger.LogProcess("RSVP", fmt.Sprintf("%s registered for event %s", email, oid.Hex()))

	token, png, err := s.Passes.Generate(models.RSVPPass{RSVPID: rsvp.ID.Hex(), EventID: oid.Hex(), Email: email})
	if err != nil {
		return nil, fmt.Errorf("generate pass: %w", err)
	}
	return &models.RSVPResponse{
		RSVP: *rsvp,
		Pass: token,
		QR:   base64.StdEncoding.EncodeToString(png),
	}, nil
}

func rsvpResult(err error) string {
	switch {
	case errors.Is(err, models.ErrCapacityReached):
		return "full"
	case errors.Is(err, models.ErrEventEnded):
		return "ended"
	case errors.Is(err, models.ErrConflict):
		return "duplicate"
	default:
		return "error"
	}
}

// CancelRSVP requires the e-mail the RSVP was made with.
func (s *Service) CancelRSVP(ctx context.Context, eventID, rsvpID, email string) error {
	eid, err := mongodb.ParseID(eventID)
	if err != nil {
		return err
	}
	rid, err := mongodb.ParseID(rsvpID)
	if err != nil {
		return err
	}

	return s.withEventLock(ctx, eid, func() error {
		r, err := s.DB.FindRSVP(ctx, rid)
		if err != nil {
			return err
		}
		if r.EventID != eid {
			return fmt.Errorf("rsvp %s: %w", rsvpID, models.ErrNotFound)
		}
		if !strings.EqualFold(r.Email, strings.TrimSpace(email)) {
			return fmt.Errorf("%w: e-mail does not match this RSVP", models.ErrForbidden)
		}
		if r.Status == models.RSVPCancelled {
			return fmt.Errorf("%w: RSVP already cancelled", models.ErrConflict)
		}
		r.Status = models.RSVPCancelled
		if err := s.DB.UpdateRSVP(ctx, r); err != nil {
			return err
		}
		if err := s.DB.AdjustRSVPCount(ctx, eid, -1); err != nil {
			r.Status = models.RSVPGoing
			if uerr := s.DB.UpdateRSVP(context.WithoutCancel(ctx), r); uerr != nil {
				s.Logger.Error("RSVP", fmt.Sprintf("failed to restore rsvp %s: %v", rsvpID, uerr))
			}
			return fmt.Errorf("count rsvp: %w", err)
		}
		metrics.RSVPs.WithLabelValues("cancelled").Inc()
		return nil
	})
}

func (s *Service) ListRSVPs(ctx context.Context, eventID string) ([]models.RSVP, error) {
	oid, err := mongodb.ParseID(eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.DB.FindEvent(ctx, oid); err != nil {
		return nil, err
	}
	return s.DB.ListRSVPs(ctx, oid)
}

// CheckIn marks the RSVP sealed in pass as attended. It runs under the
// event lock so a pass scanned twice at once is accepted only once.
func (s *Service) CheckIn(ctx context.Context, pass string) (*models.RSVP, error) {
	p, err := s.Passes.Open(pass)
	if err != nil {
		return nil, err
	}
	rid, err := mongodb.ParseID(p.RSVPID)
	if err != nil {
		return nil, err
	}
	eid, err := mongodb.ParseID(p.EventID)
	if err != nil {
		return nil, err
	}

	var r *models.RSVP
	err = s.withEventLock(ctx, eid, func() error {
		found, err := s.DB.FindRSVP(ctx, rid)
		if err != nil {
			return err
		}
		if found.EventID != eid || !strings.EqualFold(found.Email, p.Email) {
			return fmt.Errorf("%w: pass does not match RSVP", models.ErrInvalidInput)
		}
		if found.Status == models.RSVPCancelled {
			return fmt.Errorf("%w: RSVP was cancelled", models.ErrConflict)
		}
		if found.CheckedIn {
			return fmt.Errorf("%w: already checked in", models.ErrConflict)
		}
		now := s.Now().UTC()
		found.CheckedIn = true
		found.CheckedInAt = &now
		if err := s.DB.UpdateRSVP(ctx, found); err != nil {
			return err
		}
		r = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.LogProcess("CHECKIN", fmt.Sprintf("%s checked in to event %s", r.Email, eid.Hex()))
	return r, nil
}
