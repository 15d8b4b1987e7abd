package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/cache"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/mongodb"
	"icpep-backend/internal/utils"
)

type DBLayer interface {
	Insert(ctx context.Context, s *models.AvailabilitySlot) error
	CountOverlapping(ctx context.Context, officerID primitive.ObjectID, start, end time.Time) (int64, error)
	List(ctx context.Context, officerIDs []primitive.ObjectID, from, to time.Time) ([]models.AvailabilitySlot, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Locker interface {
	WithLock(ctx context.Context, key, owner string, fn func() error) error
}

type Service struct {
	DB     DBLayer
	Locker Locker
	Logger *logger.Logger
}

func NewService(db DBLayer, locker Locker, log *logger.Logger) *Service {
	return &Service{DB: db, Locker: locker, Logger: log}
}

// Add stores a slot unless it overlaps one the officer already posted.
// The overlap check and insert run under a per-officer lock.
func (s *Service) Add(ctx context.Context, req models.AvailabilityRequest) (*models.AvailabilitySlot, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	officerID, err := mongodb.ParseID(req.OfficerID)
	if err != nil {
		return nil, err
	}
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("%w: end must be after start", models.ErrInvalidInput)
	}

	slot := &models.AvailabilitySlot{
		OfficerID: officerID,
		Start:     req.Start.UTC(),
		End:       req.End.UTC(),
		Note:      strings.TrimSpace(req.Note),
	}
	err = s.Locker.WithLock(ctx, "availability_lock:"+officerID.Hex(), utils.GenerateUUID(), func() error {
		n, err := s.DB.CountOverlapping(ctx, officerID, slot.Start, slot.End)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: slot overlaps an existing slot", models.ErrConflict)
		}
		return s.DB.Insert(ctx, slot)
	})
	if errors.Is(err, cache.ErrLockBusy) {
		return nil, fmt.Errorf("%w: officer schedule is busy, try again", models.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	s.Logger.Info("AVAILABILITY", fmt.Sprintf("Officer %s available %s to %s", officerID.Hex(),
		slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339)))
	return slot, nil
}

// List returns slots intersecting [from, to]. An empty officerID lists everyone.
func (s *Service) List(ctx context.Context, officerID string, from, to time.Time) ([]models.AvailabilitySlot, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", models.ErrInvalidInput)
	}
	var ids []primitive.ObjectID
	if officerID != "" {
		oid, err := mongodb.ParseID(officerID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, oid)
	}
	return s.DB.List(ctx, ids, from, to)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ParseID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(ctx, oid)
}

// CommonWindows finds the periods inside [from, to] where every listed
// officer is available for at least minDuration.
func (s *Service) CommonWindows(ctx context.Context, officerIDs []string, from, to time.Time, minDuration time.Duration) ([]models.TimeWindow, error) {
	if len(officerIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one officer is required", models.ErrInvalidInput)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", models.ErrInvalidInput)
	}
	if minDuration < 0 {
		return nil, fmt.Errorf("%w: minimum duration must not be negative", models.ErrInvalidInput)
	}

	ids := make([]primitive.ObjectID, 0, len(officerIDs))
	seen := make(map[primitive.ObjectID]bool, len(officerIDs))
	for _, raw := range officerIDs {
		oid, err := mongodb.ParseID(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		if !seen[oid] {
			seen[oid] = true
			ids = append(ids, oid)
		}
	}

	slots, err := s.DB.List(ctx, ids, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	byOfficer := make(map[primitive.ObjectID][]models.TimeWindow, len(ids))
	for _, slot := range slots {
		byOfficer[slot.OfficerID] = append(byOfficer[slot.OfficerID], models.TimeWindow{Start: slot.Start, End: slot.End})
	}

	common := []models.TimeWindow{{Start: from, End: to}}
	for _, id := range ids {
		common = intersectWindows(common, mergeWindows(byOfficer[id], from, to))
		if len(common) == 0 {
			break
		}
	}

	out := []models.TimeWindow{}
	for _, w := range common {
		if w.Duration() >= minDuration {
			out = append(out, w)
		}
	}
	return out, nil
}
