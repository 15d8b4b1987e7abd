package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Add(ctx context.Context, req models.AvailabilityRequest) (*models.AvailabilitySlot, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailabilitySlot), args.Error(1)
}

func (m *MockService) List(ctx context.Context, officerID string, from, to time.Time) ([]models.AvailabilitySlot, error) {
	args := m.Called(officerID, from, to)
	return args.Get(0).([]models.AvailabilitySlot), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockService) CommonWindows(ctx context.Context, officerIDs []string, from, to time.Time, minDuration time.Duration) ([]models.TimeWindow, error) {
	args := m.Called(officerIDs, from, to, minDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeWindow), args.Error(1)
}

var now = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

func setupRouter(svc AvailabilityService) *chi.Mux {
	h := NewHandler(svc, logger.Discard())
	h.Now = func() time.Time { return now }
	r := chi.NewRouter()
	r.Route("/api/admin", h.AdminRoutes)
	return r
}

func TestCommonDefaults(t *testing.T) {
	svc := new(MockService)
	svc.On("CommonWindows", []string{"a", "b"}, now, now.Add(7*24*time.Hour), 30*time.Minute).
		Return([]models.TimeWindow{}, nil)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/availability/common?officers=a,%20b,", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestCommonExplicitRange(t *testing.T) {
	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)
	svc := new(MockService)
	svc.On("CommonWindows", []string{"a"}, from, to, time.Hour).Return([]models.TimeWindow{{Start: from, End: to}}, nil)

	rec := httptest.NewRecorder()
	url := "/api/admin/availability/common?officers=a&from=2026-03-10T09:00:00Z&to=2026-03-10T17:00:00Z&min=1h"
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCommonBadInput(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	for _, url := range []string{
		"/api/admin/availability/common?officers=a&from=yesterday",
		"/api/admin/availability/common?officers=a&min=forever",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
	svc.AssertNotCalled(t, "CommonWindows", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddOverlapConflict(t *testing.T) {
	svc := new(MockService)
	svc.On("Add", mock.Anything).Return(nil, models.ErrConflict)

	rec := httptest.NewRecorder()
	body := `{"officerId":"x","start":"2026-03-10T09:00:00Z","end":"2026-03-10T10:00:00Z"}`
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/availability", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
