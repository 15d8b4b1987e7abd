package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, req models.AnnouncementRequest) (*models.Announcement, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Announcement), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Announcement), args.Error(1)
}

func (m *MockService) GetPublished(ctx context.Context, id string) (*models.Announcement, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Announcement), args.Error(1)
}

func (m *MockService) List(ctx context.Context, f models.AnnouncementFilter) (*models.Page[models.Announcement], error) {
	args := m.Called(f)
	return args.Get(0).(*models.Page[models.Announcement]), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, id string, req models.AnnouncementRequest) (*models.Announcement, error) {
	args := m.Called(id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Announcement), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func setupRouter(svc AnnouncementService) *chi.Mux {
	h := NewHandler(svc, logger.Discard())
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.PublicRoutes(r)
		r.Route("/admin", h.AdminRoutes)
	})
	return r
}

func TestPublicListPassesFilter(t *testing.T) {
	svc := new(MockService)
	svc.On("List", models.AnnouncementFilter{Category: "event", Page: 2, Limit: 5}).
		Return(&models.Page[models.Announcement]{Items: []models.Announcement{{Title: "x"}}, Total: 6, Page: 2, Limit: 5}, nil)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/announcements?category=event&page=2&limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAdminListIncludesScheduled(t *testing.T) {
	svc := new(MockService)
	svc.On("List", models.AnnouncementFilter{IncludeScheduled: true}).
		Return(&models.Page[models.Announcement]{}, nil)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/announcements", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestGetNotFound(t *testing.T) {
	svc := new(MockService)
	svc.On("GetPublished", "abc").Return(nil, models.ErrNotFound)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/announcements/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminGetReadsScheduled(t *testing.T) {
	svc := new(MockService)
	svc.On("Get", "abc").Return(&models.Announcement{Title: "Acquaintance party"}, nil)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/announcements/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "GetPublished", mock.Anything)
}

func TestCreateAnnouncement(t *testing.T) {
	svc := new(MockService)
	req := models.AnnouncementRequest{Title: "Hello", Body: "World", Category: "general"}
	svc.On("Create", req).Return(&models.Announcement{ID: primitive.NewObjectID(), Title: "Hello"}, nil)

	body := `{"title":"Hello","body":"World","category":"general"}`
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/announcements", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Announcement created", resp.Message)
}

func TestCreateAnnouncementValidationError(t *testing.T) {
	svc := new(MockService)
	svc.On("Create", mock.Anything).Return(nil, models.ErrInvalidInput)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/announcements", strings.NewReader(`{"title":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAnnouncement(t *testing.T) {
	svc := new(MockService)
	svc.On("Delete", "65f1c2a9e4b0a1b2c3d4e5f6").Return(nil)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/announcements/65f1c2a9e4b0a1b2c3d4e5f6", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
