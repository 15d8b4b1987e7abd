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
	"github.com/stretchr/testify/require"

	"icpep-backend/internal/auth"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) pair(args mock.Arguments) (*models.TokenPair, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *MockService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, error) {
	return m.pair(m.Called(req))
}

func (m *MockService) Refresh(ctx context.Context, req models.RefreshRequest) (*models.TokenPair, error) {
	return m.pair(m.Called(req))
}

func (m *MockService) Logout(ctx context.Context, refreshToken string, claims models.Claims) error {
	return m.Called(refreshToken, claims.UserID).Error(0)
}

func (m *MockService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	return m.Called(userID, req).Error(0)
}

func (m *MockService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockService) Me(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

var tokens = auth.NewTokenManager("test-secret", time.Minute)

func setupRouter(svc AuthService) *chi.Mux {
	h := NewHandler(svc, logger.Discard())
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.PublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens, nil, logger.Discard()))
			h.SessionRoutes(r)
			r.Route("/admin", h.AdminRoutes)
		})
	})
	return r
}

func bearer(t *testing.T, role string) string {
	raw, _, err := tokens.Issue(&models.User{ID: "u1", Role: role})
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestLoginFailure(t *testing.T) {
	svc := new(MockService)
	svc.On("Login", models.LoginRequest{Email: "a@cit.edu", Password: "x"}).Return(nil, models.ErrUnauthorized)

	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"a@cit.edu","password":"x"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginLimiterApplied(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, logger.Discard())
	h.LoginLimiter = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := chi.NewRouter()
	h.PublicRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	svc.AssertNotCalled(t, "Login", mock.Anything)
}

func TestMeRequiresToken(t *testing.T) {
	svc := new(MockService)
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	svc := new(MockService)
	svc.On("Me", "u1").Return(&models.User{ID: "u1", Email: "a@cit.edu"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleOfficer))
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLogoutWithoutBody(t *testing.T) {
	svc := new(MockService)
	svc.On("Logout", "", "u1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleOfficer))
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestCreateUserAdminOnly(t *testing.T) {
	svc := new(MockService)
	svc.On("CreateUser", mock.Anything).Return(&models.User{ID: "u2"}, nil)
	body := `{"email":"n@cit.edu","name":"N","password":"password1","role":"officer"}`

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, models.RoleOfficer))
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/users", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, models.RoleAdmin))
	rec = httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
