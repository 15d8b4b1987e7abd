package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Upload(ctx context.Context, filename string, r io.Reader) (*models.MediaAsset, error) {
	args := m.Called(filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MediaAsset), args.Error(1)
}

func multipartBody(t *testing.T, field string, size int) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "poster.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{1}, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func setupRouter(svc MediaService, maxBytes int64) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/admin", NewHandler(svc, maxBytes, logger.Discard()).AdminRoutes)
	return r
}

func TestUpload(t *testing.T) {
	svc := new(MockService)
	svc.On("Upload", "poster.png").Return(&models.MediaAsset{URL: "https://cdn/p.jpg"}, nil)

	body, ct := multipartBody(t, "file", 100)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/media", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	setupRouter(svc, 1<<20).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://cdn/p.jpg")
}

func TestUploadMissingField(t *testing.T) {
	svc := new(MockService)
	body, ct := multipartBody(t, "image", 100)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/media", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	setupRouter(svc, 1<<20).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything)
}

func TestUploadTooLarge(t *testing.T) {
	svc := new(MockService)
	body, ct := multipartBody(t, "file", 200<<10)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/media", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	setupRouter(svc, 1<<10).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything)
}
