package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"icpep-backend/internal/config"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/media/cloudinary"
	"icpep-backend/internal/models"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, data []byte, filename string) (*cloudinary.UploadResult, error) {
	args := m.Called(data, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cloudinary.UploadResult), args.Error(1)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newService(u Uploader) *Service {
	return NewService(u, config.MediaConfig{MaxWidth: 400, MaxHeight: 300, JPEGQuality: 80, MaxUploadBytes: 1 << 20}, logger.Discard())
}

func TestUploadShrinksLargeImages(t *testing.T) {
	u := new(MockUploader)
	u.On("Upload", mock.Anything, "poster.jpg").Return(&cloudinary.UploadResult{PublicID: "icpep/poster", SecureURL: "https://cdn/x.jpg"}, nil)

	asset, err := newService(u).Upload(context.Background(), "poster.png", bytes.NewReader(pngBytes(t, 1600, 800)))
	require.NoError(t, err)
	assert.Equal(t, 400, asset.Width)
	assert.Equal(t, 200, asset.Height)
	assert.Equal(t, "https://cdn/x.jpg", asset.URL)

	sent := u.Calls[0].Arguments.Get(0).([]byte)
	decoded, err := imaging.Decode(bytes.NewReader(sent))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
}

func TestUploadNeverUpscales(t *testing.T) {
	u := new(MockUploader)
	u.On("Upload", mock.Anything, "logo.jpg").Return(&cloudinary.UploadResult{}, nil)

	asset, err := newService(u).Upload(context.Background(), "logo.png", bytes.NewReader(pngBytes(t, 120, 60)))
	require.NoError(t, err)
	assert.Equal(t, 120, asset.Width)
	assert.Equal(t, 60, asset.Height)
}

func TestUploadRejects(t *testing.T) {
	u := new(MockUploader)
	svc := newService(u)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "notes.txt", bytes.NewReader([]byte("plain text")))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	svc.MaxBytes = 10
	_, err = svc.Upload(ctx, "big.png", bytes.NewReader(pngBytes(t, 50, 50)))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	u.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUploadNotConfigured(t *testing.T) {
	svc := newService(nil)
	_, err := svc.Upload(context.Background(), "a.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUploadWithoutCloudinaryCredentials(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := cloudinary.New(config.MediaConfig{Folder: "icpep"})
	client.BaseURL = srv.URL
	svc := newService(client)

	assert.False(t, svc.Configured())
	_, err := svc.Upload(context.Background(), "a.png", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, atomic.LoadInt32(&hits))

	client.CloudName, client.APIKey, client.APISecret = "demo", "key", "secret"
	assert.True(t, svc.Configured())
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "poster.jpg", jpegName("poster.PNG"))
	assert.Equal(t, "poster.jpg", jpegName("../../poster.gif"))
	assert.Equal(t, "upload.jpg", jpegName(""))
}
