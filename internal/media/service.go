package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"icpep-backend/internal/config"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/media/cloudinary"
	"icpep-backend/internal/models"
)

var ErrNotConfigured = errors.New("media uploads are not configured")

type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (*cloudinary.UploadResult, error)
}

// configurable is implemented by uploaders that can report missing credentials.
type configurable interface {
	Configured() bool
}

type Service struct {
	Uploader  Uploader
	MaxWidth  int
	MaxHeight int
	Quality   int
	MaxBytes  int64
	Logger    *logger.Logger
}

func NewService(u Uploader, cfg config.MediaConfig, log *logger.Logger) *Service {
	return &Service{
		Uploader:  u,
		MaxWidth:  cfg.MaxWidth,
		MaxHeight: cfg.MaxHeight,
		Quality:   cfg.JPEGQuality,
		MaxBytes:  cfg.MaxUploadBytes,
		Logger:    log,
	}
}

// Configured reports whether an uploader with credentials is wired in.
func (s *Service) Configured() bool {
	if s.Uploader == nil {
		return false
	}
	if c, ok := s.Uploader.(configurable); ok {
		return c.Configured()
	}
	return true
}

// Upload shrinks the image to fit MaxWidth x MaxHeight, re-encodes it as
// JPEG and hands it to the uploader. Smaller images keep their size.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*models.MediaAsset, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	raw, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidInput, s.MaxBytes)
	}

	data, width, height, err := s.process(raw)
	if err != nil {
		return nil, err
	}

	res, err := s.Uploader.Upload(ctx, data, jpegName(filename))
	if err != nil {
		return nil, err
	}
	s.Logger.Info("MEDIA", fmt.Sprintf("Uploaded %s (%dx%d, %d bytes)", res.PublicID, width, height, len(data)))
	return &models.MediaAsset{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Width:    width,
		Height:   height,
		Bytes:    len(data),
	}, nil
}

func (s *Service) process(raw []byte) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: unsupported or corrupt image", models.ErrInvalidInput)
	}
	img = imaging.Fit(img, s.MaxWidth, s.MaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.Quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	b := img.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

func jpegName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	return base + ".jpg"
}
