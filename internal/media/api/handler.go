package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
	"icpep-backend/internal/utils"
)

type MediaService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*models.MediaAsset, error)
}

type Handler struct {
	Service  MediaService
	MaxBytes int64
	Logger   *logger.Logger
}

func NewHandler(s MediaService, maxBytes int64, log *logger.Logger) *Handler {
	return &Handler{Service: s, MaxBytes: maxBytes, Logger: log}
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/media", h.Upload)
}

// Upload expects a multipart form with the image in the "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// room for multipart headers on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+64<<10)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteServiceError(w, "File too large", fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidInput, h.MaxBytes))
			return
		}
		utils.WriteServiceError(w, "Missing file", fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	asset, err := h.Service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.Logger.Error("MEDIA", "Upload failed: "+err.Error())
		utils.WriteServiceError(w, "Upload failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "File uploaded", asset)
}
