package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MediaService is the interface that wraps methods for course media uploads.
type MediaService interface {
	// Method UploadImage stores a base64 data URL image and returns its asset.
	UploadImage(ctx context.Context, dataURL string) (*models.Asset, error)
	// Method RemoveImage deletes a previously uploaded image.
	RemoveImage(ctx context.Context, asset *models.Asset) error
	// Method UploadVideo stores a lesson video.
	//
	// "callerID" must equal "instructorID", otherwise an error of kind errs.ErrForbidden will be returned.
	UploadVideo(ctx context.Context, callerID, instructorID int, contentType string, body io.Reader, size int64) (*models.Asset, error)
	// Method RemoveVideo deletes a lesson video; the same ownership rule as UploadVideo applies.
	RemoveVideo(ctx context.Context, callerID, instructorID int, asset *models.Asset) error
}

// UploadImageRequest carries an image as a base64 data URL
type UploadImageRequest struct {
	Image string `json:"image"`
}

// RemoveImageRequest carries the asset of the image to delete
type RemoveImageRequest struct {
	Image *models.Asset `json:"image"`
}

// MediaHandler handles media upload HTTP requests
type MediaHandler struct {
	BaseHandler
	mediaService MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		BaseHandler:  BaseHandler{logger: logger},
		mediaService: mediaService,
	}
}

// RegisterRoutes registers all media handler routes
func (h *MediaHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/course/upload-image", h.UploadImage)
		r.Post("/course/remove-image", h.RemoveImage)
		r.Post("/course/video-upload/{instructorId}", h.UploadVideo)
		r.Post("/course/video-remove/{instructorId}", h.RemoveVideo)
	})
}

// UploadImage handles POST /course/upload-image
// @Summary Upload a course image
// @Description Upload a base64 data URL image as a public object
// @Tags media
// @Accept json
// @Produce json
// @Param request body UploadImageRequest true "Image data URL"
// @Success 200 {object} models.Asset
// @Failure 400 {object} map[string]string "No image"
// @Failure 502 {object} map[string]string "Storage unavailable"
// @Router /course/upload-image [post]
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	var req UploadImageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	asset, err := h.mediaService.UploadImage(r.Context(), req.Image)
	if err != nil {
		h.respondServiceError(w, r, "upload image", err)
		return
	}

	h.respondJSON(w, http.StatusOK, asset)
}

// RemoveImage handles POST /course/remove-image
// @Summary Remove a course image
// @Tags media
// @Accept json
// @Produce json
// @Param request body RemoveImageRequest true "Image asset"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid asset"
// @Router /course/remove-image [post]
func (h *MediaHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	var req RemoveImageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.mediaService.RemoveImage(r.Context(), req.Image); err != nil {
		h.respondServiceError(w, r, "remove image", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// UploadVideo handles POST /course/video-upload/{instructorId}
// @Summary Upload a lesson video
// @Description Upload a video file as multipart form field "video"
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param instructorId path int true "Instructor ID"
// @Param video formData file true "Video file"
// @Success 200 {object} models.Asset
// @Failure 400 {object} map[string]string "No video"
// @Failure 403 {object} map[string]string "Not the instructor"
// @Router /course/video-upload/{instructorId} [post]
func (h *MediaHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	instructorID, ok := h.intParam(w, r, "instructorId")
	if !ok {
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.respondError(w, http.StatusBadRequest, "no video")
			return
		}
		h.respondError(w, http.StatusBadRequest, "failed to parse request")
		return
	}
	defer file.Close()

	asset, err := h.mediaService.UploadVideo(r.Context(), userID, instructorID, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		h.respondServiceError(w, r, "upload video", err)
		return
	}

	h.respondJSON(w, http.StatusOK, asset)
}

// RemoveVideo handles POST /course/video-remove/{instructorId}
// @Summary Remove a lesson video
// @Tags media
// @Accept json
// @Produce json
// @Param instructorId path int true "Instructor ID"
// @Param request body models.Asset true "Video asset"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} map[string]string "Not the instructor"
// @Router /course/video-remove/{instructorId} [post]
func (h *MediaHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	instructorID, ok := h.intParam(w, r, "instructorId")
	if !ok {
		return
	}

	var asset models.Asset
	if !h.decodeJSON(w, r, &asset) {
		return
	}

	if err := h.mediaService.RemoveVideo(r.Context(), userID, instructorID, &asset); err != nil {
		h.respondServiceError(w, r, "remove video", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}
