package handlers

import (
	"context"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for the completed lesson record.
type ProgressService interface {
	// Method MarkCompleted adds the lesson to the completed set; repeating it is a no-op.
	MarkCompleted(ctx context.Context, userID int, req *models.ProgressRequest) error
	// Method ListCompleted returns the completed lesson ids, empty when none.
	ListCompleted(ctx context.Context, userID, courseID int) ([]int, error)
	// Method MarkIncomplete removes the lesson from the completed set.
	MarkIncomplete(ctx context.Context, userID int, req *models.ProgressRequest) error
}

// ProgressHandler handles completed lesson HTTP requests
type ProgressHandler struct {
	BaseHandler
	progressService ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     BaseHandler{logger: logger},
		progressService: progressService,
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/mark-completed", h.MarkCompleted)
		r.Post("/list-completed", h.ListCompleted)
		r.Post("/mark-incomplete", h.MarkIncomplete)
	})
}

// MarkCompleted handles POST /mark-completed
// @Summary Mark a lesson completed
// @Tags progress
// @Accept json
// @Produce json
// @Param request body models.ProgressRequest true "Course and lesson"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid course or lesson"
// @Router /mark-completed [post]
func (h *ProgressHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.ProgressRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.progressService.MarkCompleted(r.Context(), userID, &req); err != nil {
		h.respondServiceError(w, r, "mark completed", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// ListCompleted handles POST /list-completed
// @Summary List completed lessons
// @Tags progress
// @Accept json
// @Produce json
// @Param request body models.CourseIDRequest true "Course"
// @Success 200 {array} int
// @Router /list-completed [post]
func (h *ProgressHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.CourseIDRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ids, err := h.progressService.ListCompleted(r.Context(), userID, req.CourseID)
	if err != nil {
		h.respondServiceError(w, r, "list completed", err)
		return
	}

	h.respondJSON(w, http.StatusOK, ids)
}

// MarkIncomplete handles POST /mark-incomplete
// @Summary Mark a lesson incomplete
// @Tags progress
// @Accept json
// @Produce json
// @Param request body models.ProgressRequest true "Course and lesson"
// @Success 200 {object} map[string]bool
// @Router /mark-incomplete [post]
func (h *ProgressHandler) MarkIncomplete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.ProgressRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.progressService.MarkIncomplete(r.Context(), userID, &req); err != nil {
		h.respondServiceError(w, r, "mark incomplete", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}
