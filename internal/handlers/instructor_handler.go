package handlers

import (
	"context"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// InstructorService is the interface that wraps methods for instructor payout onboarding.
type InstructorService interface {
	// Method MakeInstructor ensures a connected payout account exists and returns its onboarding link.
	MakeInstructor(ctx context.Context, userID int) (string, error)
	// Method GetAccountStatus grants the Instructor role once the payout account can accept charges.
	//
	// If charges are disabled, an error of kind errs.ErrUnauthorized will be returned.
	GetAccountStatus(ctx context.Context, userID int) (*models.User, error)
	// Method CurrentInstructor fails with errs.ErrForbidden unless the user is an instructor.
	CurrentInstructor(ctx context.Context, userID int) error
	// Method StudentCount returns the ids of the users enrolled in a course owned by the caller.
	StudentCount(ctx context.Context, callerID, courseID int) ([]int, error)
	// Method Balance returns the balance of the caller's payout account.
	Balance(ctx context.Context, userID int) (*models.Balance, error)
	// Method PayoutSettings returns a dashboard login link for the caller's payout account.
	PayoutSettings(ctx context.Context, userID int) (string, error)
}

// LinkResponse carries a link to a page of the payment processor
type LinkResponse struct {
	URL string `json:"url"`
}

// InstructorHandler handles instructor HTTP requests
type InstructorHandler struct {
	BaseHandler
	instructorService InstructorService
}

// NewInstructorHandler creates a new instructor handler
func NewInstructorHandler(instructorService InstructorService, logger *zap.Logger) *InstructorHandler {
	return &InstructorHandler{
		BaseHandler:       BaseHandler{logger: logger},
		instructorService: instructorService,
	}
}

// RegisterRoutes registers all instructor handler routes
func (h *InstructorHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/make-instructor", h.MakeInstructor)
		r.Post("/get-account-status", h.GetAccountStatus)
		r.Get("/current-instructor", h.CurrentInstructor)
		r.Post("/instructor/student-count", h.StudentCount)
		r.Get("/instructor/balance", h.Balance)
		r.Get("/instructor/payout-settings", h.PayoutSettings)
	})
}

// MakeInstructor handles POST /make-instructor
// @Summary Start instructor onboarding
// @Description Create a connected payout account if absent and return its onboarding link
// @Tags instructor
// @Produce json
// @Success 200 {object} LinkResponse
// @Failure 502 {object} map[string]string "Payment processor unavailable"
// @Router /make-instructor [post]
func (h *InstructorHandler) MakeInstructor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	link, err := h.instructorService.MakeInstructor(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, "make instructor", err)
		return
	}

	h.respondJSON(w, http.StatusOK, LinkResponse{URL: link})
}

// GetAccountStatus handles POST /get-account-status
// @Summary Complete instructor onboarding
// @Description Grant the Instructor role if the payout account accepts charges
// @Tags instructor
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Charges are disabled"
// @Router /get-account-status [post]
func (h *InstructorHandler) GetAccountStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.instructorService.GetAccountStatus(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, "get account status", err)
		return
	}

	h.respondJSON(w, http.StatusOK, user)
}

// CurrentInstructor handles GET /current-instructor
// @Summary Check the instructor role
// @Tags instructor
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 403 {object} map[string]string "Not an instructor"
// @Router /current-instructor [get]
func (h *InstructorHandler) CurrentInstructor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.instructorService.CurrentInstructor(r.Context(), userID); err != nil {
		h.respondServiceError(w, r, "current instructor", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// StudentCount handles POST /instructor/student-count
// @Summary List the students of a course
// @Tags instructor
// @Accept json
// @Produce json
// @Param request body models.CourseIDRequest true "Course"
// @Success 200 {array} int
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /instructor/student-count [post]
func (h *InstructorHandler) StudentCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.CourseIDRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	ids, err := h.instructorService.StudentCount(r.Context(), userID, req.CourseID)
	if err != nil {
		h.respondServiceError(w, r, "student count", err)
		return
	}

	h.respondJSON(w, http.StatusOK, ids)
}

// Balance handles GET /instructor/balance
// @Summary Get the payout balance
// @Tags instructor
// @Produce json
// @Success 200 {object} models.Balance
// @Router /instructor/balance [get]
func (h *InstructorHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	balance, err := h.instructorService.Balance(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, "balance", err)
		return
	}

	h.respondJSON(w, http.StatusOK, balance)
}

// PayoutSettings handles GET /instructor/payout-settings
// @Summary Get the payout dashboard link
// @Tags instructor
// @Produce json
// @Success 200 {object} LinkResponse
// @Router /instructor/payout-settings [get]
func (h *InstructorHandler) PayoutSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	link, err := h.instructorService.PayoutSettings(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, "payout settings", err)
		return
	}

	h.respondJSON(w, http.StatusOK, LinkResponse{URL: link})
}
