package handlers

import (
	"context"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EnrolmentService is the interface that wraps methods for the enrolment and payment flow.
type EnrolmentService interface {
	// Method CheckEnrolment reports whether the user is enrolled in the course.
	CheckEnrolment(ctx context.Context, userID, courseID int) (*models.EnrolmentStatus, error)
	// Method FreeEnrolment enrols the user in a free course.
	//
	// If the course is paid, an error of kind errs.ErrValidation will be returned and nothing changes.
	FreeEnrolment(ctx context.Context, userID, courseID int) (*models.EnrolmentResult, error)
	// Method PaidEnrolment starts a hosted checkout for a paid course and returns its session id.
	PaidEnrolment(ctx context.Context, userID, courseID int) (string, error)
	// Method StripeSuccess settles the user's latest pending checkout for the course.
	StripeSuccess(ctx context.Context, userID, courseID int) (*models.SettlementResult, error)
	// Method UserCourses returns the courses the user is enrolled in.
	UserCourses(ctx context.Context, userID int) ([]models.Course, error)
}

// CourseReader reads a course with its lessons
type CourseReader interface {
	Read(ctx context.Context, slug string) (*models.Course, error)
}

// EnrolmentHandler handles enrolment HTTP requests
type EnrolmentHandler struct {
	BaseHandler
	enrolmentService EnrolmentService
	courseReader     CourseReader
}

// NewEnrolmentHandler creates a new enrolment handler
func NewEnrolmentHandler(enrolmentService EnrolmentService, courseReader CourseReader, logger *zap.Logger) *EnrolmentHandler {
	return &EnrolmentHandler{
		BaseHandler:      BaseHandler{logger: logger},
		enrolmentService: enrolmentService,
		courseReader:     courseReader,
	}
}

// RegisterRoutes registers all enrolment handler routes
//
// "enrolledMiddleware" guards the lesson content of a course.
func (h *EnrolmentHandler) RegisterRoutes(r chi.Router, authMiddleware, enrolledMiddleware Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/check-enrolment/{courseId}", h.CheckEnrolment)
		r.Post("/free-enrolment/{courseId}", h.FreeEnrolment)
		r.Post("/paid-enrolment/{courseId}", h.PaidEnrolment)
		r.Get("/stripe-success/{courseId}", h.StripeSuccess)
		r.Get("/user-courses", h.UserCourses)
		r.With(enrolledMiddleware).Get("/user/course/{slug}", h.ReadEnrolledCourse)
	})
}

// CheckEnrolment handles GET /check-enrolment/{courseId}
// @Summary Check enrolment
// @Tags enrolment
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.EnrolmentStatus
// @Failure 404 {object} map[string]string "Course not found"
// @Router /check-enrolment/{courseId} [get]
func (h *EnrolmentHandler) CheckEnrolment(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := h.userAndCourse(w, r)
	if !ok {
		return
	}

	status, err := h.enrolmentService.CheckEnrolment(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, r, "check enrolment", err)
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}

// FreeEnrolment handles POST /free-enrolment/{courseId}
// @Summary Enrol in a free course
// @Tags enrolment
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.EnrolmentResult
// @Failure 400 {object} map[string]string "Course is not free"
// @Router /free-enrolment/{courseId} [post]
func (h *EnrolmentHandler) FreeEnrolment(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := h.userAndCourse(w, r)
	if !ok {
		return
	}

	result, err := h.enrolmentService.FreeEnrolment(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, r, "free enrolment", err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// PaidEnrolment handles POST /paid-enrolment/{courseId}
// @Summary Start a paid enrolment
// @Description Create a hosted checkout session and return its id
// @Tags enrolment
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {string} string "Checkout session id"
// @Failure 400 {object} map[string]string "Course is free or instructor cannot accept payments"
// @Failure 502 {object} map[string]string "Payment processor unavailable"
// @Router /paid-enrolment/{courseId} [post]
func (h *EnrolmentHandler) PaidEnrolment(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := h.userAndCourse(w, r)
	if !ok {
		return
	}

	sessionID, err := h.enrolmentService.PaidEnrolment(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, r, "paid enrolment", err)
		return
	}

	h.respondJSON(w, http.StatusOK, sessionID)
}

// StripeSuccess handles GET /stripe-success/{courseId}
// @Summary Settle a checkout
// @Description Read the latest pending checkout back from the processor and enrol the user if it is paid. success is true only when the payment has settled, including a checkout already settled in the background; an unpaid or expired checkout and a processor error answer success false.
// @Tags enrolment
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.SettlementResult
// @Failure 400 {object} map[string]string "No pending checkout and not enrolled"
// @Router /stripe-success/{courseId} [get]
func (h *EnrolmentHandler) StripeSuccess(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := h.userAndCourse(w, r)
	if !ok {
		return
	}

	result, err := h.enrolmentService.StripeSuccess(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, r, "stripe success", err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// UserCourses handles GET /user-courses
// @Summary List enrolled courses
// @Tags enrolment
// @Produce json
// @Success 200 {array} models.Course
// @Router /user-courses [get]
func (h *EnrolmentHandler) UserCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	courses, err := h.enrolmentService.UserCourses(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, "user courses", err)
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}

// ReadEnrolledCourse handles GET /user/course/{slug}
// @Summary Get an enrolled course
// @Description Same body as GET /course/{slug}; only for enrolled users and the owning instructor
// @Tags enrolment
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} models.Course
// @Failure 403 {object} map[string]string "Not enrolled"
// @Router /user/course/{slug} [get]
func (h *EnrolmentHandler) ReadEnrolledCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseReader.Read(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondServiceError(w, r, "read enrolled course", err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

func (h *EnrolmentHandler) userAndCourse(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userID, ok := h.userID(w, r)
	if !ok {
		return 0, 0, false
	}
	courseID, ok := h.intParam(w, r, "courseId")
	if !ok {
		return 0, 0, false
	}
	return userID, courseID, true
}
