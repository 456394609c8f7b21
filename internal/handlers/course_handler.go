package handlers

import (
	"context"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for course authoring and reading.
type CourseService interface {
	// Method ListPublished returns the published catalogue.
	ListPublished(ctx context.Context) ([]models.Course, error)
	// Method Create creates a new course owned by the instructor.
	//
	// If the name slugifies to an existing slug, an error of kind errs.ErrConflict will be returned.
	Create(ctx context.Context, instructorID int, req *models.CreateCourseRequest) (*models.Course, error)
	// Method Read returns a course with its instructor and lessons.
	Read(ctx context.Context, slug string) (*models.Course, error)
	// Method Update applies a partial update to a course owned by the caller.
	Update(ctx context.Context, callerID int, slug string, req *models.UpdateCourseRequest) (*models.Course, error)
	// Method Publish makes a course owned by the caller visible.
	Publish(ctx context.Context, callerID, courseID int) (*models.Course, error)
	// Method Unpublish hides a course owned by the caller.
	Unpublish(ctx context.Context, callerID, courseID int) (*models.Course, error)
	// Method AddLesson appends a lesson to a course owned by the caller.
	AddLesson(ctx context.Context, callerID, instructorID int, slug string, req *models.AddLessonRequest) (*models.Course, error)
	// Method UpdateLesson edits a lesson of a course owned by the caller.
	UpdateLesson(ctx context.Context, callerID, instructorID int, slug string, req *models.UpdateLessonRequest) error
	// Method RemoveLesson deletes a lesson of a course owned by the caller.
	RemoveLesson(ctx context.Context, callerID int, slug string, lessonID int) error
	// Method InstructorCourses returns the caller's courses, newest first.
	InstructorCourses(ctx context.Context, instructorID int) ([]models.Course, error)
}

// CourseHandler handles course HTTP requests
type CourseHandler struct {
	BaseHandler
	courseService CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   BaseHandler{logger: logger},
		courseService: courseService,
	}
}

// RegisterRoutes registers all course handler routes
//
// "instructorMiddleware" is applied after "authMiddleware" on course creation.
func (h *CourseHandler) RegisterRoutes(r chi.Router, authMiddleware, instructorMiddleware Middleware) {
	r.Get("/courses", h.ListPublished)
	r.Get("/course/{slug}", h.Read)
	r.With(authMiddleware, instructorMiddleware).Post("/course", h.Create)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Put("/course/{slug}", h.Update)
		r.Put("/course/publish/{courseId}", h.Publish)
		r.Put("/course/unpublish/{courseId}", h.Unpublish)
		r.Post("/course/lesson/{slug}/{instructorId}", h.AddLesson)
		r.Put("/course/lesson/{slug}/{instructorId}", h.UpdateLesson)
		r.Put("/course/{slug}/{lessonId}", h.RemoveLesson)
		r.Get("/instructor-courses", h.InstructorCourses)
	})
}

// ListPublished handles GET /courses
// @Summary List published courses
// @Tags courses
// @Produce json
// @Success 200 {array} models.Course
// @Router /courses [get]
func (h *CourseHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListPublished(r.Context())
	if err != nil {
		h.respondServiceError(w, r, "list published courses", err)
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}

// Create handles POST /course
// @Summary Create a course
// @Description Create a course owned by the calling instructor. The slug is derived from the name.
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.CreateCourseRequest true "Course"
// @Success 200 {object} models.Course
// @Failure 400 {object} map[string]string "Invalid course or title is taken"
// @Failure 403 {object} map[string]string "Not an instructor"
// @Router /course [post]
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.CreateCourseRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	course, err := h.courseService.Create(r.Context(), userID, &req)
	if err != nil {
		h.respondServiceError(w, r, "create course", err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// Read handles GET /course/{slug}
// @Summary Get a course
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]string "Course not found"
// @Router /course/{slug} [get]
func (h *CourseHandler) Read(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.Read(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondServiceError(w, r, "read course", err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// Update handles PUT /course/{slug}
// @Summary Update a course
// @Description Partially update a course owned by the caller
// @Tags courses
// @Accept json
// @Produce json
// @Param slug path string true "Course slug"
// @Param request body models.UpdateCourseRequest true "Fields to update"
// @Success 200 {object} models.Course
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /course/{slug} [put]
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.UpdateCourseRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	course, err := h.courseService.Update(r.Context(), userID, chi.URLParam(r, "slug"), &req)
	if err != nil {
		h.respondServiceError(w, r, "update course", err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// Publish handles PUT /course/publish/{courseId}
// @Summary Publish a course
// @Tags courses
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 400 {object} map[string]string "Course has no lessons"
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /course/publish/{courseId} [put]
func (h *CourseHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

// Unpublish handles PUT /course/unpublish/{courseId}
// @Summary Unpublish a course
// @Tags courses
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /course/unpublish/{courseId} [put]
func (h *CourseHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *CourseHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.intParam(w, r, "courseId")
	if !ok {
		return
	}

	var (
		course *models.Course
		err    error
	)
	if published {
		course, err = h.courseService.Publish(r.Context(), userID, courseID)
	} else {
		course, err = h.courseService.Unpublish(r.Context(), userID, courseID)
	}
	if err != nil {
		h.respondServiceError(w, r, "set published", err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// AddLesson handles POST /course/lesson/{slug}/{instructorId}
// @Summary Add a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param slug path string true "Course slug"
// @Param instructorId path int true "Instructor ID"
// @Param request body models.AddLessonRequest true "Lesson"
// @Success 200 {object} models.Course
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /course/lesson/{slug}/{instructorId} [post]
func (h *CourseHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	instructorID, ok := h.intParam(w, r, "instructorId")
	if !ok {
		return
	}

	var req models.AddLessonRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	course, err := h.courseService.AddLesson(r.Context(), userID, instructorID, chi.URLParam(r, "slug"), &req)
	if err != nil {
		h.respondServiceError(w, r, "add lesson", err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// UpdateLesson handles PUT /course/lesson/{slug}/{instructorId}
// @Summary Update a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param slug path string true "Course slug"
// @Param instructorId path int true "Instructor ID"
// @Param request body models.UpdateLessonRequest true "Lesson"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /course/lesson/{slug}/{instructorId} [put]
func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	instructorID, ok := h.intParam(w, r, "instructorId")
	if !ok {
		return
	}

	var req models.UpdateLessonRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.courseService.UpdateLesson(r.Context(), userID, instructorID, chi.URLParam(r, "slug"), &req); err != nil {
		h.respondServiceError(w, r, "update lesson", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// RemoveLesson handles PUT /course/{slug}/{lessonId}
// @Summary Remove a lesson
// @Tags lessons
// @Produce json
// @Param slug path string true "Course slug"
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Router /course/{slug}/{lessonId} [put]
func (h *CourseHandler) RemoveLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	lessonID, ok := h.intParam(w, r, "lessonId")
	if !ok {
		return
	}

	if err := h.courseService.RemoveLesson(r.Context(), userID, chi.URLParam(r, "slug"), lessonID); err != nil {
		h.respondServiceError(w, r, "remove lesson", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// InstructorCourses handles GET /instructor-courses
// @Summary List the caller's courses
// @Tags courses
// @Produce json
// @Success 200 {array} models.Course
// @Router /instructor-courses [get]
func (h *CourseHandler) InstructorCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	courses, err := h.courseService.InstructorCourses(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, "list instructor courses", err)
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}
