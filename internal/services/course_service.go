package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	publishedCoursesKey = "courses:published"
	publishedCoursesTTL = 5 * time.Minute
)

// CourseRepository defines methods for course data access
type CourseRepository interface {
	// Create inserts a new course
	//
	// "ctx" is the context for the request.
	// "course" is the course to create; its ID is filled in on success.
	//
	// Returns an error of kind errs.ErrConflict if the slug is taken.
	Create(ctx context.Context, course *models.Course) error
	// GetBySlug retrieves a course by slug without its lessons
	//
	// "ctx" is the context for the request.
	// "slug" is the slug of the course.
	//
	// Returns an error of kind errs.ErrNotFound if the course does not exist.
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// GetByID retrieves a course by ID without its lessons
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns an error of kind errs.ErrNotFound if the course does not exist.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// ExistsBySlug checks if a course with the given slug exists
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// Update writes the editable fields of a course
	Update(ctx context.Context, course *models.Course) error
	// SetPublished sets the published flag of a course
	SetPublished(ctx context.Context, id int, published bool) error
	// ListPublished retrieves all published courses with their instructor
	ListPublished(ctx context.Context) ([]models.Course, error)
	// ListByInstructor retrieves the courses of an instructor, newest first
	ListByInstructor(ctx context.Context, instructorID int) ([]models.Course, error)
}

// LessonRepository defines methods for lesson data access
type LessonRepository interface {
	// ListByCourse retrieves the lessons of a course in order
	ListByCourse(ctx context.Context, courseID int) ([]models.Lesson, error)
	// Append inserts a lesson at the end of its course
	Append(ctx context.Context, lesson *models.Lesson) error
	// GetByID retrieves a lesson by ID
	//
	// Returns an error of kind errs.ErrNotFound if the lesson does not exist.
	GetByID(ctx context.Context, id int) (*models.Lesson, error)
	// Update writes the editable fields of a lesson
	Update(ctx context.Context, lesson *models.Lesson) error
	// Delete removes a lesson from a course and reports whether it existed
	Delete(ctx context.Context, courseID, lessonID int) (bool, error)
	// CountByCourse returns the number of lessons in a course
	CountByCourse(ctx context.Context, courseID int) (int, error)
}

// Cache is a fail-safe JSON cache
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

type courseService struct {
	courseRepo CourseRepository
	lessonRepo LessonRepository
	cache      Cache
	logger     *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo CourseRepository, lessonRepo LessonRepository, cache Cache, logger *zap.Logger) *courseService {
	return &courseService{
		courseRepo: courseRepo,
		lessonRepo: lessonRepo,
		cache:      cache,
		logger:     logger,
	}
}

// ListPublished returns the published catalogue, served from cache when possible
func (s *courseService) ListPublished(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if s.cache.GetJSON(ctx, publishedCoursesKey, &courses) {
		return courses, nil
	}

	courses, err := s.courseRepo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, publishedCoursesKey, courses, publishedCoursesTTL)
	return courses, nil
}

// Create creates a new course owned by the instructor
func (s *courseService) Create(ctx context.Context, instructorID int, req *models.CreateCourseRequest) (*models.Course, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.New(errs.ErrValidation, "name is required")
	}
	if err := validatePrice(req.Paid, req.Price); err != nil {
		return nil, err
	}

	courseSlug := slug.Make(name)
	if courseSlug == "" {
		return nil, errs.New(errs.ErrValidation, "name must contain letters or digits")
	}
	exists, err := s.courseRepo.ExistsBySlug(ctx, courseSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return nil, errs.New(errs.ErrConflict, "title is taken")
	}

	course := &models.Course{
		Name:         name,
		Slug:         courseSlug,
		Description:  req.Description,
		Price:        req.Price,
		Image:        req.Image,
		Category:     req.Category,
		Paid:         req.Paid,
		InstructorID: instructorID,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course created", zap.Int("courseId", course.ID), zap.Int("instructorId", instructorID))
	return s.Read(ctx, courseSlug)
}

// Read returns a course with its instructor and lessons
func (s *courseService) Read(ctx context.Context, courseSlug string) (*models.Course, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	return s.withLessons(ctx, course)
}

// Update applies a partial update to a course owned by the caller
func (s *courseService) Update(ctx context.Context, callerID int, courseSlug string, req *models.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.ownedCourse(ctx, callerID, courseSlug)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errs.New(errs.ErrValidation, "name is required")
		}
		course.Name = name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Paid != nil {
		course.Paid = *req.Paid
	}
	if req.Image != nil {
		course.Image = req.Image
	}
	if err := validatePrice(course.Paid, course.Price); err != nil {
		return nil, err
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, publishedCoursesKey)

	return s.withLessons(ctx, course)
}

// Publish makes a course owned by the caller visible in the catalogue
func (s *courseService) Publish(ctx context.Context, callerID, courseID int) (*models.Course, error) {
	return s.setPublished(ctx, callerID, courseID, true)
}

// Unpublish hides a course owned by the caller from the catalogue
func (s *courseService) Unpublish(ctx context.Context, callerID, courseID int) (*models.Course, error) {
	return s.setPublished(ctx, callerID, courseID, false)
}

func (s *courseService) setPublished(ctx context.Context, callerID, courseID int, published bool) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != callerID {
		return nil, errs.New(errs.ErrForbidden, "unauthorized")
	}

	if published {
		count, err := s.lessonRepo.CountByCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, errs.New(errs.ErrValidation, "course must have at least one lesson to be published")
		}
	}

	if err := s.courseRepo.SetPublished(ctx, courseID, published); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, publishedCoursesKey)

	course.Published = published
	return s.withLessons(ctx, course)
}

// AddLesson appends a lesson to a course owned by the caller
func (s *courseService) AddLesson(ctx context.Context, callerID, instructorID int, courseSlug string, req *models.AddLessonRequest) (*models.Course, error) {
	if callerID != instructorID {
		return nil, errs.New(errs.ErrForbidden, "unauthorized")
	}
	course, err := s.ownedCourse(ctx, callerID, courseSlug)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errs.New(errs.ErrValidation, "title is required")
	}

	lesson := &models.Lesson{
		CourseID: course.ID,
		Title:    title,
		Slug:     slug.Make(title),
		Content:  req.Content,
		Video:    req.Video,
	}
	if err := s.lessonRepo.Append(ctx, lesson); err != nil {
		return nil, err
	}

	return s.withLessons(ctx, course)
}

// UpdateLesson edits a lesson of a course owned by the caller
func (s *courseService) UpdateLesson(ctx context.Context, callerID, instructorID int, courseSlug string, req *models.UpdateLessonRequest) error {
	if callerID != instructorID {
		return errs.New(errs.ErrForbidden, "unauthorized")
	}
	course, err := s.ownedCourse(ctx, callerID, courseSlug)
	if err != nil {
		return err
	}

	lesson, err := s.lessonRepo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if lesson.CourseID != course.ID {
		return errs.New(errs.ErrNotFound, "lesson not found")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return errs.New(errs.ErrValidation, "title is required")
	}
	lesson.Title = title
	lesson.Content = req.Content
	lesson.Video = req.Video
	lesson.FreePreview = req.FreePreview

	return s.lessonRepo.Update(ctx, lesson)
}

// RemoveLesson deletes a lesson from a course owned by the caller.
// A published course keeps at least one lesson.
func (s *courseService) RemoveLesson(ctx context.Context, callerID int, courseSlug string, lessonID int) error {
	course, err := s.ownedCourse(ctx, callerID, courseSlug)
	if err != nil {
		return err
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return err
	}
	if lesson.CourseID != course.ID {
		return errs.New(errs.ErrNotFound, "lesson not found")
	}

	if course.Published {
		count, err := s.lessonRepo.CountByCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return errs.New(errs.ErrValidation, "unpublish the course before removing its last lesson")
		}
	}

	deleted, err := s.lessonRepo.Delete(ctx, course.ID, lessonID)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.New(errs.ErrNotFound, "lesson not found")
	}

	return nil
}

// InstructorCourses returns the caller's courses, newest first
func (s *courseService) InstructorCourses(ctx context.Context, instructorID int) ([]models.Course, error) {
	return s.courseRepo.ListByInstructor(ctx, instructorID)
}

func (s *courseService) ownedCourse(ctx context.Context, callerID int, courseSlug string) (*models.Course, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != callerID {
		return nil, errs.New(errs.ErrForbidden, "unauthorized")
	}
	return course, nil
}

func (s *courseService) withLessons(ctx context.Context, course *models.Course) (*models.Course, error) {
	lessons, err := s.lessonRepo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons
	return course, nil
}

func validatePrice(paid bool, price float64) error {
	if price < 0 {
		return errs.New(errs.ErrValidation, "price cannot be negative")
	}
	if paid && price <= 0 {
		return errs.New(errs.ErrValidation, "paid course must have a price")
	}
	return nil
}
