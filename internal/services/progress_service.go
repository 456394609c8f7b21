package services

import (
	"context"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"go.uber.org/zap"
)

// CompletedRepository defines methods for the completed lesson set of a user in a course
type CompletedRepository interface {
	// Add records a lesson as completed. Adding twice keeps one entry.
	Add(ctx context.Context, userID, courseID, lessonID int) error
	// Remove drops a lesson from the completed set
	Remove(ctx context.Context, userID, courseID, lessonID int) error
	// ListLessonIDs returns the completed lesson ids, empty when none
	ListLessonIDs(ctx context.Context, userID, courseID int) ([]int, error)
}

// LessonLookup retrieves lessons by id
type LessonLookup interface {
	GetByID(ctx context.Context, id int) (*models.Lesson, error)
}

type progressService struct {
	completedRepo CompletedRepository
	lessonRepo    LessonLookup
	logger        *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(completedRepo CompletedRepository, lessonRepo LessonLookup, logger *zap.Logger) *progressService {
	return &progressService{
		completedRepo: completedRepo,
		lessonRepo:    lessonRepo,
		logger:        logger,
	}
}

// MarkCompleted adds the lesson to the user's completed set for the course
func (s *progressService) MarkCompleted(ctx context.Context, userID int, req *models.ProgressRequest) error {
	if err := validateProgressRequest(req); err != nil {
		return err
	}

	lesson, err := s.lessonRepo.GetByID(ctx, req.LessonID)
	if err != nil {
		return err
	}
	if lesson.CourseID != req.CourseID {
		return errs.New(errs.ErrValidation, "lesson does not belong to course")
	}

	return s.completedRepo.Add(ctx, userID, req.CourseID, req.LessonID)
}

// ListCompleted returns the ids of the lessons the user completed in the course
func (s *progressService) ListCompleted(ctx context.Context, userID, courseID int) ([]int, error) {
	if courseID <= 0 {
		return nil, errs.New(errs.ErrValidation, "courseId is required")
	}
	return s.completedRepo.ListLessonIDs(ctx, userID, courseID)
}

// MarkIncomplete removes the lesson from the user's completed set for the course
func (s *progressService) MarkIncomplete(ctx context.Context, userID int, req *models.ProgressRequest) error {
	if err := validateProgressRequest(req); err != nil {
		return err
	}
	return s.completedRepo.Remove(ctx, userID, req.CourseID, req.LessonID)
}

func validateProgressRequest(req *models.ProgressRequest) error {
	if req.CourseID <= 0 || req.LessonID <= 0 {
		return errs.New(errs.ErrValidation, "courseId and lessonId are required")
	}
	return nil
}
