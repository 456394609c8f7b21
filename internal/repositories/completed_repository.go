package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type completedRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCompletedRepository creates a new completed lessons repository
func NewCompletedRepository(db *sql.DB, logger *zap.Logger) *completedRepository {
	return &completedRepository{
		db:     db,
		logger: logger,
	}
}

// Add puts a lesson into the user's completed set for a course.
// The primary key makes repeated calls a no-op.
func (r *completedRepository) Add(ctx context.Context, userID, courseID, lessonID int) error {
	query := `INSERT IGNORE INTO completed_lessons (user_id, course_id, lesson_id) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, userID, courseID, lessonID); err != nil {
		r.logger.Error("failed to mark lesson completed",
			zap.Int("user_id", userID),
			zap.Int("course_id", courseID),
			zap.Int("lesson_id", lessonID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to mark lesson completed: %w", err)
	}
	return nil
}

// Remove takes a lesson out of the user's completed set for a course
func (r *completedRepository) Remove(ctx context.Context, userID, courseID, lessonID int) error {
	query := `DELETE FROM completed_lessons WHERE user_id = ? AND course_id = ? AND lesson_id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID, courseID, lessonID); err != nil {
		r.logger.Error("failed to mark lesson incomplete",
			zap.Int("user_id", userID),
			zap.Int("course_id", courseID),
			zap.Int("lesson_id", lessonID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to mark lesson incomplete: %w", err)
	}
	return nil
}

// ListLessonIDs retrieves the completed lesson ids of a user for a course
func (r *completedRepository) ListLessonIDs(ctx context.Context, userID, courseID int) ([]int, error) {
	query := `SELECT lesson_id FROM completed_lessons WHERE user_id = ? AND course_id = ? ORDER BY created_at, lesson_id`
	rows, err := r.db.QueryContext(ctx, query, userID, courseID)
	if err != nil {
		r.logger.Error("failed to query completed lessons", zap.Int("user_id", userID), zap.Int("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to query completed lessons: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}
