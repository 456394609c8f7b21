package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type enrolmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEnrolmentRepository creates a new enrolment repository
func NewEnrolmentRepository(db *sql.DB, logger *zap.Logger) *enrolmentRepository {
	return &enrolmentRepository{
		db:     db,
		logger: logger,
	}
}

// Add enrols a user in a course. Enrolling twice keeps a single entry.
func (r *enrolmentRepository) Add(ctx context.Context, userID, courseID int) error {
	query := `INSERT IGNORE INTO user_courses (user_id, course_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, userID, courseID); err != nil {
		r.logger.Error("failed to add enrolment",
			zap.Int("user_id", userID),
			zap.Int("course_id", courseID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to add enrolment: %w", err)
	}
	return nil
}

// Exists checks if a user is enrolled in a course
func (r *enrolmentRepository) Exists(ctx context.Context, userID, courseID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_courses WHERE user_id = ? AND course_id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&exists); err != nil {
		r.logger.Error("failed to check enrolment", zap.Int("user_id", userID), zap.Int("course_id", courseID), zap.Error(err))
		return false, fmt.Errorf("failed to check enrolment: %w", err)
	}

	return exists, nil
}

// ListUserIDsByCourse retrieves the ids of users enrolled in a course
func (r *enrolmentRepository) ListUserIDsByCourse(ctx context.Context, courseID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM user_courses WHERE course_id = ? ORDER BY user_id`, courseID)
	if err != nil {
		r.logger.Error("failed to query enrolled users", zap.Int("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to query enrolled users: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int, error) {
	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ids, nil
}
