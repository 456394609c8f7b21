package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"go.uber.org/zap"
)

type lessonRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB, logger *zap.Logger) *lessonRepository {
	return &lessonRepository{
		db:     db,
		logger: logger,
	}
}

const lessonColumns = `id, course_id, title, slug, content, video_bucket, video_key, video_location, free_preview, position, created_at, updated_at`

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var (
		lesson models.Lesson
		video  assetColumns
	)
	err := row.Scan(
		&lesson.ID,
		&lesson.CourseID,
		&lesson.Title,
		&lesson.Slug,
		&lesson.Content,
		&video.bucket,
		&video.key,
		&video.location,
		&lesson.FreePreview,
		&lesson.Position,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lesson.Video = video.asset()
	return &lesson, nil
}

// ListByCourse retrieves the lessons of a course in list order
func (r *lessonRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = ? ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		r.logger.Error("failed to query lessons", zap.Int("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			r.logger.Error("failed to scan lesson", zap.Error(err))
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// Append inserts a lesson at the end of its course and sets its id
func (r *lessonRepository) Append(ctx context.Context, lesson *models.Lesson) error {
	query := `
		INSERT INTO lessons (course_id, title, slug, content, video_bucket, video_key, video_location, free_preview, position)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(MAX(position), 0) + 1
		FROM lessons
		WHERE course_id = ?
	`
	bucket, key, location := assetArgs(lesson.Video)
	result, err := r.db.ExecContext(ctx, query,
		lesson.CourseID, lesson.Title, lesson.Slug, lesson.Content,
		bucket, key, location,
		lesson.FreePreview, lesson.CourseID,
	)
	if err != nil {
		r.logger.Error("failed to insert lesson", zap.Int("course_id", lesson.CourseID), zap.Error(err))
		return fmt.Errorf("failed to insert lesson: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	lesson.ID = int(id)

	return nil
}

// GetByID retrieves a lesson by id
func (r *lessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = ?`

	lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.ErrNotFound, "lesson not found")
		}
		r.logger.Error("failed to query lesson", zap.Int("lesson_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to query lesson: %w", err)
	}

	return lesson, nil
}

// Update writes the editable fields of a lesson
func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	query := `
		UPDATE lessons
		SET title = ?, content = ?, video_bucket = ?, video_key = ?, video_location = ?, free_preview = ?
		WHERE id = ? AND course_id = ?
	`
	bucket, key, location := assetArgs(lesson.Video)
	_, err := r.db.ExecContext(ctx, query,
		lesson.Title, lesson.Content,
		bucket, key, location,
		lesson.FreePreview, lesson.ID, lesson.CourseID,
	)
	if err != nil {
		r.logger.Error("failed to update lesson", zap.Int("lesson_id", lesson.ID), zap.Error(err))
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	return nil
}

// Delete removes a lesson from a course. Returns false if the course had no such lesson.
func (r *lessonRepository) Delete(ctx context.Context, courseID, lessonID int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ? AND course_id = ?`, lessonID, courseID)
	if err != nil {
		r.logger.Error("failed to delete lesson", zap.Int("lesson_id", lessonID), zap.Error(err))
		return false, fmt.Errorf("failed to delete lesson: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

// CountByCourse returns the number of lessons in a course
func (r *lessonRepository) CountByCourse(ctx context.Context, courseID int) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons WHERE course_id = ?`, courseID).Scan(&count); err != nil {
		r.logger.Error("failed to count lessons", zap.Int("course_id", courseID), zap.Error(err))
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}
