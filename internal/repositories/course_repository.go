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

type courseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB, logger *zap.Logger) *courseRepository {
	return &courseRepository{
		db:     db,
		logger: logger,
	}
}

// courseSelect joins the instructor so every course carries its {id, name} projection
const courseSelect = `
	SELECT c.id, c.name, c.slug, c.description, c.price,
		c.image_bucket, c.image_key, c.image_location,
		c.category, c.published, c.paid, c.instructor_id, u.name,
		c.created_at, c.updated_at
	FROM courses c
	JOIN users u ON u.id = c.instructor_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var (
		course models.Course
		image  assetColumns
	)
	err := row.Scan(
		&course.ID,
		&course.Name,
		&course.Slug,
		&course.Description,
		&course.Price,
		&image.bucket,
		&image.key,
		&image.location,
		&course.Category,
		&course.Published,
		&course.Paid,
		&course.InstructorID,
		&course.Instructor.Name,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	course.Image = image.asset()
	course.Instructor.ID = course.InstructorID
	return &course, nil
}

// Create inserts a course and sets its id
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (name, slug, description, price, image_bucket, image_key, image_location, category, paid, instructor_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	bucket, key, location := assetArgs(course.Image)
	result, err := r.db.ExecContext(ctx, query,
		course.Name, course.Slug, course.Description, course.Price,
		bucket, key, location,
		course.Category, course.Paid, course.InstructorID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return errs.New(errs.ErrConflict, "course name already exists, please try another one")
		}
		r.logger.Error("failed to insert course", zap.String("slug", course.Slug), zap.Error(err))
		return fmt.Errorf("failed to insert course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	course.ID = int(id)

	return nil
}

// GetBySlug retrieves a course by slug without its lessons
func (r *courseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return r.getOne(ctx, courseSelect+` WHERE c.slug = ?`, slug)
}

// GetByID retrieves a course by id without its lessons
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	return r.getOne(ctx, courseSelect+` WHERE c.id = ?`, id)
}

func (r *courseRepository) getOne(ctx context.Context, query string, arg any) (*models.Course, error) {
	course, err := scanCourse(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.ErrNotFound, "course not found")
		}
		r.logger.Error("failed to query course", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to query course: %w", err)
	}
	return course, nil
}

// ExistsBySlug checks if a course with the given slug exists
func (r *courseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE slug = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		r.logger.Error("failed to check slug existence", zap.String("slug", slug), zap.Error(err))
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}

	return exists, nil
}

// Update writes the editable fields of a course
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET name = ?, description = ?, price = ?, image_bucket = ?, image_key = ?, image_location = ?, category = ?, paid = ?
		WHERE id = ?
	`
	bucket, key, location := assetArgs(course.Image)
	_, err := r.db.ExecContext(ctx, query,
		course.Name, course.Description, course.Price,
		bucket, key, location,
		course.Category, course.Paid, course.ID,
	)
	if err != nil {
		r.logger.Error("failed to update course", zap.Int("course_id", course.ID), zap.Error(err))
		return fmt.Errorf("failed to update course: %w", err)
	}

	return nil
}

// SetPublished sets the published flag of a course
func (r *courseRepository) SetPublished(ctx context.Context, id int, published bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE courses SET published = ? WHERE id = ?`, published, id); err != nil {
		r.logger.Error("failed to set published flag", zap.Int("course_id", id), zap.Error(err))
		return fmt.Errorf("failed to set published flag: %w", err)
	}
	return nil
}

// ListPublished retrieves all published courses
func (r *courseRepository) ListPublished(ctx context.Context) ([]models.Course, error) {
	return r.list(ctx, courseSelect+` WHERE c.published = TRUE ORDER BY c.created_at DESC, c.id DESC`)
}

// ListByInstructor retrieves the courses of an instructor, newest first
func (r *courseRepository) ListByInstructor(ctx context.Context, instructorID int) ([]models.Course, error) {
	return r.list(ctx, courseSelect+` WHERE c.instructor_id = ? ORDER BY c.created_at DESC, c.id DESC`, instructorID)
}

// ListEnrolled retrieves the courses a user is enrolled in
func (r *courseRepository) ListEnrolled(ctx context.Context, userID int) ([]models.Course, error) {
	query := courseSelect + `
		JOIN user_courses uc ON uc.course_id = c.id
		WHERE uc.user_id = ?
		ORDER BY uc.created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *courseRepository) list(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query courses", zap.Error(err))
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			r.logger.Error("failed to scan course", zap.Error(err))
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *course)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}
