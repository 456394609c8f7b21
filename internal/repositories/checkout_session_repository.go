package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"go.uber.org/zap"
)

type checkoutSessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCheckoutSessionRepository creates a new checkout session repository
func NewCheckoutSessionRepository(db *sql.DB, logger *zap.Logger) *checkoutSessionRepository {
	return &checkoutSessionRepository{
		db:     db,
		logger: logger,
	}
}

const checkoutColumns = `id, user_id, course_id, session_id, status, amount, currency, created_at, updated_at`

func scanCheckoutSession(row rowScanner) (*models.CheckoutSession, error) {
	var s models.CheckoutSession
	err := row.Scan(&s.ID, &s.UserID, &s.CourseID, &s.SessionID, &s.Status, &s.Amount, &s.Currency, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a pending checkout session and sets its id
func (r *checkoutSessionRepository) Create(ctx context.Context, session *models.CheckoutSession) error {
	query := `
		INSERT INTO checkout_sessions (user_id, course_id, session_id, status, amount, currency)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		session.UserID, session.CourseID, session.SessionID, models.CheckoutPending, session.Amount, session.Currency,
	)
	if err != nil {
		r.logger.Error("failed to insert checkout session", zap.String("session_id", session.SessionID), zap.Error(err))
		return fmt.Errorf("failed to insert checkout session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	session.ID = int(id)
	session.Status = models.CheckoutPending

	return nil
}

// GetLatestPending retrieves the newest pending session of a user for a course
func (r *checkoutSessionRepository) GetLatestPending(ctx context.Context, userID, courseID int) (*models.CheckoutSession, error) {
	query := `
		SELECT ` + checkoutColumns + `
		FROM checkout_sessions
		WHERE user_id = ? AND course_id = ? AND status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	session, err := scanCheckoutSession(r.db.QueryRowContext(ctx, query, userID, courseID, models.CheckoutPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.ErrNotFound, "no pending checkout session")
		}
		r.logger.Error("failed to query checkout session", zap.Int("user_id", userID), zap.Int("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to query checkout session: %w", err)
	}
	return session, nil
}

// ListPendingBefore retrieves up to limit pending sessions created before the given time, oldest first
func (r *checkoutSessionRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.CheckoutSession, error) {
	query := `
		SELECT ` + checkoutColumns + `
		FROM checkout_sessions
		WHERE status = ? AND created_at < ?
		ORDER BY created_at, id
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, models.CheckoutPending, before, limit)
	if err != nil {
		r.logger.Error("failed to query pending checkout sessions", zap.Error(err))
		return nil, fmt.Errorf("failed to query pending checkout sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.CheckoutSession, 0)
	for rows.Next() {
		session, err := scanCheckoutSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkout session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sessions, nil
}

// MarkPaid settles a pending session and enrols its user in one transaction.
// A session already settled by a concurrent caller is left unchanged.
func (r *checkoutSessionRepository) MarkPaid(ctx context.Context, session *models.CheckoutSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE checkout_sessions SET status = ? WHERE id = ? AND status = ?`
	if _, err := tx.ExecContext(ctx, query, models.CheckoutPaid, session.ID, models.CheckoutPending); err != nil {
		r.logger.Error("failed to mark checkout session paid", zap.Int("id", session.ID), zap.Error(err))
		return fmt.Errorf("failed to mark checkout session paid: %w", err)
	}

	enrol := `INSERT IGNORE INTO user_courses (user_id, course_id) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, enrol, session.UserID, session.CourseID); err != nil {
		r.logger.Error("failed to add enrolment", zap.Int("id", session.ID), zap.Error(err))
		return fmt.Errorf("failed to add enrolment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	session.Status = models.CheckoutPaid
	return nil
}

// MarkExpired closes a pending session that can no longer be paid
func (r *checkoutSessionRepository) MarkExpired(ctx context.Context, id int) error {
	query := `UPDATE checkout_sessions SET status = ? WHERE id = ? AND status = ?`
	if _, err := r.db.ExecContext(ctx, query, models.CheckoutExpired, id, models.CheckoutPending); err != nil {
		r.logger.Error("failed to mark checkout session expired", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark checkout session expired: %w", err)
	}
	return nil
}
