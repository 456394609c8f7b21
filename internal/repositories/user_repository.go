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

type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, name, email, password_hash, picture, password_reset_code, stripe_account_id, stripe_seller, created_at, updated_at`

// Create inserts a user together with its role set
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (name, email, password_hash, picture)
		VALUES (?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.Picture)
	if err != nil {
		if isDuplicateKey(err) {
			return errs.New(errs.ErrConflict, "email is taken")
		}
		r.logger.Error("failed to insert user", zap.Error(err))
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = int(id)

	for _, role := range user.Roles {
		if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, user.ID, role); err != nil {
			r.logger.Error("failed to insert user role", zap.Int("user_id", user.ID), zap.Error(err))
			return fmt.Errorf("failed to insert user role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.getOne(ctx, query, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user      models.User
		accountID sql.NullString
		seller    []byte
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Picture,
		&user.PasswordResetCode,
		&accountID,
		&seller,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.ErrNotFound, "user not found")
		}
		r.logger.Error("failed to query user", zap.Error(err))
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.StripeAccountID = accountID.String
	user.StripeSeller = seller

	roles, err := r.roles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

func (r *userRepository) roles(ctx context.Context, userID int) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role DESC`, userID)
	if err != nil {
		r.logger.Error("failed to query user roles", zap.Int("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	roles := make([]models.Role, 0, 2)
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan user role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return roles, nil
}

// ExistsByEmail checks if a user with the given email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// HasRole reports whether the role set of the user contains role
func (r *userRepository) HasRole(ctx context.Context, userID int, role models.Role) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id = ? AND role = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, role).Scan(&exists); err != nil {
		r.logger.Error("failed to check user role", zap.Int("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("failed to check user role: %w", err)
	}

	return exists, nil
}

// AddRole adds role to the user's role set, keeping it free of duplicates
func (r *userRepository) AddRole(ctx context.Context, userID int, role models.Role) error {
	if _, err := r.db.ExecContext(ctx, `INSERT IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, userID, role); err != nil {
		r.logger.Error("failed to add user role", zap.Int("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to add user role: %w", err)
	}
	return nil
}

// SetPasswordResetCode stores a reset code for the user
func (r *userRepository) SetPasswordResetCode(ctx context.Context, userID int, code string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET password_reset_code = ? WHERE id = ?`, code, userID); err != nil {
		r.logger.Error("failed to set password reset code", zap.Int("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to set password reset code: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash and clears the reset code
func (r *userRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, password_reset_code = '' WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, passwordHash, userID); err != nil {
		r.logger.Error("failed to update password", zap.Int("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SetStripeAccountID stores the connected payout account of the user
func (r *userRepository) SetStripeAccountID(ctx context.Context, userID int, accountID string) error {
	query := `UPDATE users SET stripe_account_id = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, nullString(accountID), userID); err != nil {
		r.logger.Error("failed to set stripe account id", zap.Int("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to set stripe account id: %w", err)
	}
	return nil
}

// SetStripeSeller stores the JSON snapshot of the connected account
func (r *userRepository) SetStripeSeller(ctx context.Context, userID int, seller []byte) error {
	query := `UPDATE users SET stripe_seller = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, seller, userID); err != nil {
		r.logger.Error("failed to set stripe seller", zap.Int("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to set stripe seller: %w", err)
	}
	return nil
}
