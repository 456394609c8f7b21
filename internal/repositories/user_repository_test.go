package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupMockDB creates a mock database and a development logger
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *zap.Logger) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	return db, mock, logger
}

func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, logger := setupMockDB(t)
	return NewUserRepository(db, logger), mock
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "picture", "password_reset_code", "stripe_account_id", "stripe_seller", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectedID    int
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, picture)")).
					WithArgs("Ryan", "ryan@example.com", "hash", "/avatar.png").
					WillReturnResult(sqlmock.NewResult(7, 1))
				mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO user_roles (user_id, role)")).
					WithArgs(7, models.RoleSubscriber).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedID: 7,
		},
		{
			name: "duplicate email",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
				mock.ExpectRollback()
			},
			expectedError: errs.ErrConflict,
		},
		{
			name: "role insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
					WillReturnResult(sqlmock.NewResult(7, 1))
				mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO user_roles")).
					WillReturnError(errors.New("lock wait timeout"))
				mock.ExpectRollback()
			},
			expectedError: errors.New("failed to insert user role"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupUserTestRepository(t)
			tt.setupMock(mock)

			user := &models.User{
				Name:         "Ryan",
				Email:        "ryan@example.com",
				PasswordHash: "hash",
				Picture:      "/avatar.png",
				Roles:        []models.Role{models.RoleSubscriber},
			}
			err := repo.Create(context.Background(), user)

			switch {
			case tt.expectedError == nil:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, user.ID)
			case errors.Is(tt.expectedError, errs.ErrConflict):
				assert.ErrorIs(t, err, errs.ErrConflict)
			default:
				assert.ErrorContains(t, err, tt.expectedError.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		check         func(t *testing.T, user *models.User)
	}{
		{
			name: "success with roles and seller",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
					WithArgs("ryan@example.com").
					WillReturnRows(sqlmock.NewRows(userRowColumns).
						AddRow(1, "Ryan", "ryan@example.com", "hash", "/avatar.png", "ABC123", "acct_1", []byte(`{"id":"acct_1"}`), now, now))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM user_roles WHERE user_id = ?")).
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Subscriber").AddRow("Instructor"))
			},
			check: func(t *testing.T, user *models.User) {
				assert.Equal(t, 1, user.ID)
				assert.Equal(t, "ABC123", user.PasswordResetCode)
				assert.Equal(t, "acct_1", user.StripeAccountID)
				assert.JSONEq(t, `{"id":"acct_1"}`, string(user.StripeSeller))
				assert.True(t, user.HasRole(models.RoleInstructor))
				assert.True(t, user.HasRole(models.RoleSubscriber))
			},
		},
		{
			name: "success without payout account",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
					WillReturnRows(sqlmock.NewRows(userRowColumns).
						AddRow(2, "Ana", "ryan@example.com", "hash", "/avatar.png", "", nil, nil, now, now))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM user_roles")).
					WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Subscriber"))
			},
			check: func(t *testing.T, user *models.User) {
				assert.Empty(t, user.StripeAccountID)
				assert.Nil(t, user.StripeSeller)
				assert.False(t, user.HasRole(models.RoleInstructor))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: errs.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
					WillReturnError(errors.New("connection refused"))
			},
			expectedError: errors.New("failed to query user"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupUserTestRepository(t)
			tt.setupMock(mock)

			user, err := repo.GetByEmail(context.Background(), "ryan@example.com")

			switch {
			case tt.expectedError == nil:
				require.NoError(t, err)
				tt.check(t, user)
			case errors.Is(tt.expectedError, errs.ErrNotFound):
				assert.ErrorIs(t, err, errs.ErrNotFound)
				assert.Nil(t, user)
			default:
				assert.ErrorContains(t, err, tt.expectedError.Error())
				assert.Nil(t, user)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_HasRole(t *testing.T) {
	repo, mock := setupUserTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id = ? AND role = ?)")).
		WithArgs(4, models.RoleInstructor).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasRole(context.Background(), 4, models.RoleInstructor)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AddRole(t *testing.T) {
	repo, mock := setupUserTestRepository(t)

	// INSERT IGNORE keeps the role set free of duplicates
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO user_roles (user_id, role) VALUES (?, ?)")).
		WithArgs(4, models.RoleInstructor).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddRole(context.Background(), 4, models.RoleInstructor))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo, mock := setupUserTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = ?, password_reset_code = '' WHERE id = ?")).
		WithArgs("new-hash", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), 4, "new-hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetStripeAccountID(t *testing.T) {
	repo, mock := setupUserTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET stripe_account_id = ? WHERE id = ?")).
		WithArgs(sql.NullString{String: "acct_9", Valid: true}, 4).
		WillReturnError(errors.New("deadlock"))

	err := repo.SetStripeAccountID(context.Background(), 4, "acct_9")
	assert.ErrorContains(t, err, "failed to set stripe account id")
	assert.NoError(t, mock.ExpectationsWereMet())
}
