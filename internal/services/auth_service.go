package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/faheemkodi/lms-server/internal/auth"
	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/mailer"
	"github.com/faheemkodi/lms-server/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPicture    = "/avatar.png"
	minPasswordLength = 8
	// bcrypt rejects longer input
	maxPasswordBytes  = 72
	resetCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	resetCodeLength   = 6
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserRepository defines methods for user data access used by authentication
type UserRepository interface {
	// Method Create inserts a new user together with its role set.
	//
	// "user" parameter is used to create a new user; its ID is filled in on success.
	//
	// If a user with the same email already exists, an error will be returned.
	Create(ctx context.Context, user *models.User) error

	// Method GetByID retrieves a user by id.
	//
	// "id" parameter is the user id.
	//
	// If the user is not found, an error of kind errs.ErrNotFound will be returned.
	GetByID(ctx context.Context, id int) (*models.User, error)

	// Method GetByEmail retrieves a user by email.
	//
	// "email" parameter is the normalized email.
	//
	// If the user is not found, an error of kind errs.ErrNotFound will be returned.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Method ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Method SetPasswordResetCode stores a password reset code on the user.
	SetPasswordResetCode(ctx context.Context, userID int, code string) error

	// Method UpdatePassword replaces the password hash and clears the reset code.
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

// EmailQueue defines the hand-over of emails to the worker
type EmailQueue interface {
	// Method EnqueueEmail schedules the message for asynchronous delivery.
	EnqueueEmail(ctx context.Context, msg mailer.Message) error
}

type authService struct {
	userRepo       UserRepository
	tokenGenerator *auth.TokenGenerator
	emailQueue     EmailQueue
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, tokenGenerator *auth.TokenGenerator, emailQueue EmailQueue, logger *zap.Logger) *authService {
	return &authService{
		userRepo:       userRepo,
		tokenGenerator: tokenGenerator,
		emailQueue:     emailQueue,
		logger:         logger,
	}
}

// Register creates a new subscriber account
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) error {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if name == "" {
		return errs.New(errs.ErrValidation, "name is required")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if !emailRegex.MatchString(email) {
		return errs.New(errs.ErrValidation, "invalid email format")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return errs.New(errs.ErrConflict, "email is taken")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Picture:      defaultPicture,
		Roles:        []models.Role{models.RoleSubscriber},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("user registered", zap.Int("userId", user.ID))
	return nil
}

// Login verifies credentials and issues a session token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", errs.New(errs.ErrValidation, "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, "", errs.New(errs.ErrValidation, "user not found")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", errs.New(errs.ErrValidation, "wrong password")
	}

	token, err := s.tokenGenerator.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// CurrentUser loads the user behind a session
func (s *authService) CurrentUser(ctx context.Context, userID int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ForgotPassword stores a fresh reset code on the user and queues the reset email
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return errs.New(errs.ErrValidation, "email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.New(errs.ErrValidation, "user not found")
		}
		return err
	}

	code, err := gonanoid.Generate(resetCodeAlphabet, resetCodeLength)
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	if err := s.userRepo.SetPasswordResetCode(ctx, user.ID, code); err != nil {
		return err
	}

	msg, err := mailer.ResetPasswordMessage(user.Email, code)
	if err != nil {
		return err
	}
	if err := s.emailQueue.EnqueueEmail(ctx, msg); err != nil {
		s.logger.Error("failed to enqueue reset email", zap.Int("userId", user.ID), zap.Error(err))
		return errs.Upstream("enqueue reset email", err)
	}

	return nil
}

// ResetPassword sets a new password when the code matches the stored one
func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" {
		return errs.New(errs.ErrValidation, "email and code are required")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.New(errs.ErrValidation, "invalid reset code")
		}
		return err
	}

	// An empty stored code means no reset was requested
	if user.PasswordResetCode == "" || user.PasswordResetCode != code {
		return errs.New(errs.ErrValidation, "invalid reset code")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, user.ID, string(passwordHash))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errs.New(errs.ErrValidation, "password is required and should be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return errs.New(errs.ErrValidation, "password must be at most %d bytes long", maxPasswordBytes)
	}
	return nil
}
