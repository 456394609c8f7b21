package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/faheemkodi/lms-server/internal/payments"
	"go.uber.org/zap"
)

// InstructorUserRepository defines methods for user data access used by payout onboarding
type InstructorUserRepository interface {
	// Method GetByID retrieves a user by id.
	GetByID(ctx context.Context, id int) (*models.User, error)

	// Method HasRole checks if the role is in the user's role set.
	HasRole(ctx context.Context, userID int, role models.Role) (bool, error)

	// Method AddRole adds the role to the user's role set; adding an existing role is a no-op.
	AddRole(ctx context.Context, userID int, role models.Role) error

	// Method SetStripeAccountID stores the connected payout account of the user.
	SetStripeAccountID(ctx context.Context, userID int, accountID string) error

	// Method SetStripeSeller stores the latest snapshot of the connected payout account.
	SetStripeSeller(ctx context.Context, userID int, seller []byte) error
}

// StudentRepository lists the students of a course
type StudentRepository interface {
	ListUserIDsByCourse(ctx context.Context, courseID int) ([]int, error)
}

// CourseByIDRepository retrieves courses by id
type CourseByIDRepository interface {
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// AccountGateway defines the connected account operations of the payment processor
type AccountGateway interface {
	CreateAccount(ctx context.Context, email string) (string, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetAccount(ctx context.Context, accountID string) (*payments.Account, error)
	GetBalance(ctx context.Context, accountID string) (*models.Balance, error)
	CreateLoginLink(ctx context.Context, accountID string) (string, error)
}

// OnboardingConfig holds the pages the processor sends instructors back to
type OnboardingConfig struct {
	RedirectURL         string
	SettingsRedirectURL string
}

type instructorService struct {
	userRepo    InstructorUserRepository
	courseRepo  CourseByIDRepository
	studentRepo StudentRepository
	gateway     AccountGateway
	onboarding  OnboardingConfig
	logger      *zap.Logger
}

// NewInstructorService creates a new instructor service
func NewInstructorService(
	userRepo InstructorUserRepository,
	courseRepo CourseByIDRepository,
	studentRepo StudentRepository,
	gateway AccountGateway,
	onboarding OnboardingConfig,
	logger *zap.Logger,
) *instructorService {
	return &instructorService{
		userRepo:    userRepo,
		courseRepo:  courseRepo,
		studentRepo: studentRepo,
		gateway:     gateway,
		onboarding:  onboarding,
		logger:      logger,
	}
}

// MakeInstructor ensures the user has a connected payout account and returns its onboarding link
func (s *instructorService) MakeInstructor(ctx context.Context, userID int) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	accountID := user.StripeAccountID
	if accountID == "" {
		accountID, err = s.gateway.CreateAccount(ctx, user.Email)
		if err != nil {
			s.logger.Error("failed to create payout account", zap.Int("userId", userID), zap.Error(err))
			return "", err
		}
		if err := s.userRepo.SetStripeAccountID(ctx, userID, accountID); err != nil {
			return "", err
		}
	}

	link, err := s.gateway.CreateAccountLink(ctx, accountID, s.onboarding.RedirectURL, s.onboarding.RedirectURL)
	if err != nil {
		return "", err
	}

	return withQuery(link, "stripe_user[email]", user.Email)
}

// GetAccountStatus grants the Instructor role once the payout account can accept charges
func (s *instructorService) GetAccountStatus(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeAccountID == "" {
		return nil, errs.New(errs.ErrValidation, "payout account is not set up")
	}

	account, err := s.gateway.GetAccount(ctx, user.StripeAccountID)
	if err != nil {
		return nil, err
	}
	if !account.ChargesEnabled {
		return nil, errs.New(errs.ErrUnauthorized, "unauthorized")
	}

	if err := s.userRepo.SetStripeSeller(ctx, userID, account.Snapshot); err != nil {
		return nil, err
	}
	if err := s.userRepo.AddRole(ctx, userID, models.RoleInstructor); err != nil {
		return nil, err
	}

	s.logger.Info("instructor onboarded", zap.Int("userId", userID))
	return s.userRepo.GetByID(ctx, userID)
}

// HasRole reports whether the user holds the role
func (s *instructorService) HasRole(ctx context.Context, userID int, role models.Role) (bool, error) {
	return s.userRepo.HasRole(ctx, userID, role)
}

// CurrentInstructor fails with errs.ErrForbidden unless the user is an instructor
func (s *instructorService) CurrentInstructor(ctx context.Context, userID int) error {
	ok, err := s.userRepo.HasRole(ctx, userID, models.RoleInstructor)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.ErrForbidden, "forbidden")
	}
	return nil
}

// StudentCount returns the ids of the users enrolled in a course owned by the caller
func (s *instructorService) StudentCount(ctx context.Context, callerID, courseID int) ([]int, error) {
	if courseID <= 0 {
		return nil, errs.New(errs.ErrValidation, "courseId is required")
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != callerID {
		return nil, errs.New(errs.ErrForbidden, "unauthorized")
	}

	return s.studentRepo.ListUserIDsByCourse(ctx, courseID)
}

// Balance returns the balance of the caller's payout account
func (s *instructorService) Balance(ctx context.Context, userID int) (*models.Balance, error) {
	accountID, err := s.accountID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.gateway.GetBalance(ctx, accountID)
}

// PayoutSettings returns a dashboard login link for the caller's payout account
func (s *instructorService) PayoutSettings(ctx context.Context, userID int) (string, error) {
	accountID, err := s.accountID(ctx, userID)
	if err != nil {
		return "", err
	}

	link, err := s.gateway.CreateLoginLink(ctx, accountID)
	if err != nil {
		return "", err
	}

	return withQuery(link, "redirect_url", s.onboarding.SettingsRedirectURL)
}

func (s *instructorService) accountID(ctx context.Context, userID int) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeAccountID == "" {
		return "", errs.New(errs.ErrValidation, "payout account is not set up")
	}
	return user.StripeAccountID, nil
}

func withQuery(link, key, value string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid link from payment processor: %w", err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
