package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/faheemkodi/lms-server/internal/payments"
	"go.uber.org/zap"
)

// EnrolmentCourseRepository defines the course lookups used by enrolment
type EnrolmentCourseRepository interface {
	GetByID(ctx context.Context, id int) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// ListEnrolled retrieves the courses a user is enrolled in
	ListEnrolled(ctx context.Context, userID int) ([]models.Course, error)
}

// EnrolmentRepository defines methods for the enrolment set
type EnrolmentRepository interface {
	// Add enrols a user in a course. Enrolling twice is a no-op.
	Add(ctx context.Context, userID, courseID int) error
	// Exists checks if a user is enrolled in a course
	Exists(ctx context.Context, userID, courseID int) (bool, error)
}

// CheckoutSessionRepository defines methods for persisted checkout sessions
type CheckoutSessionRepository interface {
	// Create persists a new pending session
	Create(ctx context.Context, session *models.CheckoutSession) error
	// GetLatestPending retrieves the newest pending session of a user for a course
	//
	// Returns an error of kind errs.ErrNotFound if there is none.
	GetLatestPending(ctx context.Context, userID, courseID int) (*models.CheckoutSession, error)
	// MarkPaid settles the session and enrols its user atomically
	MarkPaid(ctx context.Context, session *models.CheckoutSession) error
	// MarkExpired closes a session that can no longer be paid
	MarkExpired(ctx context.Context, id int) error
}

// UserLookup retrieves users by id
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// CheckoutGateway defines the hosted checkout operations of the payment processor
type CheckoutGateway interface {
	// CreateCheckoutSession starts a hosted checkout
	CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
	// GetCheckoutSession retrieves the processor-side state of a checkout
	GetCheckoutSession(ctx context.Context, id string) (*payments.CheckoutSession, error)
}

// CheckoutConfig holds the checkout parameters that do not depend on the request
type CheckoutConfig struct {
	Currency string
	// FeePercent is the platform share of every sale, 0..100
	FeePercent int
	// SuccessURL is suffixed with "/<courseId>"
	SuccessURL string
	CancelURL  string
}

type enrolmentService struct {
	courseRepo    EnrolmentCourseRepository
	enrolmentRepo EnrolmentRepository
	sessionRepo   CheckoutSessionRepository
	userRepo      UserLookup
	gateway       CheckoutGateway
	checkout      CheckoutConfig
	logger        *zap.Logger
}

// NewEnrolmentService creates a new enrolment service
func NewEnrolmentService(
	courseRepo EnrolmentCourseRepository,
	enrolmentRepo EnrolmentRepository,
	sessionRepo CheckoutSessionRepository,
	userRepo UserLookup,
	gateway CheckoutGateway,
	checkout CheckoutConfig,
	logger *zap.Logger,
) *enrolmentService {
	return &enrolmentService{
		courseRepo:    courseRepo,
		enrolmentRepo: enrolmentRepo,
		sessionRepo:   sessionRepo,
		userRepo:      userRepo,
		gateway:       gateway,
		checkout:      checkout,
		logger:        logger,
	}
}

// CheckEnrolment reports whether the user is enrolled in the course
func (s *enrolmentService) CheckEnrolment(ctx context.Context, userID, courseID int) (*models.EnrolmentStatus, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrolmentRepo.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	return &models.EnrolmentStatus{Status: enrolled, Course: course}, nil
}

// HasAccess reports whether the user may read the lessons of a course.
// The owning instructor always has access.
func (s *enrolmentService) HasAccess(ctx context.Context, userID int, courseSlug string) (bool, error) {
	course, err := s.courseRepo.GetBySlug(ctx, courseSlug)
	if err != nil {
		return false, err
	}
	if course.InstructorID == userID {
		return true, nil
	}
	return s.enrolmentRepo.Exists(ctx, userID, course.ID)
}

// FreeEnrolment enrols the user in a free course
func (s *enrolmentService) FreeEnrolment(ctx context.Context, userID, courseID int) (*models.EnrolmentResult, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Paid {
		return nil, errs.New(errs.ErrValidation, "course is not free")
	}

	if err := s.enrolmentRepo.Add(ctx, userID, courseID); err != nil {
		return nil, err
	}

	return &models.EnrolmentResult{
		Message: "Congratulations! You have successfully enrolled",
		Course:  course,
	}, nil
}

// PaidEnrolment starts a hosted checkout for a paid course and returns the checkout session id
func (s *enrolmentService) PaidEnrolment(ctx context.Context, userID, courseID int) (string, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if !course.Paid {
		return "", errs.New(errs.ErrValidation, "course is free")
	}

	instructor, err := s.userRepo.GetByID(ctx, course.InstructorID)
	if err != nil {
		return "", fmt.Errorf("failed to load instructor: %w", err)
	}
	if instructor.StripeAccountID == "" {
		return "", errs.New(errs.ErrValidation, "instructor cannot accept payments yet")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	amount := int64(math.Round(course.Price * 100))
	fee := amount * int64(s.checkout.FeePercent) / 100

	remote, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		ProductName:        course.Name,
		Amount:             amount,
		Currency:           s.checkout.Currency,
		ApplicationFee:     fee,
		DestinationAccount: instructor.StripeAccountID,
		CustomerEmail:      user.Email,
		SuccessURL:         fmt.Sprintf("%s/%d", s.checkout.SuccessURL, course.ID),
		CancelURL:          s.checkout.CancelURL,
	})
	if err != nil {
		s.logger.Error("failed to create checkout session", zap.Int("courseId", courseID), zap.Error(err))
		return "", err
	}

	session := &models.CheckoutSession{
		UserID:    userID,
		CourseID:  courseID,
		SessionID: remote.ID,
		Amount:    amount,
		Currency:  s.checkout.Currency,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	return remote.ID, nil
}

// StripeSuccess settles the user's latest pending checkout for the course
//
// Upstream failures are reported as an unsuccessful settlement, not an error.
func (s *enrolmentService) StripeSuccess(ctx context.Context, userID, courseID int) (*models.SettlementResult, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetLatestPending(ctx, userID, courseID)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		// The reconciler may have settled the session before the buyer returned
		enrolled, err := s.enrolmentRepo.Exists(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			return &models.SettlementResult{Success: true, Course: course}, nil
		}
		return nil, errs.New(errs.ErrValidation, "no pending checkout session")
	}

	status, err := s.SettlePending(ctx, session)
	if err != nil {
		if errors.Is(err, errs.ErrUpstream) {
			s.logger.Warn("checkout settlement failed", zap.String("sessionId", session.SessionID), zap.Error(err))
			return &models.SettlementResult{Success: false}, nil
		}
		return nil, err
	}

	if status != models.CheckoutPaid {
		return &models.SettlementResult{Success: false}, nil
	}
	return &models.SettlementResult{Success: true, Course: course}, nil
}

// SettlePending reads a pending session back from the processor and records its outcome
func (s *enrolmentService) SettlePending(ctx context.Context, session *models.CheckoutSession) (models.CheckoutStatus, error) {
	remote, err := s.gateway.GetCheckoutSession(ctx, session.SessionID)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return session.Status, err
		}
		// Unknown to the processor, so it can never be paid
		s.logger.Warn("checkout session missing at processor", zap.String("sessionId", session.SessionID))
		if err := s.sessionRepo.MarkExpired(ctx, session.ID); err != nil {
			return session.Status, err
		}
		session.Status = models.CheckoutExpired
		return models.CheckoutExpired, nil
	}

	switch {
	case remote.Paid:
		if err := s.sessionRepo.MarkPaid(ctx, session); err != nil {
			return session.Status, err
		}
		s.logger.Info("checkout session paid",
			zap.Int("userId", session.UserID),
			zap.Int("courseId", session.CourseID),
			zap.String("sessionId", session.SessionID),
		)
		return models.CheckoutPaid, nil
	case remote.Expired:
		if err := s.sessionRepo.MarkExpired(ctx, session.ID); err != nil {
			return session.Status, err
		}
		session.Status = models.CheckoutExpired
		return models.CheckoutExpired, nil
	default:
		return models.CheckoutPending, nil
	}
}

// UserCourses returns the courses the user is enrolled in
func (s *enrolmentService) UserCourses(ctx context.Context, userID int) ([]models.Course, error) {
	return s.courseRepo.ListEnrolled(ctx, userID)
}
