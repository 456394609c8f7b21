package services

import (
	"context"
	"errors"
	"testing"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/faheemkodi/lms-server/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type enrolmentFixture struct {
	courses    *mockCourseRepository
	enrolments *mockEnrolmentRepository
	sessions   *mockCheckoutSessionRepository
	users      *mockUserRepository
	gateway    *mockGateway
	svc        *enrolmentService
}

func newEnrolmentFixture() *enrolmentFixture {
	logger, _ := zap.NewDevelopment()
	f := &enrolmentFixture{
		courses:    &mockCourseRepository{courses: sampleCourses()},
		enrolments: newMockEnrolmentRepository(),
		sessions:   &mockCheckoutSessionRepository{},
		users: &mockUserRepository{users: map[int]*models.User{
			1:  {ID: 1, Email: "student@example.com"},
			10: {ID: 10, Email: "ann@example.com", StripeAccountID: "acct_ann"},
			20: {ID: 20, Email: "bob@example.com"},
		}},
		gateway: &mockGateway{},
	}
	f.svc = NewEnrolmentService(f.courses, f.enrolments, f.sessions, f.users, f.gateway, CheckoutConfig{
		Currency:   "inr",
		FeePercent: 30,
		SuccessURL: "http://localhost:3000/stripe/success",
		CancelURL:  "http://localhost:3000/stripe/cancel",
	}, logger)
	return f
}

func TestEnrolmentService_CheckEnrolment(t *testing.T) {
	f := newEnrolmentFixture()
	ctx := context.Background()

	status, err := f.svc.CheckEnrolment(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, status.Status)
	assert.Equal(t, "go-basics", status.Course.Slug)

	f.enrolments.enrolled[[2]int{1, 1}] = true
	status, err = f.svc.CheckEnrolment(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, status.Status)

	_, err = f.svc.CheckEnrolment(ctx, 1, 99)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEnrolmentService_HasAccess(t *testing.T) {
	f := newEnrolmentFixture()
	ctx := context.Background()

	ok, err := f.svc.HasAccess(ctx, 1, "go-basics")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.HasAccess(ctx, 10, "go-basics")
	require.NoError(t, err)
	assert.True(t, ok, "owner always has access")

	f.enrolments.enrolled[[2]int{1, 1}] = true
	ok, err = f.svc.HasAccess(ctx, 1, "go-basics")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.HasAccess(ctx, 1, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEnrolmentService_FreeEnrolment(t *testing.T) {
	t.Run("free course", func(t *testing.T) {
		f := newEnrolmentFixture()

		res, err := f.svc.FreeEnrolment(context.Background(), 1, 1)
		require.NoError(t, err)
		assert.NotEmpty(t, res.Message)
		assert.Equal(t, 1, res.Course.ID)
		assert.True(t, f.enrolments.enrolled[[2]int{1, 1}])
	})

	t.Run("paid course is a no-op", func(t *testing.T) {
		f := newEnrolmentFixture()

		_, err := f.svc.FreeEnrolment(context.Background(), 1, 2)
		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.Empty(t, f.enrolments.enrolled)
	})
}

func TestEnrolmentService_PaidEnrolment(t *testing.T) {
	t.Run("creates checkout and persists pending session", func(t *testing.T) {
		f := newEnrolmentFixture()

		id, err := f.svc.PaidEnrolment(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", id)

		req := f.gateway.checkoutReq
		assert.Equal(t, int64(999), req.Amount)
		assert.Equal(t, int64(299), req.ApplicationFee)
		assert.Equal(t, "acct_ann", req.DestinationAccount)
		assert.Equal(t, "inr", req.Currency)
		assert.Equal(t, "student@example.com", req.CustomerEmail)
		assert.Equal(t, "http://localhost:3000/stripe/success/2", req.SuccessURL)

		require.NotNil(t, f.sessions.created)
		assert.Equal(t, "cs_test_1", f.sessions.created.SessionID)
		assert.Equal(t, int64(999), f.sessions.created.Amount)
	})

	t.Run("free course is a no-op", func(t *testing.T) {
		f := newEnrolmentFixture()

		_, err := f.svc.PaidEnrolment(context.Background(), 1, 1)
		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.Nil(t, f.sessions.created)
	})

	t.Run("instructor without payout account", func(t *testing.T) {
		f := newEnrolmentFixture()
		f.users.users[10].StripeAccountID = ""

		_, err := f.svc.PaidEnrolment(context.Background(), 1, 2)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("gateway failure", func(t *testing.T) {
		f := newEnrolmentFixture()
		f.gateway.err = errs.Upstream("create checkout session", errors.New("boom"))

		_, err := f.svc.PaidEnrolment(context.Background(), 1, 2)
		assert.ErrorIs(t, err, errs.ErrUpstream)
		assert.Nil(t, f.sessions.created)
	})
}

func TestEnrolmentService_StripeSuccess(t *testing.T) {
	pending := func() *models.CheckoutSession {
		return &models.CheckoutSession{ID: 5, UserID: 1, CourseID: 2, SessionID: "cs_test_1", Status: models.CheckoutPending}
	}

	tests := []struct {
		name           string
		pending        *models.CheckoutSession
		remote         *payments.CheckoutSession
		gatewayErr     error
		expectedKind   error
		expectedResult bool
		expectPaid     bool
		expectExpired  bool
	}{
		{name: "paid", pending: pending(), remote: &payments.CheckoutSession{Paid: true}, expectedResult: true, expectPaid: true},
		{name: "unpaid", pending: pending(), remote: &payments.CheckoutSession{}},
		{name: "expired", pending: pending(), remote: &payments.CheckoutSession{Expired: true}, expectExpired: true},
		{name: "upstream error", pending: pending(), gatewayErr: errs.Upstream("retrieve checkout session", errors.New("boom"))},
		{name: "no pending session", expectedKind: errs.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEnrolmentFixture()
			f.sessions.pending = tt.pending
			f.gateway.remote = tt.remote
			f.gateway.err = tt.gatewayErr

			res, err := f.svc.StripeSuccess(context.Background(), 1, 2)

			if tt.expectedKind != nil {
				assert.ErrorIs(t, err, tt.expectedKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, res.Success)
			if tt.expectedResult {
				assert.Equal(t, 2, res.Course.ID)
			}
			assert.Equal(t, tt.expectPaid, len(f.sessions.paid) == 1)
			assert.Equal(t, tt.expectExpired, len(f.sessions.expired) == 1)
		})
	}
}

func TestEnrolmentService_StripeSuccess_AlreadySettled(t *testing.T) {
	f := newEnrolmentFixture()
	ctx := context.Background()
	f.sessions.pending = &models.CheckoutSession{ID: 5, UserID: 1, CourseID: 2, SessionID: "cs_test_1", Status: models.CheckoutPending}
	f.gateway.remote = &payments.CheckoutSession{Paid: true}

	// A background pass settles the session before the buyer lands on the success page
	status, err := f.svc.SettlePending(ctx, f.sessions.pending)
	require.NoError(t, err)
	require.Equal(t, models.CheckoutPaid, status)
	f.sessions.pending = nil
	f.enrolments.enrolled[[2]int{1, 2}] = true

	res, err := f.svc.StripeSuccess(ctx, 1, 2)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Course.ID)
	assert.Len(t, f.sessions.paid, 1)
}

func TestEnrolmentService_SettlePending(t *testing.T) {
	tests := []struct {
		name           string
		remote         *payments.CheckoutSession
		gatewayErr     error
		expectedStatus models.CheckoutStatus
		expectErr      bool
		expectPaid     int
		expectExpired  int
	}{
		{name: "paid", remote: &payments.CheckoutSession{Paid: true}, expectedStatus: models.CheckoutPaid, expectPaid: 1},
		{name: "still open", remote: &payments.CheckoutSession{}, expectedStatus: models.CheckoutPending},
		{name: "expired", remote: &payments.CheckoutSession{Expired: true}, expectedStatus: models.CheckoutExpired, expectExpired: 1},
		{name: "unknown to processor", gatewayErr: errs.New(errs.ErrNotFound, "checkout session cs_old not found"), expectedStatus: models.CheckoutExpired, expectExpired: 1},
		{name: "processor unavailable", gatewayErr: errs.Upstream("retrieve checkout session", errors.New("timeout")), expectedStatus: models.CheckoutPending, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEnrolmentFixture()
			f.gateway.remote = tt.remote
			f.gateway.err = tt.gatewayErr
			session := &models.CheckoutSession{ID: 9, UserID: 1, CourseID: 2, SessionID: "cs_old", Status: models.CheckoutPending}

			status, err := f.svc.SettlePending(context.Background(), session)

			if tt.expectErr {
				assert.ErrorIs(t, err, errs.ErrUpstream)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectedStatus, status)
			assert.Len(t, f.sessions.paid, tt.expectPaid)
			assert.Len(t, f.sessions.expired, tt.expectExpired)
		})
	}
}

func TestEnrolmentService_UserCourses(t *testing.T) {
	f := newEnrolmentFixture()

	courses, err := f.svc.UserCourses(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, courses, 3)
}
