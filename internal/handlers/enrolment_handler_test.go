package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/middleware"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEnrolmentService is a mock implementation of EnrolmentService and EnrolmentChecker
type mockEnrolmentService struct {
	course     *models.Course
	err        error
	settlement *models.SettlementResult
	sessionID  string
	enrolled   map[int]bool

	userID   int
	courseID int
}

func (m *mockEnrolmentService) CheckEnrolment(ctx context.Context, userID, courseID int) (*models.EnrolmentStatus, error) {
	m.userID, m.courseID = userID, courseID
	if m.err != nil {
		return nil, m.err
	}
	return &models.EnrolmentStatus{Status: m.enrolled[userID], Course: m.course}, nil
}

func (m *mockEnrolmentService) FreeEnrolment(ctx context.Context, userID, courseID int) (*models.EnrolmentResult, error) {
	m.userID, m.courseID = userID, courseID
	if m.err != nil {
		return nil, m.err
	}
	return &models.EnrolmentResult{Message: "enrolled", Course: m.course}, nil
}

func (m *mockEnrolmentService) PaidEnrolment(ctx context.Context, userID, courseID int) (string, error) {
	m.userID, m.courseID = userID, courseID
	return m.sessionID, m.err
}

func (m *mockEnrolmentService) StripeSuccess(ctx context.Context, userID, courseID int) (*models.SettlementResult, error) {
	m.userID, m.courseID = userID, courseID
	return m.settlement, m.err
}

func (m *mockEnrolmentService) UserCourses(ctx context.Context, userID int) ([]models.Course, error) {
	m.userID = userID
	return []models.Course{*m.course}, m.err
}

func (m *mockEnrolmentService) HasAccess(ctx context.Context, userID int, slug string) (bool, error) {
	if slug != m.course.Slug {
		return false, errs.New(errs.ErrNotFound, "course not found")
	}
	return m.enrolled[userID], nil
}

func newEnrolmentTestRouter(svc *mockEnrolmentService) http.Handler {
	courses := &mockCourseService{course: svc.course}
	h := NewEnrolmentHandler(svc, courses, testLogger())
	enrolledMiddleware := middleware.EnrolledMiddleware(svc, testLogger())
	return newTestRouter(func(r chi.Router, authMiddleware Middleware) {
		h.RegisterRoutes(r, authMiddleware, enrolledMiddleware)
	})
}

func newMockEnrolmentService() *mockEnrolmentService {
	return &mockEnrolmentService{
		course:   &models.Course{ID: 3, Slug: "go-basics", Paid: true},
		enrolled: map[int]bool{1: true},
	}
}

func TestEnrolmentHandler_CheckEnrolment(t *testing.T) {
	svc := newMockEnrolmentService()
	router := newEnrolmentTestRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/api/check-enrolment/3", nil, 1)

	require.Equal(t, http.StatusOK, w.Code)
	var body models.EnrolmentStatus
	decodeBody(t, w, &body)
	assert.True(t, body.Status)
	assert.Equal(t, 3, body.Course.ID)
	assert.Equal(t, 3, svc.courseID)
}

func TestEnrolmentHandler_FreeEnrolmentOnPaidCourse(t *testing.T) {
	svc := newMockEnrolmentService()
	svc.err = errs.New(errs.ErrValidation, "course is not free")
	router := newEnrolmentTestRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/api/free-enrolment/3", nil, 2)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "course is not free", errorMessage(t, w))
}

func TestEnrolmentHandler_PaidEnrolment(t *testing.T) {
	svc := newMockEnrolmentService()
	svc.sessionID = "cs_test_1"
	router := newEnrolmentTestRouter(svc)

	w := doRequest(t, router, http.MethodPost, "/api/paid-enrolment/3", nil, 2)

	require.Equal(t, http.StatusOK, w.Code)
	var id string
	decodeBody(t, w, &id)
	assert.Equal(t, "cs_test_1", id)
	assert.Equal(t, 2, svc.userID)
}

func TestEnrolmentHandler_StripeSuccess(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		svc := newMockEnrolmentService()
		svc.settlement = &models.SettlementResult{Success: true, Course: svc.course}
		router := newEnrolmentTestRouter(svc)

		w := doRequest(t, router, http.MethodGet, "/api/stripe-success/3", nil, 2)

		require.Equal(t, http.StatusOK, w.Code)
		var body models.SettlementResult
		decodeBody(t, w, &body)
		assert.True(t, body.Success)
	})

	t.Run("unsettled omits course", func(t *testing.T) {
		svc := newMockEnrolmentService()
		svc.settlement = &models.SettlementResult{Success: false}
		router := newEnrolmentTestRouter(svc)

		w := doRequest(t, router, http.MethodGet, "/api/stripe-success/3", nil, 2)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":false}`, w.Body.String())
	})

	t.Run("no pending session", func(t *testing.T) {
		svc := newMockEnrolmentService()
		svc.err = errs.New(errs.ErrValidation, "no pending checkout session")
		router := newEnrolmentTestRouter(svc)

		w := doRequest(t, router, http.MethodGet, "/api/stripe-success/3", nil, 2)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEnrolmentHandler_ReadEnrolledCourse(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		userID         int
		expectedStatus int
	}{
		{name: "enrolled", path: "/api/user/course/go-basics", userID: 1, expectedStatus: http.StatusOK},
		{name: "not enrolled", path: "/api/user/course/go-basics", userID: 2, expectedStatus: http.StatusForbidden},
		{name: "anonymous", path: "/api/user/course/go-basics", expectedStatus: http.StatusUnauthorized},
		{name: "missing course", path: "/api/user/course/rust", userID: 1, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newEnrolmentTestRouter(newMockEnrolmentService())

			w := doRequest(t, router, http.MethodGet, tt.path, nil, tt.userID)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestEnrolmentHandler_UserCourses(t *testing.T) {
	svc := newMockEnrolmentService()
	router := newEnrolmentTestRouter(svc)

	w := doRequest(t, router, http.MethodGet, "/api/user-courses", nil, 1)

	require.Equal(t, http.StatusOK, w.Code)
	var courses []models.Course
	decodeBody(t, w, &courses)
	assert.Len(t, courses, 1)
}
