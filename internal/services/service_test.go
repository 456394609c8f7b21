package services

import (
	"context"
	"io"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/mailer"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/faheemkodi/lms-server/internal/payments"
)

// mockUserRepository is a mock implementation of the user repositories
type mockUserRepository struct {
	users       map[int]*models.User
	err         error
	existsEmail bool
	createErr   error

	created     *models.User
	resetCode   string
	updatedHash string
	addedRoles  []models.Role
	accountID   string
	seller      []byte
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 1
	m.created = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errs.New(errs.ErrNotFound, "user not found")
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errs.New(errs.ErrNotFound, "user not found")
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existsEmail, nil
}

func (m *mockUserRepository) SetPasswordResetCode(ctx context.Context, userID int, code string) error {
	m.resetCode = code
	return m.err
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	m.updatedHash = passwordHash
	return m.err
}

func (m *mockUserRepository) HasRole(ctx context.Context, userID int, role models.Role) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	u, ok := m.users[userID]
	return ok && u.HasRole(role), nil
}

func (m *mockUserRepository) AddRole(ctx context.Context, userID int, role models.Role) error {
	m.addedRoles = append(m.addedRoles, role)
	return m.err
}

func (m *mockUserRepository) SetStripeAccountID(ctx context.Context, userID int, accountID string) error {
	m.accountID = accountID
	return m.err
}

func (m *mockUserRepository) SetStripeSeller(ctx context.Context, userID int, seller []byte) error {
	m.seller = seller
	return m.err
}

// mockEmailQueue is a mock implementation of EmailQueue
type mockEmailQueue struct {
	messages []mailer.Message
	err      error
}

func (m *mockEmailQueue) EnqueueEmail(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	bucket  string
	objects map[string][]byte
	err     error
	deleted []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{bucket: "media", objects: map[string][]byte{}}
}

func (m *mockStorage) Bucket() string {
	return m.bucket
}

func (m *mockStorage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*models.Asset, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	m.objects[key] = data
	return &models.Asset{Bucket: m.bucket, Key: key, Location: "https://cdn.test/" + key, ContentType: contentType}, nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, key)
	return nil
}

// mockCourseRepository is a mock implementation of the course repositories
type mockCourseRepository struct {
	courses    []*models.Course
	err        error
	slugExists bool

	created        *models.Course
	updated        *models.Course
	published      map[int]bool
	listPublishedN int
}

func (m *mockCourseRepository) find(match func(*models.Course) bool) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.courses {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errs.New(errs.ErrNotFound, "course not found")
}

func (m *mockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if m.err != nil {
		return m.err
	}
	course.ID = len(m.courses) + 1
	m.created = course
	m.courses = append(m.courses, course)
	return nil
}

func (m *mockCourseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return m.find(func(c *models.Course) bool { return c.Slug == slug })
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	return m.find(func(c *models.Course) bool { return c.ID == id })
}

func (m *mockCourseRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return m.slugExists, m.err
}

func (m *mockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	m.updated = course
	return m.err
}

func (m *mockCourseRepository) SetPublished(ctx context.Context, id int, published bool) error {
	if m.published == nil {
		m.published = map[int]bool{}
	}
	m.published[id] = published
	return m.err
}

func (m *mockCourseRepository) ListPublished(ctx context.Context) ([]models.Course, error) {
	m.listPublishedN++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Course, 0)
	for _, c := range m.courses {
		if c.Published {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCourseRepository) ListByInstructor(ctx context.Context, instructorID int) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Course, 0)
	for _, c := range m.courses {
		if c.InstructorID == instructorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCourseRepository) ListEnrolled(ctx context.Context, userID int) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, *c)
	}
	return out, nil
}

// mockLessonRepository is a mock implementation of the lesson repositories
type mockLessonRepository struct {
	lessons  []*models.Lesson
	err      error
	appended *models.Lesson
	updated  *models.Lesson
}

func (m *mockLessonRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Lesson, 0)
	for _, l := range m.lessons {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLessonRepository) Append(ctx context.Context, lesson *models.Lesson) error {
	if m.err != nil {
		return m.err
	}
	lesson.ID = len(m.lessons) + 1
	lesson.Position = len(m.lessons) + 1
	m.appended = lesson
	m.lessons = append(m.lessons, lesson)
	return nil
}

func (m *mockLessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, l := range m.lessons {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, errs.New(errs.ErrNotFound, "lesson not found")
}

func (m *mockLessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	m.updated = lesson
	return m.err
}

func (m *mockLessonRepository) Delete(ctx context.Context, courseID, lessonID int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for i, l := range m.lessons {
		if l.ID == lessonID && l.CourseID == courseID {
			m.lessons = append(m.lessons[:i], m.lessons[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLessonRepository) CountByCourse(ctx context.Context, courseID int) (int, error) {
	lessons, err := m.ListByCourse(ctx, courseID)
	return len(lessons), err
}

// mockEnrolmentRepository is a mock implementation of the enrolment repositories
type mockEnrolmentRepository struct {
	enrolled map[[2]int]bool
	err      error
}

func newMockEnrolmentRepository() *mockEnrolmentRepository {
	return &mockEnrolmentRepository{enrolled: map[[2]int]bool{}}
}

func (m *mockEnrolmentRepository) Add(ctx context.Context, userID, courseID int) error {
	if m.err != nil {
		return m.err
	}
	m.enrolled[[2]int{userID, courseID}] = true
	return nil
}

func (m *mockEnrolmentRepository) Exists(ctx context.Context, userID, courseID int) (bool, error) {
	return m.enrolled[[2]int{userID, courseID}], m.err
}

func (m *mockEnrolmentRepository) ListUserIDsByCourse(ctx context.Context, courseID int) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int, 0)
	for k := range m.enrolled {
		if k[1] == courseID {
			ids = append(ids, k[0])
		}
	}
	return ids, nil
}

// mockCompletedRepository is a mock implementation of CompletedRepository
type mockCompletedRepository struct {
	completed map[[3]int]bool
	err       error
}

func newMockCompletedRepository() *mockCompletedRepository {
	return &mockCompletedRepository{completed: map[[3]int]bool{}}
}

func (m *mockCompletedRepository) Add(ctx context.Context, userID, courseID, lessonID int) error {
	if m.err != nil {
		return m.err
	}
	m.completed[[3]int{userID, courseID, lessonID}] = true
	return nil
}

func (m *mockCompletedRepository) Remove(ctx context.Context, userID, courseID, lessonID int) error {
	if m.err != nil {
		return m.err
	}
	delete(m.completed, [3]int{userID, courseID, lessonID})
	return nil
}

func (m *mockCompletedRepository) ListLessonIDs(ctx context.Context, userID, courseID int) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int, 0)
	for k := range m.completed {
		if k[0] == userID && k[1] == courseID {
			ids = append(ids, k[2])
		}
	}
	return ids, nil
}

// mockCheckoutSessionRepository is a mock implementation of CheckoutSessionRepository
type mockCheckoutSessionRepository struct {
	pending *models.CheckoutSession
	err     error

	created *models.CheckoutSession
	paid    []int
	expired []int
}

func (m *mockCheckoutSessionRepository) Create(ctx context.Context, session *models.CheckoutSession) error {
	if m.err != nil {
		return m.err
	}
	session.ID = 1
	session.Status = models.CheckoutPending
	m.created = session
	return nil
}

func (m *mockCheckoutSessionRepository) GetLatestPending(ctx context.Context, userID, courseID int) (*models.CheckoutSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.pending == nil || m.pending.UserID != userID || m.pending.CourseID != courseID {
		return nil, errs.New(errs.ErrNotFound, "no pending checkout session")
	}
	return m.pending, nil
}

func (m *mockCheckoutSessionRepository) MarkPaid(ctx context.Context, session *models.CheckoutSession) error {
	if m.err != nil {
		return m.err
	}
	session.Status = models.CheckoutPaid
	m.paid = append(m.paid, session.ID)
	return nil
}

func (m *mockCheckoutSessionRepository) MarkExpired(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.expired = append(m.expired, id)
	return nil
}

// mockGateway is a mock implementation of CheckoutGateway and AccountGateway
type mockGateway struct {
	err error

	checkoutReq payments.CheckoutRequest
	remote      *payments.CheckoutSession

	createdAccounts int
	account         *payments.Account
	balance         *models.Balance
	linkURL         string
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.checkoutReq = req
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.test/cs_test_1"}, nil
}

func (m *mockGateway) GetCheckoutSession(ctx context.Context, id string) (*payments.CheckoutSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.remote, nil
}

func (m *mockGateway) CreateAccount(ctx context.Context, email string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.createdAccounts++
	return "acct_new", nil
}

func (m *mockGateway) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.linkURL, nil
}

func (m *mockGateway) GetAccount(ctx context.Context, accountID string) (*payments.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

func (m *mockGateway) GetBalance(ctx context.Context, accountID string) (*models.Balance, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.balance, nil
}

func (m *mockGateway) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.linkURL, nil
}
