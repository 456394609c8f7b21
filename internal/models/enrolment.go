package models

import "time"

// CheckoutStatus is the settlement state of a hosted checkout session
type CheckoutStatus string

const (
	CheckoutPending CheckoutStatus = "pending"
	CheckoutPaid    CheckoutStatus = "paid"
	CheckoutExpired CheckoutStatus = "expired"
)

// CheckoutSession records a payment handshake started for a user and course
type CheckoutSession struct {
	ID        int            `json:"id"`
	UserID    int            `json:"userId"`
	CourseID  int            `json:"courseId"`
	SessionID string         `json:"sessionId"`
	Status    CheckoutStatus `json:"status"`
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// EnrolmentStatus is the response of an enrolment check
type EnrolmentStatus struct {
	Status bool    `json:"status"`
	Course *Course `json:"course"`
}

// EnrolmentResult is the response of a free enrolment
type EnrolmentResult struct {
	Message string  `json:"message"`
	Course  *Course `json:"course"`
}

// SettlementResult is the response of a checkout settlement
type SettlementResult struct {
	Success bool    `json:"success"`
	Course  *Course `json:"course,omitempty"`
}

// ProgressRequest carries the course and lesson of a completed record change
type ProgressRequest struct {
	CourseID int `json:"courseId"`
	LessonID int `json:"lessonId"`
}

// CourseIDRequest carries a course id in a request body
type CourseIDRequest struct {
	CourseID int `json:"courseId"`
}

// Money is an amount in the smallest currency unit
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Balance is the connected account balance of an instructor
type Balance struct {
	Available []Money `json:"available"`
	Pending   []Money `json:"pending"`
}
