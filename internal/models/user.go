package models

import (
	"encoding/json"
	"slices"
	"time"
)

// Role is one entry of a user's role set
type Role string

const (
	RoleSubscriber Role = "Subscriber"
	RoleInstructor Role = "Instructor"
)

// User represents a marketplace account
type User struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	PasswordHash      string          `json:"-"`
	Picture           string          `json:"picture"`
	Roles             []Role          `json:"role"`
	PasswordResetCode string          `json:"-"`
	StripeAccountID   string          `json:"stripeAccountId,omitempty"`
	StripeSeller      json.RawMessage `json:"stripeSeller,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// HasRole reports whether role is in the user's role set
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// UserRef is the public projection of a user embedded in courses
type UserRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the request body for a reset code
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the request body for a password reset
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}
