package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/faheemkodi/lms-server/internal/middleware"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for the credential flow.
type AuthService interface {
	// Method Register validates the credentials and creates a subscriber account.
	//
	// "req" parameter contains name, email and password.
	//
	// If the credentials are invalid or the email is taken, an error of kind errs.ErrValidation or errs.ErrConflict will be returned.
	Register(ctx context.Context, req *models.RegisterRequest) error
	// Method Login verifies the credentials and returns the user together with a session token.
	//
	// If the user does not exist or the password is wrong, an error of kind errs.ErrValidation will be returned.
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	// Method CurrentUser loads the user behind a session.
	CurrentUser(ctx context.Context, userID int) (*models.User, error)
	// Method ForgotPassword stores a reset code on the user and queues the reset email.
	ForgotPassword(ctx context.Context, email string) error
	// Method ResetPassword sets a new password if the code matches the stored one.
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{logger: logger},
		authService: authService,
		cookie:      cookie,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
	r.With(authMiddleware).Get("/current-user", h.CurrentUser)
}

// Register handles POST /register
// @Summary Register a new user
// @Description Create a subscriber account. The password must be at least 8 characters long.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Register request"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid credentials or email is taken"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.Register(r.Context(), &req); err != nil {
		h.respondServiceError(w, r, "register", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// Login handles POST /login
// @Summary Login user
// @Description Authenticate with email and password. The session token is set as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "User not found or wrong password"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, "login", err)
		return
	}

	h.setSessionCookie(w, token, int(h.cookie.MaxAge.Seconds()))
	h.respondJSON(w, http.StatusOK, user)
}

// Logout handles GET /logout
// @Summary Logout user
// @Description Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /logout [get]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Signout success"})
}

// CurrentUser handles GET /current-user
// @Summary Check the current session
// @Description Succeeds while the session user exists
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Router /current-user [get]
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if _, err := h.authService.CurrentUser(r.Context(), userID); err != nil {
		h.respondServiceError(w, r, "current user", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// ForgotPassword handles POST /forgot-password
// @Summary Request a password reset code
// @Description Generate a reset code and email it to the user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "User not found"
// @Failure 502 {object} map[string]string "Email could not be queued"
// @Router /forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.respondServiceError(w, r, "forgot password", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// ResetPassword handles POST /reset-password
// @Summary Reset password
// @Description Set a new password using the emailed reset code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Invalid code or password"
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &req); err != nil {
		h.respondServiceError(w, r, "reset password", err)
		return
	}

	h.respondJSON(w, http.StatusOK, okResponse)
}

// setSessionCookie sets the session token as an HTTP-only cookie; a negative maxAge deletes it
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
