package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/faheemkodi/lms-server/internal/auth"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "token"

// AuthMiddleware validates the session token and puts the user id into the request context
func AuthMiddleware(tokenGenerator *auth.TokenGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := tokenGenerator.ValidateToken(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// extractToken reads the token from the session cookie, falling back to a Bearer header
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	return ""
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// WithUserID returns a copy of ctx carrying the user ID.
// The ID is also reported to the access log of the request.
func WithUserID(ctx context.Context, userID int) context.Context {
	recordUserID(ctx, userID)
	return context.WithValue(ctx, userIDKey, userID)
}
