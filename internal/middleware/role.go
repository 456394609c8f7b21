package middleware

import (
	"context"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/models"
	"go.uber.org/zap"
)

// RoleChecker is the interface that wraps the role set lookup of a user.
type RoleChecker interface {
	// Method HasRole reports whether the role set of the user identified by "userID" contains "role".
	HasRole(ctx context.Context, userID int, role models.Role) (bool, error)
}

// RoleMiddleware rejects users whose role set lacks requiredRole.
// It must run after AuthMiddleware.
func RoleMiddleware(checker RoleChecker, requiredRole models.Role, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			hasRole, err := checker.HasRole(r.Context(), userID, requiredRole)
			if err != nil {
				logger.Error("failed to check user role",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Int("user_id", userID),
					zap.Error(err),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if !hasRole {
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
