package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EnrolmentChecker is the interface that wraps the course access lookup.
type EnrolmentChecker interface {
	// Method HasAccess reports whether the user may read the lessons of the course identified by "slug".
	//
	// The owning instructor always has access, other users need an enrolment.
	// If the course does not exist, an error of kind errs.ErrNotFound is returned.
	HasAccess(ctx context.Context, userID int, slug string) (bool, error)
}

// EnrolledMiddleware rejects users without access to the course named by the "slug" URL parameter.
// It must run after AuthMiddleware.
func EnrolledMiddleware(checker EnrolmentChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			slug := chi.URLParam(r, "slug")
			allowed, err := checker.HasAccess(r.Context(), userID, slug)
			if err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					writeJSONError(w, http.StatusNotFound, "course not found")
					return
				}
				logger.Error("failed to check enrolment",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Int("user_id", userID),
					zap.String("slug", slug),
					zap.Error(err),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if !allowed {
				writeJSONError(w, http.StatusForbidden, "not enrolled in this course")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
