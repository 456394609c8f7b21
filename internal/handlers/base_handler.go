package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Middleware is a standard net/http middleware
type Middleware = func(http.Handler) http.Handler

// okResponse is the body of operations that only report success
var okResponse = map[string]bool{"ok": true}

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error to its status and client message.
// Server side failures are logged with the operation name.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errs.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
	}
	h.respondError(w, status, errs.Message(err))
}

// decodeJSON decodes the request body into dst, responding 400 on failure
func (h *BaseHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// userID returns the authenticated user id, responding 401 if there is none
func (h *BaseHandler) userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return id, true
}

// intParam parses a positive integer URL parameter, responding 400 on failure
func (h *BaseHandler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}
