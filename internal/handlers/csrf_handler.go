package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// CSRFHandler issues CSRF tokens to browser clients
type CSRFHandler struct {
	BaseHandler
}

// NewCSRFHandler creates a new CSRF handler
func NewCSRFHandler(logger *zap.Logger) *CSRFHandler {
	return &CSRFHandler{BaseHandler: BaseHandler{logger: logger}}
}

// RegisterRoutes registers all CSRF handler routes
func (h *CSRFHandler) RegisterRoutes(r chi.Router) {
	r.Get("/csrf-token", h.Token)
}

// Token handles GET /csrf-token
// @Summary Get a CSRF token
// @Description The token must be sent back in the X-CSRF-Token header of cookie-authenticated unsafe requests
// @Tags csrf
// @Produce json
// @Success 200 {object} map[string]string
// @Router /csrf-token [get]
func (h *CSRFHandler) Token(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"csrfToken": csrf.Token(r)})
}
