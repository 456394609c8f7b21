package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/faheemkodi/lms-server/internal/auth"
	"github.com/faheemkodi/lms-server/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTokens = auth.NewTokenGenerator("handler-test-secret", time.Hour)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// newTestRouter returns an /api router and the auth middleware used by its routes
func newTestRouter(register func(r chi.Router, authMiddleware Middleware)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Route("/api", func(r chi.Router) {
		register(r, middleware.AuthMiddleware(testTokens))
	})
	return r
}

// doRequest sends a request as the given user; userID 0 sends it anonymously
func doRequest(t *testing.T, h http.Handler, method, path string, body any, userID int) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := testTokens.GenerateToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, w, &body)
	return body["error"]
}
