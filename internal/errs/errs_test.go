package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: New(ErrValidation, "name is required"), expected: http.StatusBadRequest},
		{name: "conflict", err: New(ErrConflict, "email is taken"), expected: http.StatusBadRequest},
		{name: "unauthorized", err: ErrUnauthorized, expected: http.StatusUnauthorized},
		{name: "forbidden wrapped", err: fmt.Errorf("publish: %w", New(ErrForbidden, "not the owner")), expected: http.StatusForbidden},
		{name: "not found", err: New(ErrNotFound, "course not found"), expected: http.StatusNotFound},
		{name: "upstream", err: Upstream("create session", errors.New("timeout")), expected: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusCode(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "wrong password", Message(fmt.Errorf("login: %w", New(ErrValidation, "wrong password"))))
	assert.Equal(t, "forbidden", Message(ErrForbidden))
	assert.Equal(t, "internal server error", Message(errors.New("sql: connection refused")))
	assert.Equal(t, "upstream service unavailable", Message(Upstream("get balance", errors.New("stripe down"))))
}
