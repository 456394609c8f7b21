package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key", 7*24*time.Hour)

	assert.NotNil(t, tg)
	assert.Equal(t, "test-secret-key", tg.secret)
	assert.Equal(t, 7*24*time.Hour, tg.Expiry())
}

func TestTokenGenerator_GenerateAndValidate(t *testing.T) {
	tg := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", time.Hour)

	tests := []struct {
		name   string
		userID int
	}{
		{name: "standard user", userID: 123},
		{name: "zero user id", userID: 0},
		{name: "large user id", userID: 2147483647},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tg.GenerateToken(tt.userID)
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)

			userID, err := tg.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, userID)
		})
	}
}

func TestTokenGenerator_ValidateToken(t *testing.T) {
	secret := "b8a3c2267dc85f855dea9b46b452bf20"
	tg := NewTokenGenerator(secret, time.Hour)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "malformed token",
			token: func(t *testing.T) string { return "not-a-token" },
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				expired := NewTokenGenerator(secret, -time.Minute)
				token, err := expired.GenerateToken(1)
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				token, err := NewTokenGenerator("other-secret", time.Hour).GenerateToken(1)
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "wrong token type",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
					"user_id": 1,
					"type":    "refresh",
					"exp":     time.Now().Add(time.Hour).Unix(),
				})
			},
		},
		{
			name: "missing user id",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
					"type": "session",
					"exp":  time.Now().Add(time.Hour).Unix(),
				})
			},
		},
		{
			name: "none signing method",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{
					"user_id": 1,
					"type":    "session",
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := tg.ValidateToken(tt.token(t))
			assert.Error(t, err)
			assert.Zero(t, userID)
		})
	}
}
