package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret")

	token, err := auth.GenerateToken("cli", time.Minute)
	require.NoError(t, err)

	sub, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cli", sub)
}

func TestValidateTokenRejects(t *testing.T) {
	auth := NewAuthService("test-secret")

	other, err := NewAuthService("other-secret").GenerateToken("cli", time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateToken(other)
	assert.Error(t, err, "wrong key")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "cli",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = auth.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := NewAuthService("").GenerateToken("cli", time.Minute)
	assert.Error(t, err)
}
