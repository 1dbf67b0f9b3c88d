package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(Config{Secret: "test-secret", Issuer: "llm-gateway"})
	require.NoError(t, err)
	return v
}

func TestValidateTokenRoundTrip(t *testing.T) {
	v := newTestValidator(t)

	token, err := v.Sign("user-1", "dev@example.com", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "llm-gateway", claims.Issuer)
}

func TestValidateTokenExpired(t *testing.T) {
	v := newTestValidator(t)

	token, err := v.Sign("user-1", "", "", -time.Minute)
	require.NoError(t, err)

	_, err = v.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	v := newTestValidator(t)
	other, err := NewValidator(Config{Secret: "other-secret"})
	require.NoError(t, err)

	token, err := other.Sign("user-1", "", "", time.Hour)
	require.NoError(t, err)

	_, err = v.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	v := newTestValidator(t)
	other, err := NewValidator(Config{Secret: "test-secret", Issuer: "someone-else"})
	require.NoError(t, err)

	token, err := other.Sign("user-1", "", "", time.Hour)
	require.NoError(t, err)

	_, err = v.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestValidateTokenRejectsNoneAlgorithm(t *testing.T) {
	v := newTestValidator(t)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMissingSubject(t *testing.T) {
	v := newTestValidator(t)

	token, err := v.Sign("", "", "", time.Hour)
	require.NoError(t, err)

	_, err = v.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewValidatorRequiresSecret(t *testing.T) {
	_, err := NewValidator(Config{})
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
