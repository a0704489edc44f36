package token

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AreYouDead/pkg/errors"
)

func TestTokenDisabledWithoutSecret(t *testing.T) {
	require.NoError(t, Init("", time.Hour))
	assert.False(t, Enabled())

	_, _, err := GenerateToken("owner")
	assert.ErrorIs(t, err, errors.ErrTokenGeneratorNotInitialized)
}

func TestGenerateAndValidate(t *testing.T) {
	require.NoError(t, Init("test-secret", time.Hour))
	t.Cleanup(func() { _ = Init("", 0) })

	tok, expiresIn, err := GenerateToken("")
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	sub, err := ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, sub)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	require.NoError(t, Init("test-secret", time.Hour))
	t.Cleanup(func() { _ = Init("", 0) })

	other, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		IdentityKey: "owner",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	_, err = ValidateToken(other)
	assert.Error(t, err)

	expired, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		IdentityKey: "owner",
		"exp":       time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ValidateToken(expired)
	assert.Error(t, err)

	noSubject, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ValidateToken(noSubject)
	assert.ErrorIs(t, err, errors.ErrSubjectNotFound)
}
