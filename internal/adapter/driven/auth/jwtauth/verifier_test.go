package jwtauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", "nimbus-test")
	user := domain.NewUserID()

	token, err := v.Issue(user, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestVerifier_MissingToken(t *testing.T) {
	v := NewVerifier("test-secret", "")

	_, err := v.Verify("")
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestVerifier_WrongSecret(t *testing.T) {
	issuing := NewVerifier("secret-one", "")
	verifying := NewVerifier("secret-two", "")

	token, err := issuing.Issue(domain.NewUserID(), time.Minute)
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestVerifier_ExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret", "")

	token, err := v.Issue(domain.NewUserID(), -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestVerifier_WrongIssuer(t *testing.T) {
	issuing := NewVerifier("test-secret", "somewhere-else")
	verifying := NewVerifier("test-secret", "nimbus")

	token, err := issuing.Issue(domain.NewUserID(), time.Minute)
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestVerifier_NonIdentitySubject(t *testing.T) {
	v := NewVerifier("test-secret", "")

	claims := jwt.RegisteredClaims{
		Subject:   "not-a-user-id",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestVerifier_RejectsUnexpectedAlgorithm(t *testing.T) {
	v := NewVerifier("test-secret", "")

	claims := jwt.RegisteredClaims{
		Subject:   domain.NewUserID().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	// HS512 signed with the right secret must still be refused.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}
