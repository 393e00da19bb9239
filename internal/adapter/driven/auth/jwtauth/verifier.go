// Package jwtauth verifies the bearer tokens presented at connection
// time. Tokens are HS256-signed JWTs whose subject is the user id.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

// Verifier implements port.TokenVerifier over golang-jwt.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Verify checks signature, expiry and issuer, and returns the identity
// from the subject claim. Every failure maps to ErrAuthentication: the
// connection is refused, the reason only logged.
func (v *Verifier) Verify(tokenString string) (domain.UserID, error) {
	if tokenString == "" {
		return domain.UserID{}, domain.ErrAuthentication
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.UserID{}, errors.Join(domain.ErrAuthentication, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.UserID{}, domain.ErrAuthentication
	}

	id, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return domain.UserID{}, errors.Join(domain.ErrAuthentication, err)
	}
	return id, nil
}

// Issue signs a token for the given user. Used by tests and the local
// dev seeder; production tokens come from the identity provider.
func (v *Verifier) Issue(user domain.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.String(),
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
