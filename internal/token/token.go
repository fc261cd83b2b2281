// Package token implements the signed bearer-token collaborator used by the
// authentication flow. Tokens are HMAC-signed JWTs carrying the client id as
// subject plus issued-at and expiry claims; callers treat the scheme as
// opaque issue/verify.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Verify for any token that fails signature,
// structure, or expiry checks. Callers get no finer detail.
var ErrInvalidToken = errors.New("invalid token")

// JWTIssuer signs and verifies bearer tokens with a shared HMAC secret.
// The zero value is not usable; construct with NewJWTIssuer.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTIssuer returns an issuer signing HS256 tokens with secret that expire
// after ttl.
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for subject and reports the configured lifetime.
func (j *JWTIssuer) Issue(subject string) (string, time.Duration, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", 0, err
	}
	return tok, j.ttl, nil
}

// Verify parses and validates a token string and returns its subject.
// Any altered byte, wrong signing method, or elapsed expiry yields
// ErrInvalidToken.
func (j *JWTIssuer) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
