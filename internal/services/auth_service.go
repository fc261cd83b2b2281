// Package services – AuthService
//
// This file implements the AuthService, which validates client credentials
// against the credential store, drives the progressive-lockout state machine,
// and requests signed bearer tokens from the token issuer. Service-level
// errors (ErrUnknownClient, ErrClientInactive, ErrInvalidSecret,
// ErrClientLocked) are returned for predictable cases so handlers can map
// them all to one generic HTTP result.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/domain"
	"github.com/connectmoney/go-payments-backend/internal/repo"
)

// TokenIssuer is the signing collaborator consumed by AuthService. Any
// compliant signed-token scheme with expiry claims satisfies the contract.
type TokenIssuer interface {
	// Issue signs a bearer token for the subject and reports its lifetime.
	Issue(subject string) (token string, ttl time.Duration, err error)
}

// Token is the successful authentication result returned to the transport
// layer, shaped for the OAuth2 client-credentials response body.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
	TokenType   string `json:"token_type"` // always "Bearer"
}

// AuthService implements the client-credentials authentication use case.
// Lock and attempt counters live on the client row, so concurrent attempts
// are serialized only by the store's single-row update atomicity; the
// service holds no in-memory auth state.
type AuthService struct {
	// DB is the GORM handle used for credential reads and lockout updates.
	DB *gorm.DB
	// Issuer signs bearer tokens for authenticated clients.
	Issuer TokenIssuer

	// MaxAttempts is the number of consecutive failed secret checks that
	// triggers a lockout.
	MaxAttempts int
	// LockoutDuration is how long a triggered lockout holds.
	LockoutDuration time.Duration
}

// Authenticate validates the supplied credentials and returns a signed token.
//
// Check order:
//  1. Unknown client id          -> ErrUnknownClient
//  2. Inactive client            -> ErrClientInactive
//  3. Secret mismatch            -> failure persisted, ErrInvalidSecret
//  4. Active lock, correct secret-> ErrClientLocked
//  5. Expired lock, correct secret clears the lock and resets the counter
//  6. Token issued
//
// The secret is compared before the lock is checked, so a wrong secret from a
// locked client still increments the attempt counter and never reveals the
// lock; only a correct secret observes ErrClientLocked.
//
// Counter and lock mutations are persisted before the failure is returned,
// so brute-force attempts are durably tracked across restarts.
func (s *AuthService) Authenticate(ctx context.Context, clientID, clientSecret string) (*Token, error) {
	client, err := repo.GetClientByClientID(ctx, s.DB, clientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnknownClient
		}
		return nil, err
	}

	if !client.Active {
		log.Warn().Str("client_id", clientID).Msg("authentication rejected: client inactive")
		return nil, ErrClientInactive
	}

	if bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(clientSecret)) != nil {
		if err := s.registerFailure(ctx, client); err != nil {
			return nil, err
		}
		log.Warn().
			Str("client_id", clientID).
			Int("failed_attempts", client.FailedAttempts).
			Msg("authentication rejected: secret mismatch")
		return nil, ErrInvalidSecret
	}

	now := time.Now().UTC()
	if client.LockedUntil != nil && client.LockedUntil.After(now) {
		log.Warn().
			Str("client_id", clientID).
			Time("locked_until", *client.LockedUntil).
			Msg("authentication rejected: client locked")
		return nil, ErrClientLocked
	}

	// Self-healing: an expired lock is cleared on the next successful login.
	if client.LockedUntil != nil && !client.LockedUntil.After(now) {
		client.LockedUntil = nil
		client.FailedAttempts = 0
		if err := repo.SaveAuthState(ctx, s.DB, client); err != nil {
			return nil, err
		}
	}

	tok, ttl, err := s.Issuer.Issue(client.ClientID)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: tok,
		ExpiresIn:   int64(ttl.Seconds()),
		TokenType:   "Bearer",
	}, nil
}

// registerFailure increments the attempt counter, arms the lock when the
// configured maximum is reached, and persists both before the caller surfaces
// the failure.
func (s *AuthService) registerFailure(ctx context.Context, client *domain.Client) error {
	client.FailedAttempts++
	if client.FailedAttempts >= s.MaxAttempts {
		until := time.Now().UTC().Add(s.LockoutDuration)
		client.LockedUntil = &until
		log.Warn().
			Str("client_id", client.ClientID).
			Time("locked_until", until).
			Msg("client locked after repeated failures")
	}
	return repo.SaveAuthState(ctx, s.DB, client)
}
