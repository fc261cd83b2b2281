// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Client model:
// credential lookup and the single-row updates that persist the lockout state
// machine. Row-level atomicity of these updates is the only concurrency
// control applied to auth counters.
package repo

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/domain"
)

// GetClientByClientID returns the client row for the external identity,
// or ErrNotFound.
func GetClientByClientID(ctx context.Context, db *gorm.DB, clientID string) (*domain.Client, error) {
	var c domain.Client
	err := db.WithContext(ctx).Where("client_id = ?", clientID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveAuthState persists the mutable lockout fields of a client in a single
// row update. Called synchronously before an auth failure is surfaced so the
// attempt counter survives process restarts.
func SaveAuthState(ctx context.Context, db *gorm.DB, c *domain.Client) error {
	return db.WithContext(ctx).Model(&domain.Client{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"failed_attempts": c.FailedAttempts,
			"locked_until":    c.LockedUntil,
		}).Error
}

// SeedClient inserts a client with a bcrypt-hashed secret. Provisioning is an
// out-of-band concern; this helper exists for tests and local bootstrap.
func SeedClient(ctx context.Context, db *gorm.DB, clientID, secret string, active bool) (*domain.Client, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c := &domain.Client{
		ClientID:   clientID,
		SecretHash: string(hash),
		Active:     active,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return c, nil
}
