// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// IdempotencyKey ledger used to implement exactly-once transaction commit.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/domain"
)

// GetIdempotencyKey returns the ledger row for key, or ErrNotFound.
func GetIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*domain.IdempotencyKey, error) {
	var rec domain.IdempotencyKey
	err := db.WithContext(ctx).Where("idempotency_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotencyKey inserts a ledger row and returns ErrDuplicate on a
// unique violation, which signals that a concurrent submission already
// claimed the key.
func CreateIdempotencyKey(ctx context.Context, db *gorm.DB, key, transactionID string, processed bool) (*domain.IdempotencyKey, error) {
	rec := &domain.IdempotencyKey{
		ID:            uuid.NewString(),
		Key:           key,
		TransactionID: transactionID,
		Processed:     processed,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// MarkProcessed flips the processed flag for an existing ledger row. The flag
// is never reverted once set.
func MarkProcessed(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Model(&domain.IdempotencyKey{}).
		Where("id = ?", id).
		Update("processed", true).Error
}
