// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Transaction
// model. The unique index on transaction_id is the dedup backstop: a
// duplicate insert surfaces as ErrDuplicate instead of a driver error so the
// service layer can treat the race as an idempotent replay.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/domain"
)

// CreateTransaction inserts a transaction row and returns ErrDuplicate when
// the transaction_id already exists.
func CreateTransaction(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(txn).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetTransactionByTransactionID fetches a transaction by its business id,
// or ErrNotFound.
func GetTransactionByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// CountTransactions returns the number of stored transactions.
func CountTransactions(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Transaction{}).Count(&n).Error
	return n, err
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
