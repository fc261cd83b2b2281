// Package services – TransactionService
//
// This file implements the TransactionService, which commits submitted
// transactions exactly once. The idempotency ledger is the primary dedup
// path; the unique constraint on the transaction id is the backstop that
// converts a duplicate-insert race into a benign replay instead of a hard
// failure.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/domain"
	"github.com/connectmoney/go-payments-backend/internal/repo"
)

// errReplayed is an internal sentinel: a concurrent submission won the race
// for the same idempotency key or transaction id. It rolls the surrounding
// database transaction back and is mapped to a successful ack.
var errReplayed = errors.New("already committed by a concurrent submission")

// SubmitTransaction carries the validated transaction fields from the
// transport layer. The owning client identity is supplied separately from
// the authenticated caller context, never from the payload.
type SubmitTransaction struct {
	TransactionID string
	Type          string
	Status        string
	Amount        decimal.Decimal
	Currency      string
	CardUID       string
	Date          time.Time
}

// TransactionService implements the idempotent ingest use case.
type TransactionService struct {
	// DB is the GORM handle used for ledger and transaction writes.
	DB *gorm.DB
}

// Process commits the transaction under the supplied idempotency key on
// behalf of clientID. It is idempotent: calling it N times with the same key
// produces exactly one transaction row and N nil returns.
//
// Semantics:
//   - A ledger row with processed=true short-circuits as a no-op replay.
//   - Otherwise the transaction row is written, then the ledger row is
//     created (or the found-but-unprocessed one reused) with processed=true.
//   - The lookup and both writes run inside one database transaction, so a
//     crash between them never leaves a processed key without its
//     transaction row.
//   - A unique violation on either table means a concurrent call with the
//     same key or transaction id committed first; the local work is rolled
//     back and the call still reports success.
func (s *TransactionService) Process(ctx context.Context, clientID, idempotencyKey string, req SubmitTransaction) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := repo.GetIdempotencyKey(ctx, tx, idempotencyKey)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		if rec != nil && rec.Processed {
			log.Info().
				Str("idempotency_key", idempotencyKey).
				Str("transaction_id", rec.TransactionID).
				Msg("duplicate submission, replaying previous result")
			return errReplayed
		}

		txn := &domain.Transaction{
			TransactionID:   req.TransactionID,
			Type:            req.Type,
			Status:          req.Status,
			Amount:          req.Amount,
			Currency:        req.Currency,
			CardUID:         req.CardUID,
			TransactionDate: req.Date,
			ClientID:        clientID,
		}
		if err := repo.CreateTransaction(ctx, tx, txn); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				// Backstop: same transaction id landed concurrently.
				return errReplayed
			}
			return err
		}

		if rec != nil {
			// Found but unprocessed: reuse the existing ledger row.
			if err := repo.MarkProcessed(ctx, tx, rec.ID); err != nil {
				return err
			}
		} else {
			if _, err := repo.CreateIdempotencyKey(ctx, tx, idempotencyKey, req.TransactionID, true); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return errReplayed
				}
				return err
			}
		}

		log.Info().
			Str("transaction_id", req.TransactionID).
			Str("client_id", clientID).
			Msg("transaction committed")
		return nil
	})

	if errors.Is(err, errReplayed) {
		return nil
	}
	return err
}
