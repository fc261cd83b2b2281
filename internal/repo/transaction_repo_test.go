package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/connectmoney/go-payments-backend/internal/domain"
)

func sampleTransaction(transactionID string) *domain.Transaction {
	return &domain.Transaction{
		TransactionID:   transactionID,
		Type:            "purchase",
		Status:          "completed",
		Amount:          decimal.RequireFromString("19.90"),
		Currency:        "EUR",
		CardUID:         "card-001",
		TransactionDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		ClientID:        "acme",
	}
}

func TestCreateTransaction_AndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := CreateTransaction(ctx, db, sampleTransaction("tx-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := GetTransactionByTransactionID(ctx, db, "tx-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ClientID != "acme" || !got.Amount.Equal(decimal.RequireFromString("19.90")) {
		t.Fatalf("row mismatch: %+v", got)
	}

	if _, err := GetTransactionByTransactionID(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTransaction_DuplicateID_ReturnsErrDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := CreateTransaction(ctx, db, sampleTransaction("tx-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := CreateTransaction(ctx, db, sampleTransaction("tx-1")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	n, err := CountTransactions(ctx, db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one row, got %d", n)
	}
}
