package repo

import (
	"context"
	"errors"
	"testing"
)

func TestIdempotencyKey_CreateGetMark(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := GetIdempotencyKey(ctx, db, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before insert, got %v", err)
	}

	rec, err := CreateIdempotencyKey(ctx, db, "k1", "tx-1", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Processed {
		t.Fatalf("expected processed=false on insert")
	}

	if err := MarkProcessed(ctx, db, rec.ID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	got, err := GetIdempotencyKey(ctx, db, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Processed || got.TransactionID != "tx-1" {
		t.Fatalf("row mismatch after mark: %+v", got)
	}
}

func TestCreateIdempotencyKey_DuplicateKey_ReturnsErrDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotencyKey(ctx, db, "k1", "tx-1", true); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotencyKey(ctx, db, "k1", "tx-2", true); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
