package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestGetClientByClientID_Missing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)

	c, err := GetClientByClientID(context.Background(), db, "nobody")
	if c != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected (nil, ErrNotFound), got (%v, %v)", c, err)
	}
}

func TestSeedClient_HashesSecretAndRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := SeedClient(ctx, db, "acme", "s3cret", true)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if c.SecretHash == "s3cret" {
		t.Fatalf("secret stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte("s3cret")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	if _, err := SeedClient(ctx, db, "acme", "other", true); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated client id, got %v", err)
	}
}

func TestSaveAuthState_PersistsCounterAndLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := SeedClient(ctx, db, "acme", "s3cret", true)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	until := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	c.FailedAttempts = 3
	c.LockedUntil = &until
	if err := SaveAuthState(ctx, db, c); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := GetClientByClientID(ctx, db, "acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.FailedAttempts != 3 {
		t.Fatalf("failed_attempts = %d, want 3", got.FailedAttempts)
	}
	if got.LockedUntil == nil || !got.LockedUntil.Equal(until) {
		t.Fatalf("locked_until = %v, want %v", got.LockedUntil, until)
	}

	// Clearing the lock persists too.
	got.FailedAttempts = 0
	got.LockedUntil = nil
	if err := SaveAuthState(ctx, db, got); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cleared, err := GetClientByClientID(ctx, db, "acme")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cleared.FailedAttempts != 0 || cleared.LockedUntil != nil {
		t.Fatalf("lock not cleared: attempts=%d locked_until=%v", cleared.FailedAttempts, cleared.LockedUntil)
	}
}
