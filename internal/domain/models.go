// Package domain defines the persistence models for clients, transactions,
// and idempotency keys. These types are mapped with GORM and form the core
// data layer of the payments API.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client represents an API consumer authenticating with the client-credentials
// grant. Secrets are stored as bcrypt hashes; failed attempts and a lockout
// timestamp implement progressive lockout against brute forcing.
//
// Fields:
//   - ID: auto-increment surrogate key.
//   - ClientID: external identity used at the token endpoint; unique.
//   - SecretHash: bcrypt hash of the client secret. Never serialized.
//   - Active: whether the client may authenticate at all.
//   - FailedAttempts: consecutive failed secret checks since the last success.
//   - LockedUntil: when set and in the future, authentication is suspended.
//     Cleared (together with FailedAttempts) on the first successful
//     authentication after expiry.
//   - CreatedAt: timestamp managed by GORM.
type Client struct {
	ID             uint       `json:"-"          gorm:"primaryKey"`
	ClientID       string     `json:"client_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_client_id"`
	SecretHash     string     `json:"-"          gorm:"type:varchar(128);not null"`
	Active         bool       `json:"active"     gorm:"not null;default:true"`
	FailedAttempts int        `json:"-"          gorm:"not null;default:0"`
	LockedUntil    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableName returns the database table name for Client.
func (Client) TableName() string { return "clients" }

// Transaction is a submitted money movement. TransactionID is the
// caller-supplied business identifier and carries a unique index; that index
// is the ultimate dedup backstop when two submissions race past the
// idempotency ledger.
//
// Amount uses an arbitrary-precision decimal stored as text so monetary
// values survive round-trips without float drift.
type Transaction struct {
	ID              uint            `json:"-"         gorm:"primaryKey"`
	TransactionID   string          `json:"id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_transaction_id"`
	Type            string          `json:"type"      gorm:"type:varchar(32);not null"`
	Status          string          `json:"status"    gorm:"type:varchar(32);not null"`
	Amount          decimal.Decimal `json:"amount"    gorm:"type:text;not null"`
	Currency        string          `json:"currency"  gorm:"type:varchar(8);not null"`
	CardUID         string          `json:"cardUid"   gorm:"type:varchar(64);not null"`
	TransactionDate time.Time       `json:"createdAt" gorm:"not null"`
	ClientID        string          `json:"client_id" gorm:"type:varchar(64);not null;index:idx_txn_client"`
	CreatedAt       time.Time       `json:"-"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }

// IdempotencyKey is a ledger row recording that a given caller-supplied key
// has been (or is being) processed. At most one row exists per key; once
// Processed flips to true it is never reverted, so replays of a completed
// submission short-circuit without touching the transactions table.
type IdempotencyKey struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	Key           string    `json:"key"            gorm:"column:idempotency_key;type:varchar(200);not null;uniqueIndex:ux_idempotency_key"`
	TransactionID string    `json:"transaction_id" gorm:"type:varchar(64);not null"`
	Processed     bool      `json:"processed"      gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for IdempotencyKey.
func (IdempotencyKey) TableName() string { return "idempotency_keys" }
