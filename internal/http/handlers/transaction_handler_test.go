package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/http/middleware"
	"github.com/connectmoney/go-payments-backend/internal/repo"
	"github.com/connectmoney/go-payments-backend/internal/services"
	"github.com/connectmoney/go-payments-backend/internal/token"
)

// newTxnRouter wires the transaction endpoint behind the bearer filter, the
// way the real router does, and returns a token for the given client.
func newTxnRouter(t *testing.T, db *gorm.DB, clientID string) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer := token.NewJWTIssuer("handler-test-secret", time.Hour)
	authSvc := &services.AuthService{
		DB:              db,
		Issuer:          issuer,
		MaxAttempts:     3,
		LockoutDuration: 15 * time.Minute,
	}
	h := New(authSvc, &services.TransactionService{DB: db}, db)

	r := gin.New()
	r.POST("/v1/transactions", middleware.BearerAuth(issuer), h.SubmitTransaction)

	tok, _, err := issuer.Issue(clientID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return r, tok
}

func validPayload() map[string]any {
	return map[string]any{
		"id":        "tx-1",
		"type":      "purchase",
		"status":    "completed",
		"amount":    "42.50",
		"currency":  "EUR",
		"cardUid":   "card-001",
		"createdAt": "2025-04-01",
	}
}

func postTxn(r *gin.Engine, bearer, key string, payload map[string]any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitTransaction_Success_EmptyBody(t *testing.T) {
	db := newHandlerDB(t)
	ctx := context.Background()
	if _, err := repo.SeedClient(ctx, db, "acme", "s3cret", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, bearer := newTxnRouter(t, db, "acme")

	w := postTxn(r, bearer, "key-1", validPayload())

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", w.Code, w.Body.String())
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected an empty body, got %q", w.Body.String())
	}

	txn, err := repo.GetTransactionByTransactionID(ctx, db, "tx-1")
	if err != nil {
		t.Fatalf("transaction not written: %v", err)
	}
	if txn.ClientID != "acme" {
		t.Fatalf("owning client = %q, want acme", txn.ClientID)
	}
}

func TestSubmitTransaction_Replay_SucceedsWithoutDuplicate(t *testing.T) {
	db := newHandlerDB(t)
	ctx := context.Background()
	if _, err := repo.SeedClient(ctx, db, "acme", "s3cret", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, bearer := newTxnRouter(t, db, "acme")

	for i := 0; i < 3; i++ {
		if w := postTxn(r, bearer, "key-1", validPayload()); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: got %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	n, err := repo.CountTransactions(ctx, db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one transaction record, got %d", n)
	}
}

func TestSubmitTransaction_MissingBearer_Unauthorized(t *testing.T) {
	db := newHandlerDB(t)
	r, _ := newTxnRouter(t, db, "acme")

	if w := postTxn(r, "", "key-1", validPayload()); w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestSubmitTransaction_InactiveClient_Forbidden(t *testing.T) {
	db := newHandlerDB(t)
	ctx := context.Background()
	if _, err := repo.SeedClient(ctx, db, "dormant", "s3cret", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Token verifies fine; the subject just no longer maps to an active client.
	r, bearer := newTxnRouter(t, db, "dormant")

	w := postTxn(r, bearer, "key-1", validPayload())
	if w.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403: %s", w.Code, w.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Message != "access denied" {
		t.Fatalf("message = %q, want access denied", er.Message)
	}
}

func TestSubmitTransaction_UnknownSubject_Forbidden(t *testing.T) {
	db := newHandlerDB(t)
	r, bearer := newTxnRouter(t, db, "ghost")

	if w := postTxn(r, bearer, "key-1", validPayload()); w.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", w.Code)
	}
}

func TestSubmitTransaction_MissingIdempotencyKey_ValidationMap(t *testing.T) {
	db := newHandlerDB(t)
	if _, err := repo.SeedClient(context.Background(), db, "acme", "s3cret", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, bearer := newTxnRouter(t, db, "acme")

	w := postTxn(r, bearer, "", validPayload())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
	var vr ValidationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &vr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if vr.Errors["idempotency-key"] == "" {
		t.Fatalf("expected an idempotency-key entry, got %v", vr.Errors)
	}
}

func TestSubmitTransaction_MissingFields_ValidationMap(t *testing.T) {
	db := newHandlerDB(t)
	if _, err := repo.SeedClient(context.Background(), db, "acme", "s3cret", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, bearer := newTxnRouter(t, db, "acme")

	payload := validPayload()
	delete(payload, "currency")
	delete(payload, "cardUid")

	w := postTxn(r, bearer, "key-1", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400: %s", w.Code, w.Body.String())
	}
	var vr ValidationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &vr); err != nil {
		t.Fatalf("json: %v", err)
	}
	for _, field := range []string{"currency", "cardUid"} {
		if vr.Errors[field] == "" {
			t.Fatalf("expected an entry for %s, got %v", field, vr.Errors)
		}
	}
}

func TestSubmitTransaction_NonPositiveAmount_ValidationMap(t *testing.T) {
	db := newHandlerDB(t)
	if _, err := repo.SeedClient(context.Background(), db, "acme", "s3cret", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, bearer := newTxnRouter(t, db, "acme")

	for _, amount := range []string{"0", "-1.00"} {
		payload := validPayload()
		payload["amount"] = amount

		w := postTxn(r, bearer, "key-1", payload)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("amount %s: got %d, want 400", amount, w.Code)
		}
		var vr ValidationResponse
		if err := json.Unmarshal(w.Body.Bytes(), &vr); err != nil {
			t.Fatalf("json: %v", err)
		}
		if vr.Errors["amount"] == "" {
			t.Fatalf("amount %s: expected an amount entry, got %v", amount, vr.Errors)
		}
	}
}

func TestSubmitTransaction_BadDate_ValidationMap(t *testing.T) {
	db := newHandlerDB(t)
	if _, err := repo.SeedClient(context.Background(), db, "acme", "s3cret", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, bearer := newTxnRouter(t, db, "acme")

	payload := validPayload()
	payload["createdAt"] = "01/04/2025"

	w := postTxn(r, bearer, "key-1", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
	var vr ValidationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &vr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if vr.Errors["createdAt"] == "" {
		t.Fatalf("expected a createdAt entry, got %v", vr.Errors)
	}
}

func TestSubmitTransaction_MalformedBody_ValidationMap(t *testing.T) {
	db := newHandlerDB(t)
	if _, err := repo.SeedClient(context.Background(), db, "acme", "s3cret", true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, bearer := newTxnRouter(t, db, "acme")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
	var vr ValidationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &vr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if vr.Errors["body"] == "" {
		t.Fatalf("expected a body entry, got %v", vr.Errors)
	}
}
