// Transaction submission HTTP handler.
//
// This file exposes the idempotent transaction-commit endpoint:
//   - POST /v1/transactions  (JSON body, idempotency-key header required)
//
// The handler validates the payload, re-resolves the bearer subject against
// the credential store, and delegates to the transaction service. The owning
// client identity is always the authenticated caller, never a payload field.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/connectmoney/go-payments-backend/internal/http/middleware"
	"github.com/connectmoney/go-payments-backend/internal/repo"
	"github.com/connectmoney/go-payments-backend/internal/services"
)

// HeaderIdempotencyKey is the request header scoping "the same logical
// submission"; repeated use must not duplicate effects.
const HeaderIdempotencyKey = "Idempotency-Key"

// transactionDateLayout is the accepted format of the createdAt field.
const transactionDateLayout = "2006-01-02"

// TransactionRequest is the JSON payload for submitting a transaction.
type TransactionRequest struct {
	ID        string          `json:"id"        binding:"required"`
	Type      string          `json:"type"      binding:"required"`
	Status    string          `json:"status"    binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"  binding:"required"`
	CardUID   string          `json:"cardUid"   binding:"required"`
	CreatedAt string          `json:"createdAt" binding:"required,datetime=2006-01-02"`
}

// txnFieldNames maps struct fields to their wire names for validation maps.
var txnFieldNames = map[string]string{
	"ID":        "id",
	"Type":      "type",
	"Status":    "status",
	"Amount":    "amount",
	"Currency":  "currency",
	"CardUID":   "cardUid",
	"CreatedAt": "createdAt",
}

// SubmitTransaction godoc
// @ID          submitTransaction
// @Summary     Submit a transaction
// @Description Commits a transaction exactly once per idempotency key. Replays of a processed key succeed without creating a second record.
// @Tags        Transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key header string true "Caller-supplied idempotency key"
// @Param       body body handlers.TransactionRequest true "Transaction payload"
//
// @Success     200 {string} string "Empty body"
// @Failure     400 {object} handlers.ValidationResponse "Invalid payload or missing key"
// @Failure     401 {object} handlers.ErrorResponse      "Authentication failed"
// @Failure     403 {object} handlers.ErrorResponse      "Access denied"
// @Failure     429 {object} handlers.ErrorResponse      "Rate limited"
// @Failure     500 {object} handlers.ErrorResponse      "Internal server error"
// @Router      /v1/transactions [post]
func (h *Handlers) SubmitTransaction(c *gin.Context) {
	clientID, okID := middleware.ClientID(c)
	if !okID {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, msgAuthFailed)
		return
	}

	// A verified token is not enough: the subject must still resolve to an
	// active client row.
	client, err := repo.GetClientByClientID(c.Request.Context(), h.db, clientID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if client == nil || !client.Active {
		middleware.LoggerFrom(c).Warn().
			Str("client_id", clientID).
			Msg("bearer subject no longer maps to an active client")
		fail(c, http.StatusForbidden, ErrCodeForbidden, msgAccessDenied)
		return
	}

	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if key == "" {
		failValidation(c, map[string]string{
			"idempotency-key": "idempotency-key header is required",
		})
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, bindErrors(err, txnFieldNames))
		return
	}
	if !req.Amount.GreaterThan(decimal.Zero) {
		failValidation(c, map[string]string{
			"amount": "amount must be greater than 0",
		})
		return
	}
	date, err := time.Parse(transactionDateLayout, req.CreatedAt)
	if err != nil {
		failValidation(c, map[string]string{
			"createdAt": "createdAt must match the format " + transactionDateLayout,
		})
		return
	}

	sub := services.SubmitTransaction{
		TransactionID: req.ID,
		Type:          req.Type,
		Status:        req.Status,
		Amount:        req.Amount,
		Currency:      req.Currency,
		CardUID:       req.CardUID,
		Date:          date,
	}
	if err := h.txnSvc.Process(c.Request.Context(), clientID, key, sub); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	c.Status(http.StatusOK)
}
