// Package handlers provides HTTP handler implementations for the public API.
// This file defines the Handlers aggregate that holds the injected services
// shared by all endpoints.
package handlers

import (
	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/services"
)

// Handlers bundles the application services consumed by the HTTP endpoints.
type Handlers struct {
	authSvc *services.AuthService
	txnSvc  *services.TransactionService
	db      *gorm.DB
}

// New constructs the handler aggregate. The DB handle is used only to
// re-resolve bearer subjects against the credential store.
func New(authSvc *services.AuthService, txnSvc *services.TransactionService, db *gorm.DB) *Handlers {
	return &Handlers{authSvc: authSvc, txnSvc: txnSvc, db: db}
}
