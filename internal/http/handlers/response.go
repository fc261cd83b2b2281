// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: structured error envelopes, a field-level validation envelope,
// and helpers for common patterns. The goal is uniform, machine-friendly
// responses for both success and failure.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting; 5xx responses are
//     logged with request context.
//   - Authentication failures always use the same generic message; which
//     check failed is only visible in server logs.
//
// Example error response:
//
//	HTTP/1.1 401 Unauthorized
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "unauthorized",
//	  "message": "authentication failed"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connectmoney/go-payments-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"unauthorized"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"authentication failed"`
}

// ValidationResponse is the envelope for request-body validation failures:
// one message per offending field.
type ValidationResponse struct {
	RequestID string            `json:"request_id,omitempty"`
	Code      string            `json:"code" example:"validation_failed"`
	Errors    map[string]string `json:"errors"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failValidation aborts with 400 and a per-field error map.
func failValidation(c *gin.Context, errs map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ValidationResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      ErrCodeValidation,
		Errors:    errs,
	})
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
