// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// These symbolic constants are mapped to HTTP responses via the `fail()`
// helper and give clients a stable, machine-readable taxonomy alongside the
// human-readable message. Codes are lowercase snake_case; generic codes
// mirror common HTTP status semantics.
package handlers

const (
	ErrCodeValidation   = "validation_failed"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// Generic bodies: authentication failures and access denials never disclose
// which check failed.
const (
	msgAuthFailed   = "authentication failed"
	msgAccessDenied = "access denied"
)
