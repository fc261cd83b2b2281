// Package services defines the business logic for authentication and
// transaction ingestion. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer. Every authentication error below collapses to the same generic 401
// body at the boundary so callers cannot probe which check failed.
package services

import "errors"

// Authentication errors.
var (
	// ErrUnknownClient indicates no client row exists for the supplied
	// client id.
	ErrUnknownClient = errors.New("unknown client")

	// ErrClientInactive is returned when the client exists but has been
	// deactivated.
	ErrClientInactive = errors.New("client is inactive")

	// ErrInvalidSecret is returned when the supplied secret does not match
	// the stored hash. The failed attempt has already been persisted by the
	// time callers see this error.
	ErrInvalidSecret = errors.New("invalid client secret")

	// ErrClientLocked is returned when a correct secret is presented while a
	// lockout is still active.
	ErrClientLocked = errors.New("client is locked")
)
