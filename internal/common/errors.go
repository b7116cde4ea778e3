// Package common defines shared constants and sentinel errors used across
// the wallet-auth server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("user already exists")
	ErrorDecrypt       = errors.New("decryption failed")

	// Authentication outcomes.
	ErrorUnauthorized = errors.New("authentication failed")
	ErrorForbidden    = errors.New("custom validation failed")

	// Service-level errors.
	ErrorUpstream   = errors.New("upstream request failed")
	ErrorValidation = errors.New("validation error")
	ErrorInternal   = errors.New("internal error")

	// Configuration errors; the only ones allowed to abort startup.
	ErrorMissingConfig = errors.New("missing required configuration")
)
