// Package common defines shared constants and sentinel errors used across
// the Leirisonda client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Record-level errors.
	ErrMalformedRecord = errors.New("malformed record")
	ErrAlreadyExists   = errors.New("already exists")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")

	// Session errors.
	ErrRecoveryExhausted = errors.New("recovery exhausted")
)
