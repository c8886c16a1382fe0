// Package common defines shared constants and sentinel errors used across
// flashdeck layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors, reported before any store mutation.
	ErrValidation    = errors.New("validation error")
	ErrDuplicateName = errors.New("already exists")

	// Sync engine errors.
	ErrSyncInProgress = errors.New("sync already in progress")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)
