// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Profile errors.
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileNotConfirmed = errors.New("profile not confirmed by user")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
)
