// Package common defines shared sentinel errors used across the clipcards
// server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Validation errors surfaced synchronously at the submission boundary.
	ErrorValidation = errors.New("validation error")

	// Job state machine errors.
	ErrorInvalidTransition    = errors.New("invalid status transition")
	ErrorProgressRegression   = errors.New("progress may not decrease")
	ErrorTranscriptAlreadySet = errors.New("transcript already set")

	// Identity errors (the X-User-ID header is absent or empty).
	ErrorNoUserID = errors.New("no user id")
)
