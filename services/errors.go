package services

import "errors"

// Error taxonomy surfaced by the record store and workflow engine. Controllers
// translate these into HTTP responses; nothing is retried internally.
var (
	// ErrInvalidInput marks missing or malformed required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness violation, e.g. a duplicate year.
	ErrConflict = errors.New("conflict")

	// ErrForbidden marks an operation disallowed by the RMP's current
	// workflow status. It is not a permissions failure.
	ErrForbidden = errors.New("forbidden in current status")

	// ErrUnauthorized marks a request with no resolvable caller identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStorage wraps persistence or blob-store faults. Detail is logged
	// server-side; callers see a generic failure.
	ErrStorage = errors.New("storage failure")
)
