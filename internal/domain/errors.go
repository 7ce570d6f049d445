package domain

import "errors"

var (
	// ErrValidation marks request payloads that fail input validation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups that resolve to no record (or a record the
	// caller does not own).
	ErrNotFound = errors.New("not found")
	// ErrConflict marks writes rejected by a uniqueness or state constraint.
	ErrConflict = errors.New("conflict")
)
