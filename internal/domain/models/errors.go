package models

import "errors"

// Domain error taxonomy. Callers match with errors.Is; the HTTP layer maps
// these onto structured responses.
var (
	// ErrInvalidInput marks a malformed or missing request field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientHistory marks a (sku, competitor) pair with no usable
	// historical rows. Not retryable until more data arrives.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrSchemaMismatch marks a persisted model/schema pair that disagrees on
	// version or feature count. Fatal; requires re-training.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrNotFound marks an update against a key with no prior forecast.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey marks a unique-constraint violation on insert. Stores
	// recover from it by re-reading; it never reaches API callers.
	ErrDuplicateKey = errors.New("duplicate key")
)
