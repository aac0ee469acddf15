package quiz

import "errors"

var (
	// ErrNotFound reports that a natural key did not resolve to a row.
	ErrNotFound = errors.New("quiz: not found")
	// ErrConflict reports a uniqueness violation on a natural key.
	ErrConflict = errors.New("quiz: already exists")
)
