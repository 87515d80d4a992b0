package storage

import "errors"

var (
	// ErrNotFound indicates that no history entry matched.
	ErrNotFound = errors.New("history entry not found")
	// ErrInvalidEntry indicates an entry without a page id or action.
	ErrInvalidEntry = errors.New("invalid history entry")
)
