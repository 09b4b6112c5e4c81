package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a request the domain cannot process.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the request clashes with current state.
	ErrConflict = errors.New("conflict")
)
