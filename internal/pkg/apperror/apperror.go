// Package apperror defines the error kinds shared across domains.
// Domain sentinels are built with New so handlers can classify them with errors.Is.
package apperror

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("service unavailable")
)

type kindError struct {
	kind    error
	message string
}

func (e *kindError) Error() string { return e.message }
func (e *kindError) Unwrap() error { return e.kind }

// New returns a sentinel error with its own message that matches kind under errors.Is.
func New(kind error, message string) error {
	return &kindError{kind: kind, message: message}
}
