package domain

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("too many attempts")
	ErrUnavailable  = errors.New("upstream service unavailable")
	ErrInternal     = errors.New("internal server error")
)

// Error pairs one of the sentinel kinds above with a human-readable message.
// errors.Is matches the kind; Error() is what the client sees.
type Error struct {
	kind    error
	message string
}

func E(kind error, message string) error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.kind }
