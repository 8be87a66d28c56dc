package model

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of these, and the
// HTTP layer maps the category to a status code.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
)

// kindError is a sentinel that belongs to a category.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Error attaches a user-facing message to a sentinel.
// errors.Is still matches both the sentinel and its category.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Errorf wraps sentinel with a formatted user-facing message.
func Errorf(sentinel error, format string, args ...any) error {
	return &Error{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var k *kindError
	if errors.As(err, &k) {
		return k.msg
	}
	return err.Error()
}

// Kind returns the category err belongs to, or nil for infrastructure errors.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrUnauthenticated, ErrConflict, ErrValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
