// Package apperr carries the failure taxonomy every handler reports
// through. A failure is tagged with one Kind; the HTTP layer owns the
// mapping from Kind to status code and never exposes internals.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind int

const (
	Internal Kind = iota
	Unauthorized
	Forbidden
	BadRequest
	NotFound
	Conflict
	Validation
	Gateway
)

type Error struct {
	kind    Kind
	message string
	err     error
}

// New creates a tagged error whose message is safe to show to users.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap tags an underlying error. The wrapped error is kept for logs,
// the message is what users see.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{kind: kind, message: message, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Message is the user-safe half of the error.
func (e *Error) Message() string { return e.message }

// KindOf walks the chain for a tagged error. Untagged errors are
// Internal so nothing unclassified leaks a real message.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return Internal
}

// MessageOf returns the user-safe message, or a generic one for
// untagged errors.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return "Internal server error"
}

// FromStore folds GORM errors into the taxonomy at the persistence
// boundary.
func FromStore(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(NotFound, notFoundMsg, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(Validation, "Duplicate record", err)
	default:
		return err
	}
}
