package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for transport mapping and presentation.
type Kind int

const (
	// Internal is any failure not covered by the taxonomy below
	Internal Kind = iota
	// NotFound means a referenced entity is absent
	NotFound
	// Conflict means a precondition was violated (double self-assign,
	// duplicate credential link)
	Conflict
	// Unauthorized means the caller has no resolvable agent identity
	Unauthorized
	// Forbidden means the caller's role is insufficient for the action
	Forbidden
	// Validation means a required field is missing or malformed at the
	// mutation boundary
	Validation
)

// Error is a typed error carrying a human-readable message
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a typed error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a typed kind and message to an underlying error
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// NotFoundf creates a NotFound error
func NotFoundf(format string, args ...any) *Error {
	return Newf(NotFound, format, args...)
}

// Conflictf creates a Conflict error
func Conflictf(format string, args ...any) *Error {
	return Newf(Conflict, format, args...)
}

// Unauthorizedf creates an Unauthorized error
func Unauthorizedf(format string, args ...any) *Error {
	return Newf(Unauthorized, format, args...)
}

// Forbiddenf creates a Forbidden error
func Forbiddenf(format string, args ...any) *Error {
	return Newf(Forbidden, format, args...)
}

// Validationf creates a Validation error
func Validationf(format string, args ...any) *Error {
	return Newf(Validation, format, args...)
}

// KindOf extracts the Kind from an error chain, defaulting to Internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// IsKind reports whether the error chain carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
