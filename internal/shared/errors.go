package shared

import (
	"errors"
	"time"
)

var (
	// ErrValidation indicates malformed or semantically invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or unusable credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated caller lacking a required role.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited indicates exhausted login attempts.
	ErrRateLimited = errors.New("too many attempts")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
)

// Error carries a caller-safe message on top of one of the sentinel kinds.
type Error struct {
	Kind       error
	Message    string
	RetryAfter time.Duration
	Err        error
}

// NewError builds an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a copy of the error.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.Err = cause
	return &clone
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "internal error"
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Is matches copies produced by Wrap against their template.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Validation returns a validation error with message.
func Validation(message string) *Error {
	return NewError(ErrValidation, message)
}

// NotFound returns a not-found error with message.
func NotFound(message string) *Error {
	return NewError(ErrNotFound, message)
}

// Conflict returns a conflict error with message.
func Conflict(message string) *Error {
	return NewError(ErrConflict, message)
}

// RateLimited returns a rate-limit error carrying the retry window.
func RateLimited(message string, retryAfter time.Duration) *Error {
	e := NewError(ErrRateLimited, message)
	e.RetryAfter = retryAfter
	return e
}

// UserSafeMessage returns the message that may be shown to API callers.
func UserSafeMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != nil {
		return appErr.Error()
	}
	for _, kind := range []error{ErrValidation, ErrInvalidCredentials, ErrUnauthorized, ErrForbidden, ErrRateLimited, ErrNotFound, ErrConflict} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal server error"
}
