// Package apperr defines the error taxonomy every business-rule check
// converts to before an error leaves the core. Handlers map kinds to
// HTTP statuses; lower-layer failures are wrapped as Internal and the
// wrapped error is logged but never shown to clients.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	// KindInternal is the fallback for unexpected lower-layer failures.
	KindInternal Kind = iota
	// KindUnauthenticated means no or invalid session.
	KindUnauthenticated
	// KindForbidden means authenticated but insufficient scope or role,
	// including the protected super-admin invariant.
	KindForbidden
	// KindInvalidInput means missing/malformed fields or an invalid
	// enum value, including invalid state-machine transitions.
	KindInvalidInput
	// KindNotFound means the target does not exist or is outside the
	// actor's scope. Scope violations report NotFound, not Forbidden,
	// so out-of-scope resources do not leak their existence.
	KindNotFound
	// KindConflict means a duplicate assignment or uniqueness violation.
	KindConflict
	// KindRateLimited means the caller exhausted a request window and
	// should retry later.
	KindRateLimited
)

// Error carries a kind, a client-safe message, and an optional wrapped
// cause for logs.
type Error struct {
	K       Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error.
func E(k Kind, msg string) *Error {
	return &Error{K: k, Message: msg}
}

// Wrap builds an *Error around a cause.
func Wrap(k Kind, msg string, err error) *Error {
	return &Error{K: k, Message: msg, Err: err}
}

// Internal wraps an unexpected failure with a generic client message.
func Internal(err error) *Error {
	return &Error{K: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the kind of err, or KindInternal when err carries no
// *Error in its chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.K
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err. Non-taxonomy
// errors get a generic message so raw causes never reach clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Convenience constructors for the common kinds.

func Unauthenticated(msg string) *Error { return E(KindUnauthenticated, msg) }
func Forbidden(msg string) *Error       { return E(KindForbidden, msg) }
func InvalidInput(msg string) *Error    { return E(KindInvalidInput, msg) }
func NotFound(msg string) *Error        { return E(KindNotFound, msg) }
func Conflict(msg string) *Error        { return E(KindConflict, msg) }
func RateLimited(msg string) *Error     { return E(KindRateLimited, msg) }
