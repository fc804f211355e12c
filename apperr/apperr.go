// Package apperr defines the error taxonomy shared across the core: a small
// set of kinds components throw, independent of transport. The HTTP layer
// (out of scope here) maps kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindInvalidTransition  Kind = "invalid_transition"
	KindGeneration         Kind = "generation"
	KindRetrievalDegraded  Kind = "retrieval_degraded"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindTransient          Kind = "transient"
	KindFatal              Kind = "fatal"
)

// Error is a typed application error. Kind drives HTTP status mapping
// upstream; Allowed carries the allowed-action set for InvalidTransition per
// spec.md §4.11; CorrelationID is echoed back to callers instead of a stack
// trace (set by the HTTP layer via WithCorrelationID once a request id is
// known — components that construct an Error never set it themselves).
type Error struct {
	Kind          Kind
	Message       string
	Allowed       []string
	CorrelationID string
	cause         error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func WithAllowed(kind Kind, message string, allowed []string) *Error {
	return &Error{Kind: kind, Message: message, Allowed: allowed}
}

// WithCorrelationID sets id on e and returns e, for chaining at the point an
// error is about to cross the HTTP boundary (spec.md §7: "a correlation id
// is echoed"). Has no effect if e is nil, so callers can chain on an
// errors.As result without a nil check.
func (e *Error) WithCorrelationID(id string) *Error {
	if e == nil {
		return e
	}
	e.CorrelationID = id
	return e
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
