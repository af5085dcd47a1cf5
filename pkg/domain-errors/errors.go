// Package domainerrors defines the stable error taxonomy for the service.
//
// Every failure path is distinguishable by machine code, not by message
// string matching. Services translate infrastructure sentinels
// (pkg/platform/sentinel) into these codes at the boundary; handlers map
// codes to HTTP statuses via pkg/platform/httputil.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	// CodeValidation: input fails a domain rule (missing field, harm
	// classification inconsistency, illegal state transition). Never retried.
	CodeValidation Code = "validation_error"
	// CodeInvalidInput: malformed value (bad UUID, bad enum literal).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest: request cannot be parsed at all.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound: referenced model, decision, outcome, or appeal is unknown.
	CodeNotFound Code = "not_found"
	// CodeConflict: uniqueness or version conflict (duplicate decision ref,
	// concurrent appeal transition). Caller must change the request.
	CodeConflict Code = "conflict"
	// CodeChainConflict: the ledger tip advanced between read and append.
	// Retryable; the writer retries internally before surfacing this.
	CodeChainConflict Code = "chain_conflict"
	// CodeUnauthorized: missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: authenticated but not allowed.
	CodeForbidden Code = "forbidden"
	// CodeTimeout: the request deadline elapsed while waiting on persistence.
	CodeTimeout Code = "timeout"
	// CodeInternal: persistence or infrastructure failure. Logged, surfaced
	// without partial state.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a human message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with a code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
// If err is nil, Wrap returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode, matching the assertion style used in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors so nothing leaks an unclassified failure to callers.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human message, empty for non-domain errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// Retryable reports whether the caller may retry the operation unchanged.
// Only chain conflicts and timeouts qualify; validation and conflict
// failures are deterministic.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeChainConflict, CodeTimeout:
		return true
	}
	return false
}
