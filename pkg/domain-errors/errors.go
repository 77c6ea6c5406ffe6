// Package domainerrors defines the coded error type shared by every LifeLink
// module. Services return these so transports can map failures to stable,
// branchable error codes instead of parsing free-text messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error code. Codes are part of the public
// contract with callers and must not be renamed casually.
type Code string

const (
	// CodeValidation marks malformed create/response input. Surfaced verbatim.
	CodeValidation Code = "validation_error"
	// CodeInvalidInput marks values that fail parsing at a trust boundary
	// (IDs, enums). A narrower cousin of CodeValidation.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests that are structurally unusable (missing
	// body, undecodable JSON).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks lookups for records that do not exist.
	CodeNotFound Code = "not_found"
	// CodeForbidden marks operations attempted by a caller who does not own
	// the target record.
	CodeForbidden Code = "forbidden"
	// CodeConflict marks generic state conflicts.
	CodeConflict Code = "conflict"
	// CodeInvalidTransition marks an attempted transition out of a terminal
	// requisition status.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeNotNotified marks a donor response without a prior notification.
	CodeNotNotified Code = "not_notified"
	// CodeRequisitionNotActive marks a mutation against a requisition that has
	// reached a terminal status.
	CodeRequisitionNotActive Code = "requisition_not_active"
	// CodeNoEligibleDonors marks a match pass that found nobody to notify.
	// Reportable and non-fatal: the requisition stays ACTIVE.
	CodeNoEligibleDonors Code = "no_eligible_donors"
	// CodeTimeout marks an operation that exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeInternal marks unexpected failures. Details are logged, never
	// surfaced to callers.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a caller-safe message, and an optional wrapped cause.
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

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and caller-safe message to an underlying error. The
// cause stays reachable through errors.Is/errors.As for logging.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err (or anything it wraps) is a coded domain error.
func Is(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that never passed through this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
