// Package domainerrors provides coded errors for the service layer. Stores
// return sentinel errors (pkg/platform/sentinel); services translate them into
// coded errors here so transports can map codes to status lines without
// string-matching messages.
package domainerrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"govgate/pkg/platform/sentinel"
)

// Code classifies an error for callers and transports.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal"

	// CodePolicyNotFound means no active policy version exists for the
	// tenant+slug. Terminal: the caller must create or activate a policy.
	CodePolicyNotFound Code = "policy_not_found"

	// CodeValidation means a policy document failed validation before any
	// evaluation took place.
	CodeValidation Code = "validation"

	// CodeLedgerWrite means a durable ledger append failed. The decision flow
	// survives this; the returned decision carries a degraded-audit marker.
	CodeLedgerWrite Code = "ledger_write"

	// CodeLedgerIntegrity means chain verification found a break. Never
	// auto-repaired; the offending sequence is reported.
	CodeLedgerIntegrity Code = "ledger_integrity"

	// CodeExportSectionMissing means an export bundle referenced an entity
	// that can no longer be resolved. The export fails closed.
	CodeExportSectionMissing Code = "export_section_missing"

	// CodeTransient marks timeouts and other retryable infrastructure
	// failures. It never changes a decision outcome.
	CodeTransient Code = "transient"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	ErrCode Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrCode, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Code() Code { return e.ErrCode }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{ErrCode: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{ErrCode: code, Message: message, cause: err}
}

// IsTransient reports whether err is a retryable infrastructure failure:
// a context deadline, a network timeout, or a backend that reported itself
// unavailable.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel.ErrUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// WrapStore classifies a repository or ledger failure. Retryable failures
// carry CodeTransient so transports answer 503; everything else is internal.
func WrapStore(err error, message string) *Error {
	if IsTransient(err) {
		return Wrap(err, CodeTransient, message)
	}
	return Wrap(err, CodeInternal, message)
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrCode == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrCode
	}
	return CodeInternal
}

// HTTPStatus maps a code to the status the HTTP transport should return.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound, CodePolicyNotFound, CodeExportSectionMissing:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
