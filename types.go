package storefrontx

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorCode represents specific error codes for storefront operations.
type ErrorCode int

const (
	// ErrCodeInvalidCriteria is returned when filter criteria are inconsistent.
	ErrCodeInvalidCriteria ErrorCode = iota + 1000

	// ErrCodeUnauthenticated is returned when an operation needs a session token.
	ErrCodeUnauthenticated

	// ErrCodeTransport is returned when the backend could not be reached
	// or answered with a non-success status.
	ErrCodeTransport

	// ErrCodeDecode is returned when a backend response has an unexpected shape.
	ErrCodeDecode

	// ErrCodeRejected is returned when the backend refuses a request
	// on business grounds (duplicate email, wrong credentials, ...).
	ErrCodeRejected

	// ErrCodeTimeout is returned when an operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when an operation is canceled.
	ErrCodeCanceled

	// ErrCodeBackendUnavailable is returned when a search backend is unavailable.
	ErrCodeBackendUnavailable

	// ErrCodeInvalidInput is returned when form input fails validation.
	ErrCodeInvalidInput
)

// String returns the human-readable string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidCriteria:
		return "invalid criteria"
	case ErrCodeUnauthenticated:
		return "unauthenticated"
	case ErrCodeTransport:
		return "transport failure"
	case ErrCodeDecode:
		return "malformed response"
	case ErrCodeRejected:
		return "rejected"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	case ErrCodeInvalidInput:
		return "invalid input"
	default:
		return "unknown error"
	}
}

func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors returned by storefront operations.
var (
	// ErrInvalidCriteria is returned when criteria fail validation.
	ErrInvalidCriteria = newErrorWithCode(ErrCodeInvalidCriteria, "storefrontx: invalid criteria")

	// ErrUnauthenticated is returned when no session token is available.
	ErrUnauthenticated = newErrorWithCode(ErrCodeUnauthenticated, "storefrontx: unauthenticated")

	// ErrTransport is returned on network failures and non-2xx statuses.
	ErrTransport = newErrorWithCode(ErrCodeTransport, "storefrontx: transport failure")

	// ErrDecode is returned when a response body cannot be decoded.
	ErrDecode = newErrorWithCode(ErrCodeDecode, "storefrontx: malformed response")

	// ErrRejected is the sentinel matched by every *RejectedError.
	ErrRejected = newErrorWithCode(ErrCodeRejected, "storefrontx: rejected by backend")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = newErrorWithCode(ErrCodeTimeout, "storefrontx: operation timed out")

	// ErrCanceled is returned when an operation is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "storefrontx: operation canceled")

	// ErrBackendUnavailable is returned when a search backend is unavailable.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "storefrontx: backend unavailable")

	// ErrInvalidInput is returned when sign-in or sign-up fields are invalid.
	ErrInvalidInput = newErrorWithCode(ErrCodeInvalidInput, "storefrontx: invalid input")
)

// RejectedError carries a business-rule rejection reported by the backend
// through a {"result": false, "error": "..."} envelope. The message is meant
// to be shown to the user as is.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "storefrontx: rejected by backend"
	}
	return fmt.Sprintf("storefrontx: rejected by backend: %s", e.Message)
}

// Is makes errors.Is(err, ErrRejected) match any rejection.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
