package resolver

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Client when the name service states that the
// name does not exist. The resolver maps it to the "absent" outcome.
var ErrNotFound = errors.New("resolver: name not found")

// ErrorCode categorizes resolution failures.
type ErrorCode string

const (
	// ErrCodeMalformedRecord indicates a record that is not a list of
	// base64(token)=base64(pattern) pairs.
	ErrCodeMalformedRecord ErrorCode = "MALFORMED_RECORD"

	// ErrCodeResolutionFailed indicates a transport failure or timeout.
	ErrCodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"

	// ErrCodeInvalidName indicates a dictionary name that cannot be turned
	// into a query name.
	ErrCodeInvalidName ErrorCode = "INVALID_NAME"
)

// Error is returned by Resolve for every outcome other than present or absent.
type Error struct {
	Code ErrorCode

	// Name is the dictionary name as given by the caller.
	Name string

	// Message describes the failure.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: resolve %q: %s", e.Code, e.Name, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a MALFORMED_RECORD failure.
func IsMalformed(err error) bool {
	return hasCode(err, ErrCodeMalformedRecord)
}

// IsResolutionFailed reports whether err is a RESOLUTION_FAILED failure.
func IsResolutionFailed(err error) bool {
	return hasCode(err, ErrCodeResolutionFailed)
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	return re.Code == code
}
