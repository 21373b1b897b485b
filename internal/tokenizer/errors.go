package tokenizer

import (
	"errors"
	"fmt"
)

// DecodeError reports a token stream that cannot be decoded.
type DecodeError struct {
	// Code identifies the failure.
	Code DecodeErrorCode

	// Offset is the byte offset in the token stream.
	Offset int

	// Token is the offending byte.
	Token byte
}

// DecodeErrorCode categorizes decode failures.
type DecodeErrorCode string

const (
	// ErrCodeUnknownToken indicates a byte in the token range with no dictionary entry.
	ErrCodeUnknownToken DecodeErrorCode = "UNKNOWN_TOKEN"

	// ErrCodeTruncatedEscape indicates the stream ends right after an escape byte.
	ErrCodeTruncatedEscape DecodeErrorCode = "TRUNCATED_ESCAPE"

	// ErrCodeInvalidEscape indicates an escape byte followed by a byte that is never escaped.
	ErrCodeInvalidEscape DecodeErrorCode = "INVALID_ESCAPE"
)

// Error implements the error interface.
func (e *DecodeError) Error() string {
	switch e.Code {
	case ErrCodeUnknownToken:
		return fmt.Sprintf("%s: 0x%02X at offset %d", e.Code, e.Token, e.Offset)
	case ErrCodeTruncatedEscape:
		return fmt.Sprintf("%s: stream ends after escape at offset %d", e.Code, e.Offset)
	default:
		return fmt.Sprintf("%s: escape followed by 0x%02X at offset %d", e.Code, e.Token, e.Offset)
	}
}

// IsUnknownToken reports whether err is an unknown-token decode error.
func IsUnknownToken(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code == ErrCodeUnknownToken
	}
	return false
}
