package dict

import (
	"errors"
	"fmt"
)

// ValidationError reports a dictionary that violates the model invariants.
type ValidationError struct {
	// Code identifies the violated invariant.
	Code ValidationErrorCode

	// Token is the offending code byte (0 when not applicable).
	Token byte

	// Index is the position of the offending entry in the input order.
	Index int
}

// ValidationErrorCode categorizes validation failures.
type ValidationErrorCode string

const (
	// ErrCodeDuplicateToken indicates two entries share a code.
	ErrCodeDuplicateToken ValidationErrorCode = "DUPLICATE_TOKEN"

	// ErrCodeEmptyPattern indicates an entry with a zero-length pattern.
	ErrCodeEmptyPattern ValidationErrorCode = "EMPTY_PATTERN"

	// ErrCodeReservedCode indicates a code outside 0x80-0xFE.
	ErrCodeReservedCode ValidationErrorCode = "RESERVED_CODE_USED"

	// ErrCodePatternTooLong indicates a pattern that cannot be framed (> 65535 bytes).
	ErrCodePatternTooLong ValidationErrorCode = "PATTERN_TOO_LONG"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Code {
	case ErrCodeDuplicateToken:
		return fmt.Sprintf("%s: code 0x%02X assigned twice (entry %d)", e.Code, e.Token, e.Index)
	case ErrCodeEmptyPattern:
		return fmt.Sprintf("%s: code 0x%02X has an empty pattern (entry %d)", e.Code, e.Token, e.Index)
	case ErrCodeReservedCode:
		return fmt.Sprintf("%s: code 0x%02X is outside 0x80-0xFE (entry %d)", e.Code, e.Token, e.Index)
	default:
		return fmt.Sprintf("%s: code 0x%02X (entry %d)", e.Code, e.Token, e.Index)
	}
}

// IsValidationError reports whether err is a ValidationError with the given code.
// An empty code matches any ValidationError.
func IsValidationError(err error, code ValidationErrorCode) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return code == "" || ve.Code == code
}
