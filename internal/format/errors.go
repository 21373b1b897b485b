package format

import (
	"errors"
	"fmt"
)

// FormatError reports a document that does not match its wire format.
// Format errors are always fatal to the decode call.
type FormatError struct {
	// Code identifies the failure.
	Code FormatErrorCode

	// Message is a human-readable description.
	Message string
}

// FormatErrorCode categorizes framing failures.
type FormatErrorCode string

const (
	ErrCodeBadMagic            FormatErrorCode = "BAD_MAGIC"
	ErrCodeMissingHeader       FormatErrorCode = "MISSING_HEADER"
	ErrCodeBadHeader           FormatErrorCode = "BAD_HEADER"
	ErrCodeMissingDictionary   FormatErrorCode = "MISSING_DICTIONARY"
	ErrCodeTruncatedDictionary FormatErrorCode = "TRUNCATED_DICTIONARY"
	ErrCodeMissingSentinel     FormatErrorCode = "MISSING_SENTINEL"
	ErrCodeMissingSeparator    FormatErrorCode = "MISSING_SEPARATOR"
	ErrCodeBadDictionaryLine   FormatErrorCode = "BAD_DICTIONARY_LINE"
	ErrCodeUnknownFlag         FormatErrorCode = "UNKNOWN_FLAG"
	ErrCodeUnknownStandard     FormatErrorCode = "UNKNOWN_STANDARD"
	ErrCodeSizeMismatch        FormatErrorCode = "SIZE_MISMATCH"
	ErrCodeBadArmor            FormatErrorCode = "BAD_ARMOR"
	ErrCodeBadSectionMarker    FormatErrorCode = "BAD_SECTION_MARKER"
)

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func formatErr(code FormatErrorCode, format string, args ...any) *FormatError {
	return &FormatError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is a FormatError with the given code.
// An empty code matches any FormatError.
func IsFormatError(err error, code FormatErrorCode) bool {
	var fe *FormatError
	if !errors.As(err, &fe) {
		return false
	}
	return code == "" || fe.Code == code
}
