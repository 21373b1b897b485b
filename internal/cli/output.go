package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/format"
	"github.com/roach88/marqant/internal/resolver"
	"github.com/roach88/marqant/internal/tokenizer"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation ran and failed (bad document, dictionary absent, ...)
	ExitCommandError = 2 // Command error (bad flags, unreadable input, bad config)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeReadFailed       = "E002" // Input could not be read
	ErrCodeConfig           = "E003" // Configuration invalid
	ErrCodeFormat           = "E004" // Document does not match its wire format
	ErrCodeNotFound         = "E005" // File, dictionary or record not found
	ErrCodeResolutionFailed = "E006" // Name service failure or timeout
	ErrCodeWriteFailed      = "E007" // Output could not be written
	ErrCodeMalformedRecord  = "E008" // Published record is malformed
	ErrCodeInvalidName      = "E009" // Dictionary name cannot be queried
	ErrCodeDictionary       = "E010" // Dictionary invalid or unloadable
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure for errors that are not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
// Values implementing fmt.Stringer control their own text rendering.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports an error and returns the ExitError the command should return.
func (f *OutputFormatter) Fail(exit int, code string, err error) error {
	details := errorDetails(err)
	if werr := f.Error(code, err.Error(), details); werr != nil {
		return werr
	}
	return WrapExitError(exit, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(msg string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), msg+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// errorCode maps a domain error to a CLI error code.
func errorCode(err error) string {
	var (
		fe *format.FormatError
		de *tokenizer.DecodeError
		ve *dict.ValidationError
		le *dict.LoadError
		re *resolver.Error
	)
	switch {
	case errors.As(err, &fe), errors.As(err, &de):
		return ErrCodeFormat
	case errors.As(err, &ve), errors.As(err, &le):
		return ErrCodeDictionary
	case errors.As(err, &re):
		switch re.Code {
		case resolver.ErrCodeMalformedRecord:
			return ErrCodeMalformedRecord
		case resolver.ErrCodeInvalidName:
			return ErrCodeInvalidName
		default:
			return ErrCodeResolutionFailed
		}
	}
	return ErrCodeGeneric
}

// errorDetails exposes the domain error code, if any.
func errorDetails(err error) any {
	var (
		fe *format.FormatError
		de *tokenizer.DecodeError
		ve *dict.ValidationError
		re *resolver.Error
	)
	switch {
	case errors.As(err, &fe):
		return map[string]string{"code": string(fe.Code)}
	case errors.As(err, &de):
		return map[string]any{"code": string(de.Code), "offset": de.Offset}
	case errors.As(err, &ve):
		return map[string]string{"code": string(ve.Code)}
	case errors.As(err, &re):
		return map[string]string{"code": string(re.Code), "name": re.Name}
	}
	return nil
}
