package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/format"
	"github.com/roach88/marqant/internal/resolver"
	"github.com/roach88/marqant/internal/tokenizer"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeFormat, "bad header", map[string]string{"code": "BAD_HEADER"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFormat, resp.Error.Code)
	assert.Equal(t, "bad header", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("fnv1a64:0000000000000000"))
	assert.Equal(t, "fnv1a64:0000000000000000\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeGeneric, "it broke", map[string]string{"k": "v"}))
	assert.Contains(t, buf.String(), "Error [E001]: it broke")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeGeneric, "it broke", map[string]string{"k": "v"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			formatter.VerboseLog("Processing %s", "doc.md")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Processing doc.md")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	_, parseErr := format.ParseNative([]byte("nope\n"))
	err := formatter.Fail(ExitFailure, errorCode(parseErr), parseErr)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, format.IsFormatError(err, format.ErrCodeBadMagic))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFormat, resp.Error.Code)
	assert.Equal(t, map[string]any{"code": "BAD_MAGIC"}, resp.Error.Details)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"format", &format.FormatError{Code: format.ErrCodeBadHeader}, ErrCodeFormat},
		{"decode", fmt.Errorf("wrapped: %w", &tokenizer.DecodeError{Code: tokenizer.ErrCodeUnknownToken}), ErrCodeFormat},
		{"validation", &dict.ValidationError{Code: dict.ErrCodeEmptyPattern}, ErrCodeDictionary},
		{"load", &dict.LoadError{Path: "x.yaml", Message: "bad"}, ErrCodeDictionary},
		{"malformed", &resolver.Error{Code: resolver.ErrCodeMalformedRecord}, ErrCodeMalformedRecord},
		{"failed", &resolver.Error{Code: resolver.ErrCodeResolutionFailed}, ErrCodeResolutionFailed},
		{"invalid", &resolver.Error{Code: resolver.ErrCodeInvalidName}, ErrCodeInvalidName},
		{"other", errors.New("boom"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad flag"))))

	wrapped := WrapExitError(ExitFailure, "decode", errors.New("inner"))
	assert.Equal(t, "decode: inner", wrapped.Error())
}
