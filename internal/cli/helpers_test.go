package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marqant/internal/config"
)

// testOpts returns root options reading env instead of the process
// environment.
func testOpts(format string, env map[string]string) *RootOptions {
	return &RootOptions{
		Format: format,
		Getenv: func(k string) string { return env[k] },
	}
}

// execute runs cmd with stdin and args, returning stdout and stderr.
func execute(cmd *cobra.Command, stdin []byte, args ...string) (string, string, error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetIn(bytes.NewReader(stdin))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// mockDigScript writes a dig stand-in that answers by query name:
// _marqant.docs publishes two entries, _marqant.broken a malformed pair,
// _marqant.down fails, and every other name has no records.
func mockDigScript(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script mock requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "mock_dig")
	script := `#!/bin/sh
case "$3" in
  _marqant.docs) echo '"gA===IyA= gQ===LSA="' ;;
  _marqant.docs.dicts.example) echo '"gA===IyA="' ;;
  _marqant.broken) echo '"not-a-pair"' ;;
  _marqant.down) echo ';; connection timed out'; exit 9 ;;
  *) exit 0 ;;
esac
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// writeNoRetryConfig writes a config that disables resolver retries.
func writeNoRetryConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marqant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  retries: 0\n  timeout: 5s\n"), 0o644))
	return path
}

// resolveOpts wires the mock dig client with no retries.
func resolveOpts(t *testing.T, format string) *RootOptions {
	t.Helper()
	opts := testOpts(format, map[string]string{config.EnvDigCommand: mockDigScript(t)})
	opts.ConfigPath = writeNoRetryConfig(t)
	return opts
}
