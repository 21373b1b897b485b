package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "marqant", cmd.Use)
	assert.Contains(t, cmd.Long, "MQ2")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"uni-encode"}, {"uni-decode"}, {"compress"}, {"decompress"}, {"meta"}, {"resolve"},
		{"dict", "show"}, {"dict", "fingerprint"}, {"dict", "list"},
		{"cache", "list"}, {"cache", "log"}, {"cache", "drop"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestCompressCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compressCmd, _, err := cmd.Find([]string{"compress"})
	require.NoError(t, err)

	for _, name := range []string{"flags", "timestamp", "std-file"} {
		assert.NotNil(t, compressCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "-1", compressCmd.Flags().Lookup("timestamp").DefValue)
}

func TestResolveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	resolveCmd, _, err := cmd.Find([]string{"resolve"})
	require.NoError(t, err)

	for _, name := range []string{"zone", "cache-db", "refresh"} {
		assert.NotNil(t, resolveCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	_, stderr, err := execute(cmd, nil, "--format", "xml", "dict", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, `invalid format "xml"`)
}

func TestInvalidConfig(t *testing.T) {
	cmd := NewRootCommand()
	_, stderr, err := execute(cmd, nil, "--config", "/nonexistent/marqant.yaml", "dict", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, ErrCodeConfig)
}

func TestRootRoundTripThroughSubcommands(t *testing.T) {
	src := []byte("# Title\n\n- one\n- two\n")

	doc, _, err := execute(NewRootCommand(), src, "compress", "--flags", "-semantic -zlib", "--timestamp", "0")
	require.NoError(t, err)

	out, _, err := execute(NewRootCommand(), []byte(doc), "decompress")
	require.NoError(t, err)
	assert.Equal(t, string(src), out)
}
