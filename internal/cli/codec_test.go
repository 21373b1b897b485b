package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoDoc = "MQ2~UNI~00000000~D~9~10~text\n"

func TestUniEncode(t *testing.T) {
	cmd := NewUniEncodeCommand(testOpts("text", nil))
	out, _, err := execute(cmd, []byte("# T\n\n- a\n- b\n"), "--timestamp", "0")
	require.NoError(t, err)

	assert.True(t, len(out) > len(demoDoc))
	assert.Equal(t, demoDoc, out[:len(demoDoc)])
	assert.Equal(t, "\x84T\x80- a\x82b\n", out[len(out)-9:])
}

func TestUniEncodeDecodeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"# Café\n\n```\ncode\n```\n",
		"\xff\x80 raw high bytes",
	}
	for _, dictFlag := range []string{"mq2-uni-demo", "std-static-v1", "derived"} {
		for _, in := range inputs {
			doc, _, err := execute(NewUniEncodeCommand(testOpts("text", nil)), []byte(in), "--dict", dictFlag)
			require.NoError(t, err)

			out, _, err := execute(NewUniDecodeCommand(testOpts("text", nil)), []byte(doc))
			require.NoError(t, err, "dict=%s input=%q", dictFlag, in)
			assert.Equal(t, in, out)
		}
	}
}

func TestUniEncodeDictionaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: team\nentries:\n  - code: 0xA0\n    pattern: \"hello\"\n"), 0o644))

	doc, _, err := execute(NewUniEncodeCommand(testOpts("text", nil)), []byte("hello hello"), "--dict", path, "--timestamp", "0")
	require.NoError(t, err)
	assert.Contains(t, doc, "~1~text\n")
	assert.Contains(t, doc, "\xa0 \xa0")
}

func TestUniEncodeUnknownDictionary(t *testing.T) {
	_, stderr, err := execute(NewUniEncodeCommand(testOpts("text", nil)), []byte("x"), "--dict", "no-such-dictionary")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "no-such-dictionary")
}

func TestUniRaw(t *testing.T) {
	raw, _, err := execute(NewUniEncodeCommand(testOpts("text", nil)), []byte("# T\n\n- a\n- b\n"), "--raw")
	require.NoError(t, err)
	assert.Equal(t, "\x84T\x80- a\x82b\n", raw)

	out, _, err := execute(NewUniDecodeCommand(testOpts("text", nil)), []byte(raw), "--raw")
	require.NoError(t, err)
	assert.Equal(t, "# T\n\n- a\n- b\n", out)
}

func TestUniDecodeRawUnknownToken(t *testing.T) {
	_, stderr, err := execute(NewUniDecodeCommand(testOpts("json", nil)), []byte("a\xc0b"), "--raw")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, `"code":"E004"`)
	assert.Contains(t, stderr, "UNKNOWN_TOKEN")
}

func TestUniDecodeErrors(t *testing.T) {
	_, stderr, err := execute(NewUniDecodeCommand(testOpts("text", nil)), []byte("MARQANT 0 1 1\n---\nx"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E004]")
	assert.Contains(t, stderr, "BAD_MAGIC")
}

func TestUniDecodeFromFile(t *testing.T) {
	doc, _, err := execute(NewUniEncodeCommand(testOpts("text", nil)), []byte("## Notes\n"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "doc.mq2")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, _, err := execute(NewUniDecodeCommand(testOpts("text", nil)), nil, path)
	require.NoError(t, err)
	assert.Equal(t, "## Notes\n", out)
}

func TestUniDecodeMissingFile(t *testing.T) {
	_, stderr, err := execute(NewUniDecodeCommand(testOpts("text", nil)), nil, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, ErrCodeReadFailed)
}
