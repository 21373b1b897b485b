package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marqant/internal/store"
)

// seedCache resolves docs (present) and nothing (absent) into a fresh cache.
func seedCache(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	_, _, err := execute(NewResolveCommand(resolveOpts(t, "text")), nil, "docs", "--cache-db", dbPath)
	require.NoError(t, err)
	_, _, err = execute(NewResolveCommand(resolveOpts(t, "text")), nil, "nothing", "--cache-db", dbPath)
	require.Error(t, err)
	return dbPath
}

func TestCacheList(t *testing.T) {
	dbPath := seedCache(t)

	out, _, err := execute(NewCacheCommand(testOpts("text", nil)), nil, "list", "--cache-db", dbPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "QNAME"))
	assert.True(t, strings.HasPrefix(lines[1], "_marqant.docs"))

	out, _, err = execute(NewCacheCommand(testOpts("json", nil)), nil, "list", "--cache-db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data []store.CachedDictionary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Data[0].Entries)
}

func TestCacheLog(t *testing.T) {
	dbPath := seedCache(t)

	out, _, err := execute(NewCacheCommand(testOpts("json", nil)), nil, "log", "--cache-db", dbPath)
	require.NoError(t, err)
	var all struct {
		Data []store.Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all.Data, 2)

	out, _, err = execute(NewCacheCommand(testOpts("json", nil)), nil, "log", "Nothing", "--cache-db", dbPath)
	require.NoError(t, err)
	var one struct {
		Data []store.Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &one))
	require.Len(t, one.Data, 1)
	assert.Equal(t, store.OutcomeAbsent, one.Data[0].Outcome)

	out, _, err = execute(NewCacheCommand(testOpts("text", nil)), nil, "log", "--cache-db", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSuffix(out, "\n"), "\n"), 2)
}

func TestCacheDrop(t *testing.T) {
	dbPath := seedCache(t)

	out, _, err := execute(NewCacheCommand(testOpts("text", nil)), nil, "drop", "docs", "--cache-db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "dropped _marqant.docs\n", out)

	out, _, err = execute(NewCacheCommand(testOpts("json", nil)), nil, "list", "--cache-db", dbPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "_marqant.docs")
}

func TestCacheRequiresDatabase(t *testing.T) {
	_, _, err := execute(NewCacheCommand(testOpts("text", nil)), nil, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
