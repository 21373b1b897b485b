package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marqant/internal/clock"
	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/resolver"
	"github.com/roach88/marqant/internal/testutil"
)

var _ resolver.Store = (*Store)(nil)

// createTestStore opens a fresh store in a temp dir with a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock.Fixed(1700000000)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"dictionaries", "resolutions"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestMappingCache(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	m := resolver.MappingOf(dict.StaticV1())

	_, ok, err := s.LoadMapping(ctx, "_marqant.docs")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveMapping(ctx, "_marqant.docs", m))
	got, ok, err := s.LoadMapping(ctx, "_marqant.docs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m, got)

	list, err := s.ListDictionaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, CachedDictionary{
		QName:     "_marqant.docs",
		DictID:    dict.StaticV1().Fingerprint(),
		Entries:   15,
		FetchedAt: 1700000000,
	}, list[0])

	require.NoError(t, s.DeleteMapping(ctx, "_marqant.docs"))
	require.NoError(t, s.DeleteMapping(ctx, "_marqant.docs"))
	_, ok, err = s.LoadMapping(ctx, "_marqant.docs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMappingCacheUpsert(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMapping(ctx, "_marqant.x", resolver.Mapping{"\x80": "a"}))
	require.NoError(t, s.SaveMapping(ctx, "_marqant.x", resolver.Mapping{"\x80": "b", "\x81": "c"}))

	got, ok, err := s.LoadMapping(ctx, "_marqant.x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resolver.Mapping{"\x80": "b", "\x81": "c"}, got)
}

func TestMappingWithoutDictionaryID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMapping(ctx, "_marqant.raw", resolver.Mapping{"\x01": "# "}))
	list, err := s.ListDictionaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].DictID)
}

func TestResolutionLog(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.LogResolution(ctx, Resolution{Name: "docs", QName: "_marqant.docs", Outcome: OutcomeAbsent})
	require.NoError(t, err)
	second, err := s.LogResolution(ctx, Resolution{Name: "docs", QName: "_marqant.docs", Outcome: OutcomePresent, DictID: "fnv1a64:0000000000000001"})
	require.NoError(t, err)
	_, err = s.LogResolution(ctx, Resolution{Name: "other", QName: "_marqant.other", Outcome: OutcomeFailed, Detail: "timeout"})
	require.NoError(t, err)

	id, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, int64(1700000000), first.ResolvedAt)

	docs, err := s.ListResolutions(ctx, "_marqant.docs", 0)
	require.NoError(t, err)
	assert.Equal(t, []Resolution{first, second}, docs)

	all, err := s.ListResolutions(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListResolutions(ctx, "", 1)
	require.NoError(t, err)
	assert.Equal(t, []Resolution{first}, limited)
}

func TestResolutionTimestampsFollowClock(t *testing.T) {
	clk := testutil.NewStepClock(1000, 60)
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithClock(clk))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.LogResolution(ctx, Resolution{Name: "docs", QName: "_marqant.docs", Outcome: OutcomeAbsent})
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveMapping(ctx, "_marqant.docs", resolver.Mapping{"\x80": "# "}))

	rows, err := s.ListResolutions(ctx, "_marqant.docs", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{1000, 1060, 1120}, []int64{rows[0].ResolvedAt, rows[1].ResolvedAt, rows[2].ResolvedAt})

	cached, err := s.ListDictionaries(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, int64(1180), cached[0].FetchedAt)
}

func TestLogResolutionRejectsUnknownOutcome(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LogResolution(context.Background(), Resolution{Name: "x", QName: "_marqant.x", Outcome: "maybe"})
	assert.Error(t, err)
}

func TestStoreBacksResolver(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveMapping(ctx, "_marqant.docs", resolver.Mapping{"\x80": "# "}))

	r := resolver.New(failingClient{}, resolver.Options{Store: s})
	m, found, err := r.Resolve(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "# ", m["\x80"])
}

type failingClient struct{}

func (failingClient) Query(context.Context, string) ([]string, error) {
	return nil, assert.AnError
}

func TestLoadMappingCorruptRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dictionaries (qname, record, dict_id, entries, fetched_at) VALUES (?, ?, '', 1, 0)`,
		"_marqant.docs", "not-a-pair")
	require.NoError(t, err)

	_, ok, err := s.LoadMapping(ctx, "_marqant.docs")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "corrupt record")

	// The resolver logs the bad row and falls through to a fresh query,
	// which overwrites it.
	fake := testutil.NewFakeClient()
	fake.Set("_marqant.docs", testutil.Present("gA==IyA="))
	r := resolver.New(fake, resolver.Options{Store: s})
	m, found, err := r.Resolve(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, resolver.Mapping{"\x80": "# "}, m)
	assert.Equal(t, 1, fake.Calls("_marqant.docs"))

	got, ok, err := s.LoadMapping(ctx, "_marqant.docs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, m, got)
}
