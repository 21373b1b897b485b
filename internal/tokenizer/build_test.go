package tokenizer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marqant/internal/dict"
)

func patterns(d *dict.Dictionary) []string {
	var out []string
	for _, e := range d.Entries() {
		out = append(out, string(e.Pattern))
	}
	return out
}

func TestSavings(t *testing.T) {
	assert.Equal(t, 4, Savings(10, 2))   // "# " x10
	assert.Equal(t, 1, Savings(4, 3))    // "## " x4
	assert.Equal(t, 0, Savings(6, 2))    // "- " x6 breaks even
	assert.Equal(t, -5, Savings(1, 2))   // single occurrence
	assert.Equal(t, -12, Savings(1, 10)) // long but unique
}

func TestTokenizeReducesLengthForRepetitions(t *testing.T) {
	content := []byte(strings.Repeat("# Title\n\n", 10))

	d, tokenized, err := Tokenize(content, BuildOptions{})
	require.NoError(t, err)
	assert.Greater(t, d.Len(), 0)
	assert.Less(t, len(tokenized), len(content))

	back, err := Decode(tokenized, d, Lenient)
	require.NoError(t, err)
	assert.Equal(t, content, back)
}

func TestBuildKeepsProfitableStaticTokens(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteString("## Heading\n\n")
	}
	b.WriteString("- a\n- b\n- c\n- d\n- e\n- f\n")

	d, err := Build([]byte(b.String()), BuildOptions{})
	require.NoError(t, err)

	got := patterns(d)
	assert.Contains(t, got, "## ")
	assert.NotContains(t, got, "- ", "six occurrences of a 2-byte pattern only break even")
}

func TestBuildExcludesSingleOccurrences(t *testing.T) {
	d, err := Build([]byte("# once upon a time\n"), BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
}

func TestBuildCountsUnterminatedLastLineOnce(t *testing.T) {
	for _, input := range []string{"abcdefgh", "intro\nabcdefghij", "abcdefghijkl\n\nabcdefghijkl"} {
		t.Run(input, func(t *testing.T) {
			d, err := Build([]byte(input), BuildOptions{})
			require.NoError(t, err)
			for _, e := range d.Entries() {
				assert.Greater(t, bytes.Count([]byte(input), e.Pattern), 1,
					"single-occurrence pattern %q kept", e.Pattern)
			}
		})
	}

	derived, encoded, err := Tokenize([]byte("abcdefgh"), BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, derived.Len())
	assert.Equal(t, []byte("abcdefgh"), encoded)
}

func TestBuildExcludesBaselinePatterns(t *testing.T) {
	content := []byte(strings.Repeat("# T\n\n## H\n\n- a\n- b\n", 20))
	baseline := dict.StaticV1()

	d, err := Build(content, BuildOptions{Baseline: baseline})
	require.NoError(t, err)

	for _, e := range d.Entries() {
		assert.False(t, baseline.HasPattern(e.Pattern), "derived entry %q duplicates the baseline", e.Pattern)
		assert.False(t, baseline.Has(e.Code), "derived code 0x%02X collides with the baseline", e.Code)
	}

	without, err := Build(content, BuildOptions{})
	require.NoError(t, err)
	assert.Contains(t, patterns(without), "# ")
}

func TestBuildAssignsCodesFromBaseInRankOrder(t *testing.T) {
	content := []byte(strings.Repeat("alpha beta\n", 6) + strings.Repeat("gamma\n", 3))

	d, err := Build(content, BuildOptions{})
	require.NoError(t, err)
	require.Greater(t, d.Len(), 1)

	entries := d.Entries()
	for i, e := range entries {
		assert.Equal(t, dict.CodeMin+byte(i), e.Code)
	}
	// "alpha beta\n" x6 outranks everything else
	assert.Equal(t, "alpha beta\n", string(entries[0].Pattern))
	for i := 1; i < len(entries); i++ {
		prev := Savings(strings.Count(string(content), string(entries[i-1].Pattern)), len(entries[i-1].Pattern))
		cur := Savings(strings.Count(string(content), string(entries[i].Pattern)), len(entries[i].Pattern))
		assert.GreaterOrEqual(t, prev, cur)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	content := []byte(strings.Repeat("# A\n\n## B\n\n**bold** text with link [x](y)\n", 5))

	first, err := Build(content, BuildOptions{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Build(content, BuildOptions{})
		require.NoError(t, err)
		assert.Equal(t, first.Entries(), again.Entries())
	}
}

func TestBuildRespectsMaxEntries(t *testing.T) {
	content := []byte(strings.Repeat("alpha beta gamma delta\n", 10))

	d, err := Build(content, BuildOptions{MaxEntries: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestBuildWordsNeverSplitMultiByteCharacters(t *testing.T) {
	content := []byte(strings.Repeat("日本語テキスト ", 8))

	d, err := Build(content, BuildOptions{})
	require.NoError(t, err)
	assert.Contains(t, patterns(d), "日本語テキスト")

	_, tokenized, err := Tokenize(content, BuildOptions{})
	require.NoError(t, err)
	back, err := Decode(tokenized, d, Lenient)
	require.NoError(t, err)
	assert.Equal(t, content, back)
}
