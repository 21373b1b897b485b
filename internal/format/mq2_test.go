package format

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marqant/internal/clock"
	"github.com/roach88/marqant/internal/dict"
)

func testEncoder() *Encoder {
	return &Encoder{
		Clock:  clock.Fixed(0),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMQ2RoundTrip(t *testing.T) {
	inputs := map[string]string{
		"empty":    "",
		"list":     "# T\n\n- a\n- b\n",
		"code":     "```\n{\n  \"a\": [\n    1, 2\n  ]\n}\n```\n",
		"emoji":    "Hello 👋 World! 🌍\n# Title 🎯\n\n- Item 1 ✅\n- Item 2 ❌",
		"japanese": "この修正をありがとうございます！\n\n## 日本語\n",
	}
	dictionaries := map[string]*dict.Dictionary{
		"demo":  dict.Demo(),
		"std":   dict.StaticV1(),
		"empty": nil,
	}

	enc := testEncoder()
	for dname, d := range dictionaries {
		for name, in := range inputs {
			t.Run(dname+"/"+name, func(t *testing.T) {
				doc := enc.EncodeMQ2([]byte(in), d)
				out, err := DecodeMQ2(doc)
				require.NoError(t, err)
				assert.Equal(t, in, string(out))
			})
		}
	}
}

func TestMQ2Golden(t *testing.T) {
	doc := testEncoder().EncodeMQ2([]byte("# T\n\n- a\n- b\n"), dict.Demo())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "mq2_demo", doc)
}

func TestMQ2Header(t *testing.T) {
	src := []byte("# T\n\n- a\n- b\n")
	doc := testEncoder().EncodeMQ2(src, dict.Demo())

	parsed, err := ParseMQ2(doc)
	require.NoError(t, err)
	assert.Equal(t, MagicMQ2, parsed.Header.Magic)
	assert.Equal(t, VariantUNI, parsed.Header.Variant)
	assert.Equal(t, "00000000", parsed.Header.Timestamp)
	assert.Equal(t, uint64(len(src)), parsed.Header.OriginalSize)
	assert.Equal(t, uint64(len(parsed.Body)), parsed.Header.CompressedSize)
	assert.Equal(t, uint64(16), parsed.Header.TokenCount)
	assert.Equal(t, LevelText, parsed.Header.Level)
	assert.Equal(t, dict.Demo().Fingerprint(), parsed.Dictionary.Fingerprint())
}

func TestMQ2DictionarySectionIsSorted(t *testing.T) {
	d := dict.MustNew(
		dict.Entry{Code: 0x90, Pattern: []byte("zz")},
		dict.Entry{Code: 0x81, Pattern: []byte("aa")},
	)
	doc := testEncoder().EncodeMQ2([]byte("aazz"), d)

	section := doc[bytes.IndexByte(doc, '\n')+1:]
	require.True(t, bytes.HasPrefix(section, dict.SectionTag))
	assert.Equal(t, byte(0x81), section[2])
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(section[3:5]))
	assert.Equal(t, byte(0x90), section[7])
}

func TestMQ2TimestampFromClock(t *testing.T) {
	enc := testEncoder()
	enc.Clock = clock.Fixed(0x5F)

	doc := enc.EncodeMQ2([]byte("x"), nil)
	assert.True(t, bytes.HasPrefix(doc, []byte("MQ2~UNI~0000005F~1~1~0~text\n")), "%q", doc)
}

func TestMQ2Errors(t *testing.T) {
	valid := testEncoder().EncodeMQ2([]byte("# T\n\n- a\n"), dict.Demo())
	header := valid[:bytes.IndexByte(valid, '\n')+1]

	tests := []struct {
		name string
		doc  []byte
		code FormatErrorCode
	}{
		{"empty", nil, ErrCodeBadMagic},
		{"wrong magic", []byte("MQ3~UNI~0~0~0~0~text\n~T\n~~~~\n"), ErrCodeBadMagic},
		{"no newline", []byte("MQ2~UNI~0~0~0~0~text"), ErrCodeMissingHeader},
		{"short header", []byte("MQ2~UNI~0~0~text\n~T\n~~~~\n"), ErrCodeBadHeader},
		{"non-hex size", []byte("MQ2~UNI~0~zz~0~0~text\n~T\n~~~~\n"), ErrCodeBadHeader},
		{"no dictionary", []byte("MQ2~UNI~0~0~0~0~text\nbody"), ErrCodeMissingDictionary},
		{"no sentinel", []byte("MQ2~UNI~0~0~0~0~text\n~T"), ErrCodeMissingSentinel},
		{"truncated entry", append([]byte("MQ2~UNI~0~0~0~1~text\n~T\x80\x00\x09ab"), mq2Sentinel...), ErrCodeTruncatedDictionary},
		{"body size", append(bytes.Clone(valid), 'x'), ErrCodeSizeMismatch},
		{"header only", header, ErrCodeMissingDictionary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMQ2(tt.doc)
			require.Error(t, err)
			assert.True(t, IsFormatError(err, tt.code), "want %s, got %v", tt.code, err)
		})
	}
}

func TestMQ2RejectsInvalidDictionary(t *testing.T) {
	doc := []byte("MQ2~UNI~0~0~0~2~text\n~T\x80\x00\x01a\x80\x00\x01b\n~~~~\n")

	_, err := DecodeMQ2(doc)
	require.Error(t, err)
	assert.True(t, dict.IsValidationError(err, dict.ErrCodeDuplicateToken), "%v", err)
}

func TestMQ2OriginalSizeMismatch(t *testing.T) {
	doc := testEncoder().EncodeMQ2([]byte("abc"), nil)
	tampered := strings.Replace(string(doc), "~3~3~", "~4~3~", 1)

	_, err := DecodeMQ2([]byte(tampered))
	assert.True(t, IsFormatError(err, ErrCodeSizeMismatch), "%v", err)
}
