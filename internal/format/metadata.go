package format

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/roach88/marqant/internal/dict"
)

// KindUnknown marks input that matches neither wire family.
const KindUnknown = "UNKNOWN"

// Metadata describes a document without decoding its body.
// Optional fields are nil or empty when the header does not carry them.
type Metadata struct {
	Kind           string   `json:"kind"`
	Variant        string   `json:"variant,omitempty"`
	Timestamp      string   `json:"timestamp,omitempty"`
	OriginalSize   *uint64  `json:"original_size,omitempty"`
	CompressedSize *uint64  `json:"compressed_size,omitempty"`
	TokenCount     *uint64  `json:"token_count,omitempty"`
	Level          string   `json:"level,omitempty"`
	Flags          []string `json:"flags,omitempty"`
	DictID         string   `json:"dict_id,omitempty"`
}

// ReadMetadata probes doc. It never fails: whatever cannot be parsed is
// left unset, and unrecognized input reports Kind "UNKNOWN".
func ReadMetadata(doc []byte) Metadata {
	switch {
	case bytes.HasPrefix(doc, []byte(MagicMQ2+"~")):
		return readMQ2Metadata(doc)
	case bytes.HasPrefix(doc, []byte(MagicNative+" ")), bytes.Equal(doc, []byte(MagicNative)):
		return readNativeMetadata(doc)
	default:
		return Metadata{Kind: KindUnknown}
	}
}

func readMQ2Metadata(doc []byte) Metadata {
	m := Metadata{Kind: MagicMQ2}

	line, rest, hasRest := bytes.Cut(doc, []byte("\n"))
	parts := strings.Split(string(line), "~")
	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	m.Variant = field(1)
	m.Timestamp = field(2)
	m.OriginalSize = hexField(field(3))
	m.CompressedSize = hexField(field(4))
	m.TokenCount = hexField(field(5))
	m.Level = field(6)

	if hasRest {
		m.DictID = mq2DictID(rest)
	}
	return m
}

// mq2DictID fingerprints the dictionary section. A well-formed section is
// hashed in canonical form; anything else up to the sentinel is hashed raw.
func mq2DictID(rest []byte) string {
	if entries, _, err := parseMQ2Dictionary(rest); err == nil {
		if d, err := dict.New(dict.Sort(entries)...); err == nil {
			return d.Fingerprint()
		}
	}
	end := bytes.Index(rest, mq2Sentinel)
	if end < 0 {
		return ""
	}
	return dict.FingerprintBytes(rest[:end])
}

func readNativeMetadata(doc []byte) Metadata {
	m := Metadata{Kind: MagicNative}

	line, rest, hasRest := bytes.Cut(doc, []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) > 1 {
		m.Timestamp = fields[1]
	}
	if len(fields) > 2 {
		m.OriginalSize = decField(fields[2])
	}
	if len(fields) > 3 {
		m.CompressedSize = decField(fields[3])
	}
	if len(fields) > 4 {
		m.Flags = fields[4:]
	}

	if hasRest {
		if d, ok := nativeExplicitDictionary(rest); ok {
			n := uint64(d.Len())
			m.TokenCount = &n
			m.DictID = d.Fingerprint()
		}
	}
	return m
}

// nativeExplicitDictionary parses dictionary lines up to the separator.
func nativeExplicitDictionary(rest []byte) (*dict.Dictionary, bool) {
	var entries []dict.Entry
	for len(rest) > 0 {
		line, tail, _ := bytes.Cut(rest, []byte("\n"))
		rest = tail
		if string(line) == nativeSeparator {
			d, err := dict.New(dict.Sort(entries)...)
			return d, err == nil
		}
		entry, err := parseDictionaryLine(line)
		if err != nil {
			return nil, false
		}
		entries = append(entries, entry)
	}
	return nil, false
}

func hexField(s string) *uint64 {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return nil
	}
	return &v
}

func decField(s string) *uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
