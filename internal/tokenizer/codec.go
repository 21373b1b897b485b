package tokenizer

import (
	"bytes"
	"sort"

	"github.com/roach88/marqant/internal/dict"
)

// Mode selects how literal high bytes are escaped.
type Mode int

const (
	// Lenient escapes only literal bytes that collide with an assigned code
	// or with the escape byte. Unknown high bytes decode as themselves.
	Lenient Mode = iota

	// Strict escapes every literal byte >= 0x80. Unknown high bytes are an
	// UNKNOWN_TOKEN error on decode.
	Strict
)

// candidate is one dictionary entry in a first-byte bucket.
type candidate struct {
	pattern []byte
	code    byte
}

// matcher finds the longest pattern at a position.
// Buckets are keyed by first byte and sorted by descending pattern length;
// the sort is stable so insertion order breaks equal-length ties.
type matcher struct {
	buckets [256][]candidate
}

func newMatcher(d *dict.Dictionary) *matcher {
	m := &matcher{}
	for _, e := range d.Entries() {
		b0 := e.Pattern[0]
		m.buckets[b0] = append(m.buckets[b0], candidate{pattern: e.Pattern, code: e.Code})
	}
	for i := range m.buckets {
		bucket := m.buckets[i]
		sort.SliceStable(bucket, func(a, b int) bool {
			return len(bucket[a].pattern) > len(bucket[b].pattern)
		})
	}
	return m
}

// match returns the code and length of the longest pattern that prefixes src.
// n == 0 means no pattern matches.
func (m *matcher) match(src []byte) (code byte, n int) {
	for _, c := range m.buckets[src[0]] {
		if len(c.pattern) <= len(src) && bytes.Equal(src[:len(c.pattern)], c.pattern) {
			return c.code, len(c.pattern)
		}
	}
	return 0, 0
}

// Encode substitutes dictionary patterns in src with their codes.
// A nil dictionary performs escaping only.
func Encode(src []byte, d *dict.Dictionary, mode Mode) []byte {
	m := newMatcher(d)
	used := d.Codes()

	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		if code, n := m.match(src[i:]); n > 0 {
			out = append(out, code)
			i += n
			continue
		}
		b := src[i]
		if needsEscape(b, &used, mode) {
			out = append(out, dict.Escape)
		}
		out = append(out, b)
		i++
	}
	return out
}

func needsEscape(b byte, used *[256]bool, mode Mode) bool {
	if b < dict.CodeMin {
		return false
	}
	return mode == Strict || b == dict.Escape || used[b]
}

// Decode expands the codes in src back into their patterns.
func Decode(src []byte, d *dict.Dictionary, mode Mode) ([]byte, error) {
	out := make([]byte, 0, len(src)*2)
	for i := 0; i < len(src); i++ {
		b := src[i]
		switch {
		case b == dict.Escape:
			if i+1 >= len(src) {
				return nil, &DecodeError{Code: ErrCodeTruncatedEscape, Offset: i, Token: b}
			}
			lit := src[i+1]
			if lit < dict.CodeMin {
				return nil, &DecodeError{Code: ErrCodeInvalidEscape, Offset: i, Token: lit}
			}
			out = append(out, lit)
			i++
		case b >= dict.CodeMin:
			if p, ok := d.Lookup(b); ok {
				out = append(out, p...)
				continue
			}
			if mode == Strict {
				return nil, &DecodeError{Code: ErrCodeUnknownToken, Offset: i, Token: b}
			}
			out = append(out, b)
		default:
			out = append(out, b)
		}
	}
	return out, nil
}

// EncodeDemo encodes src with the fixed MQ2-UNI demo dictionary in Strict
// mode. The output carries no framing; the dictionary is implied.
func EncodeDemo(src []byte) []byte {
	return Encode(src, dict.Demo(), Strict)
}

// DecodeDemo reverses EncodeDemo. Any high byte that is neither escaped nor a
// demo code is reported as UNKNOWN_TOKEN.
func DecodeDemo(src []byte) ([]byte, error) {
	return Decode(src, dict.Demo(), Strict)
}
