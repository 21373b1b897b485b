package resolver

import (
	"encoding/base64"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/roach88/marqant/internal/dict"
)

// Mapping is a resolved dictionary: decoded token bytes to decoded pattern
// bytes, both held as strings.
type Mapping map[string]string

// Dictionary converts m into a validated dictionary. Every key must be a
// single byte.
func (m Mapping) Dictionary() (*dict.Dictionary, error) {
	entries := make([]dict.Entry, 0, len(m))
	for k, v := range m {
		if len(k) != 1 {
			return nil, fmt.Errorf("token %q is %d bytes, want 1", k, len(k))
		}
		entries = append(entries, dict.Entry{Code: k[0], Pattern: []byte(v)})
	}
	return dict.New(dict.Sort(entries)...)
}

// Clone returns a copy that shares no state with m.
func (m Mapping) Clone() Mapping {
	return maps.Clone(m)
}

// Record renders m as a single record payload, pairs sorted by token.
func (m Mapping) Record() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, base64.StdEncoding.EncodeToString([]byte(k))+"="+
			base64.StdEncoding.EncodeToString([]byte(m[k])))
	}
	return strings.Join(pairs, " ")
}

// MappingOf converts a dictionary into a Mapping.
func MappingOf(d *dict.Dictionary) Mapping {
	m := make(Mapping, d.Len())
	for _, e := range d.Entries() {
		m[string([]byte{e.Code})] = string(e.Pattern)
	}
	return m
}

// ParseRecords decodes record payloads into one mapping. Each record holds
// one or more whitespace-separated pairs. A token repeated with a different
// pattern is malformed.
func ParseRecords(records []string) (Mapping, error) {
	m := make(Mapping)
	for _, rec := range records {
		for _, pair := range strings.Fields(rec) {
			token, pattern, err := parsePair(pair)
			if err != nil {
				return nil, err
			}
			if prev, ok := m[token]; ok && prev != pattern {
				return nil, fmt.Errorf("token %q maps to both %q and %q", token, prev, pattern)
			}
			m[token] = pattern
		}
	}
	return m, nil
}

// parsePair splits "base64(token)=base64(pattern)". Padding means '=' may
// appear on both sides, so the split is the first '=' whose left side is a
// complete base64 string and whose right side decodes.
func parsePair(pair string) (string, string, error) {
	if !strings.Contains(pair, "=") {
		return "", "", fmt.Errorf("pair %q has no '=' separator", pair)
	}
	for i := 1; i < len(pair); i++ {
		if pair[i] != '=' || i%4 != 0 {
			continue
		}
		token, err := base64.StdEncoding.DecodeString(pair[:i])
		if err != nil || len(token) == 0 {
			continue
		}
		pattern, err := base64.StdEncoding.DecodeString(pair[i+1:])
		if err != nil {
			continue
		}
		return string(token), string(pattern), nil
	}
	return "", "", fmt.Errorf("pair %q is not base64(token)=base64(pattern)", pair)
}
