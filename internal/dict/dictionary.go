package dict

import (
	"bytes"
	"sort"
)

// Code space boundaries.
const (
	CodeMin byte = 0x80 // first assignable code
	CodeMax byte = 0xFE // last assignable code
	Escape  byte = 0xFF // reserved; never assigned

	// MaxPatternLen is the largest pattern the MQ2 framing can carry (u16 length).
	MaxPatternLen = 0xFFFF
)

// Entry is a single code -> pattern pair.
type Entry struct {
	Code    byte   `json:"code" yaml:"code"`
	Pattern []byte `json:"pattern" yaml:"pattern"`
}

// Dictionary is an immutable, validated mapping from codes to patterns.
// The zero value is an empty dictionary.
type Dictionary struct {
	entries []Entry
	byCode  [256]int // code -> index+1, 0 means absent
}

// IsAssignable reports whether b may be used as a token code.
func IsAssignable(b byte) bool {
	return b >= CodeMin && b <= CodeMax
}

// New validates entries and returns a Dictionary preserving their order.
// Patterns are copied; later mutation of the inputs does not affect the result.
func New(entries ...Entry) (*Dictionary, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	d := &Dictionary{entries: make([]Entry, len(entries))}
	for i, e := range entries {
		d.entries[i] = Entry{Code: e.Code, Pattern: bytes.Clone(e.Pattern)}
		d.byCode[e.Code] = i + 1
	}
	return d, nil
}

// MustNew is like New but panics on error.
// Use only for tables known to be valid.
func MustNew(entries ...Entry) *Dictionary {
	d, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return d
}

// Validate checks the model invariants over entries in order.
// The first violation found is returned as a *ValidationError.
func Validate(entries []Entry) error {
	var seen [256]bool
	for i, e := range entries {
		if !IsAssignable(e.Code) {
			return &ValidationError{Code: ErrCodeReservedCode, Token: e.Code, Index: i}
		}
		if seen[e.Code] {
			return &ValidationError{Code: ErrCodeDuplicateToken, Token: e.Code, Index: i}
		}
		seen[e.Code] = true
		if len(e.Pattern) == 0 {
			return &ValidationError{Code: ErrCodeEmptyPattern, Token: e.Code, Index: i}
		}
		if len(e.Pattern) > MaxPatternLen {
			return &ValidationError{Code: ErrCodePatternTooLong, Token: e.Code, Index: i}
		}
	}
	return nil
}

// Sort returns a copy of entries ordered by ascending code.
// The sort is stable, so entries sharing a code keep their relative order
// (Validate rejects such input, but Sort itself does not care).
func Sort(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Merge returns a dictionary holding base's entries followed by extra's.
// Either argument may be nil. The result is re-validated, so overlapping
// codes surface as DUPLICATE_TOKEN.
func Merge(base, extra *Dictionary) (*Dictionary, error) {
	var all []Entry
	if base != nil {
		all = append(all, base.entries...)
	}
	if extra != nil {
		all = append(all, extra.entries...)
	}
	return New(all...)
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns a copy of the entries in insertion order.
func (d *Dictionary) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Sorted returns a copy of the entries in canonical (ascending code) order.
func (d *Dictionary) Sorted() []Entry {
	if d == nil {
		return nil
	}
	return Sort(d.entries)
}

// Lookup returns the pattern for code. The returned slice must not be modified.
func (d *Dictionary) Lookup(code byte) ([]byte, bool) {
	if d == nil {
		return nil, false
	}
	idx := d.byCode[code]
	if idx == 0 {
		return nil, false
	}
	return d.entries[idx-1].Pattern, true
}

// Has reports whether code is assigned.
func (d *Dictionary) Has(code byte) bool {
	return d != nil && d.byCode[code] != 0
}

// HasPattern reports whether any entry expands to exactly p.
func (d *Dictionary) HasPattern(p []byte) bool {
	if d == nil {
		return false
	}
	for _, e := range d.entries {
		if bytes.Equal(e.Pattern, p) {
			return true
		}
	}
	return false
}

// Codes returns the set of assigned codes as a 256-entry membership table.
func (d *Dictionary) Codes() [256]bool {
	var used [256]bool
	if d == nil {
		return used
	}
	for _, e := range d.entries {
		used[e.Code] = true
	}
	return used
}
