package tokenizer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/roach88/marqant/internal/dict"
)

// Candidate bounds.
const (
	minWordLen = 4
	maxWordLen = 32
	minLineLen = 3
	maxLineLen = 64

	// entryOverhead is the framing cost of one dictionary entry beyond its
	// pattern bytes: "HH=" plus the line terminator in the native format.
	entryOverhead = 4
)

// markdownTokens are structural candidates anchored at markdown punctuation.
// Single-byte patterns are never listed: they cannot save anything.
var markdownTokens = []string{
	"# ", "## ", "### ", "#### ",
	"- ", "* ", "+ ", "1. ", "> ",
	"**", "__", "```", "~~~", "---",
	"\n\n", "\n- ", "\n* ", "\n> ",
	"  ", "    ", "](", "![", "| ", " |",
}

// BuildOptions configures derived dictionary construction.
type BuildOptions struct {
	// Baseline is a standard dictionary already known to both sides.
	// Its patterns are never re-derived and its codes are never reused.
	Baseline *dict.Dictionary

	// MaxEntries caps the derived dictionary size (0 = every free code).
	MaxEntries int
}

type buildCandidate struct {
	pattern []byte
	count   int
	first   int
	static  bool // counted up front; never incremented by scans
}

// Savings is the net byte reduction of replacing count occurrences of a
// pattern of length n with a single code, after paying for its entry.
func Savings(count, n int) int {
	return count*(n-1) - (n + entryOverhead)
}

// Build derives a dictionary from src.
//
// Candidates are the markdown punctuation tokens, word runs (letters, digits,
// '_' and bytes >= 0x80, so a run never splits a multi-byte character) of
// 4-32 bytes, and whole lines with their newline of 3-64 bytes. Only
// candidates with positive Savings survive.
//
// Ranking is the determinism contract: descending savings, then earliest
// first occurrence, then pattern bytes. Codes are assigned ascending from
// dict.CodeMin in rank order, skipping codes held by the baseline.
func Build(src []byte, opts BuildOptions) (*dict.Dictionary, error) {
	cands := collectCandidates(src)

	kept := cands[:0]
	for _, c := range cands {
		if Savings(c.count, len(c.pattern)) <= 0 {
			continue
		}
		if opts.Baseline.HasPattern(c.pattern) {
			continue
		}
		kept = append(kept, c)
	}

	sort.Slice(kept, func(i, j int) bool {
		si, sj := Savings(kept[i].count, len(kept[i].pattern)), Savings(kept[j].count, len(kept[j].pattern))
		if si != sj {
			return si > sj
		}
		if kept[i].first != kept[j].first {
			return kept[i].first < kept[j].first
		}
		return bytes.Compare(kept[i].pattern, kept[j].pattern) < 0
	})

	free := freeCodes(opts.Baseline)
	limit := len(free)
	if opts.MaxEntries > 0 && opts.MaxEntries < limit {
		limit = opts.MaxEntries
	}
	if len(kept) < limit {
		limit = len(kept)
	}

	entries := make([]dict.Entry, limit)
	for i := 0; i < limit; i++ {
		entries[i] = dict.Entry{Code: free[i], Pattern: kept[i].pattern}
	}

	d, err := dict.New(entries...)
	if err != nil {
		return nil, fmt.Errorf("build dictionary: %w", err)
	}
	return d, nil
}

// Tokenize builds a derived dictionary for src and encodes src with the
// baseline and derived entries combined. The returned dictionary holds only
// the derived entries.
func Tokenize(src []byte, opts BuildOptions) (*dict.Dictionary, []byte, error) {
	derived, err := Build(src, opts)
	if err != nil {
		return nil, nil, err
	}
	full, err := dict.Merge(opts.Baseline, derived)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenize: %w", err)
	}
	return derived, Encode(src, full, Lenient), nil
}

// freeCodes lists assignable codes not held by baseline, ascending.
func freeCodes(baseline *dict.Dictionary) []byte {
	used := baseline.Codes()
	free := make([]byte, 0, int(dict.CodeMax-dict.CodeMin)+1)
	for c := int(dict.CodeMin); c <= int(dict.CodeMax); c++ {
		if !used[c] {
			free = append(free, byte(c))
		}
	}
	return free
}

// collectCandidates counts every candidate in src. The result order is
// deterministic (first occurrence, then pattern) but not yet ranked.
func collectCandidates(src []byte) []*buildCandidate {
	seen := make(map[string]*buildCandidate)
	var order []*buildCandidate

	// A single-word last line without a newline is found by both scans at
	// the same offset; it occurs once.
	type occurrence struct {
		pattern string
		at      int
	}
	counted := make(map[occurrence]bool)

	add := func(p []byte, at int) {
		occ := occurrence{string(p), at}
		if counted[occ] {
			return
		}
		counted[occ] = true
		if c, ok := seen[string(p)]; ok {
			if !c.static {
				c.count++
			}
			return
		}
		c := &buildCandidate{pattern: bytes.Clone(p), count: 1, first: at}
		seen[string(p)] = c
		order = append(order, c)
	}

	// Markdown tokens: non-overlapping occurrence counts.
	for _, tok := range markdownTokens {
		p := []byte(tok)
		first := bytes.Index(src, p)
		if first < 0 {
			continue
		}
		c := &buildCandidate{pattern: p, count: bytes.Count(src, p), first: first, static: true}
		seen[tok] = c
		order = append(order, c)
	}

	// Word runs.
	for i := 0; i < len(src); {
		if !isWordByte(src[i]) {
			i++
			continue
		}
		j := i
		for j < len(src) && isWordByte(src[j]) {
			j++
		}
		if n := j - i; n >= minWordLen && n <= maxWordLen {
			add(src[i:j], i)
		}
		i = j
	}

	// Whole lines, newline included when present.
	for start := 0; start < len(src); {
		end := bytes.IndexByte(src[start:], '\n')
		if end < 0 {
			end = len(src)
		} else {
			end = start + end + 1
		}
		if n := end - start; n >= minLineLen && n <= maxLineLen {
			add(src[start:end], start)
		}
		start = end
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].first != order[j].first {
			return order[i].first < order[j].first
		}
		return bytes.Compare(order[i].pattern, order[j].pattern) < 0
	})
	return order
}

func isWordByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '_':
		return true
	default:
		return b >= 0x80
	}
}
