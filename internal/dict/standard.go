package dict

import (
	"fmt"
	"sort"
	"sync"
)

// Builtin dictionary names.
const (
	DemoName    = "mq2-uni-demo"
	StdStaticV1 = "std-static-v1"
	DemoDictID  = "mq2-uni-demo-0001"
)

// demoEntries is the fixed MQ2-UNI demo set. Order matters: it is the
// equal-length tie-break for encode.
var demoEntries = []struct {
	code    byte
	pattern string
}{
	{0x80, "\n\n"},
	{0x81, "  "},
	{0x82, "\n- "},
	{0x83, "## "},
	{0x84, "# "},
	{0x85, "```\n"},
	{0x86, "```"},
	{0x87, "{\n"},
	{0x88, "}\n"},
	{0x89, "[\n"},
	{0x8A, "\n]"},
	{0x8B, ": "},
	{0x8C, ", "},
	{0x8D, "\""},
	{0x8E, "    "},
	{0x8F, "\n\n\n"},
}

// stdStaticV1Entries occupies the top of the code space so derived
// dictionaries can still start at CodeMin.
var stdStaticV1Entries = []struct {
	code    byte
	pattern string
}{
	{0xF0, "# "},
	{0xF1, "## "},
	{0xF2, "### "},
	{0xF3, "#### "},
	{0xF4, "- "},
	{0xF5, "* "},
	{0xF6, "1. "},
	{0xF7, "> "},
	{0xF8, "**"},
	{0xF9, "```"},
	{0xFA, "\n\n"},
	{0xFB, "]("},
	{0xFC, "    "},
	{0xFD, "\n- "},
	{0xFE, "---"},
}

// Demo returns the fixed MQ2-UNI demo dictionary (codes 0x80-0x8F).
func Demo() *Dictionary {
	entries := make([]Entry, len(demoEntries))
	for i, e := range demoEntries {
		entries[i] = Entry{Code: e.code, Pattern: []byte(e.pattern)}
	}
	return MustNew(entries...)
}

// StaticV1 returns the "std-static-v1" baseline dictionary.
func StaticV1() *Dictionary {
	entries := make([]Entry, len(stdStaticV1Entries))
	for i, e := range stdStaticV1Entries {
		entries[i] = Entry{Code: e.code, Pattern: []byte(e.pattern)}
	}
	return MustNew(entries...)
}

// Registry maps names to fixed dictionaries. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	dicts map[string]*Dictionary
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{dicts: make(map[string]*Dictionary)}
}

// Standard returns a new registry holding the builtin dictionaries.
func Standard() *Registry {
	r := NewRegistry()
	r.dicts[StdStaticV1] = StaticV1()
	r.dicts[DemoName] = Demo()
	return r
}

// Register adds d under name. Registering a name twice is an error unless
// both dictionaries have the same fingerprint.
func (r *Registry) Register(name string, d *Dictionary) error {
	if name == "" {
		return fmt.Errorf("register dictionary: empty name")
	}
	if d == nil {
		return fmt.Errorf("register dictionary %q: nil dictionary", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.dicts[name]; ok && existing.Fingerprint() != d.Fingerprint() {
		return fmt.Errorf("register dictionary %q: already registered with %s", name, existing.Fingerprint())
	}
	r.dicts[name] = d
	return nil
}

// Lookup returns the dictionary registered under name.
func (r *Registry) Lookup(name string) (*Dictionary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dicts[name]
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.dicts))
	for n := range r.dicts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
