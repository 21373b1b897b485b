package harness

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/marqant/internal/clock"
	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/format"
	"github.com/roach88/marqant/internal/tokenizer"
)

// Harness holds the collaborators a scenario runs against.
type Harness struct {
	standards *dict.Registry
	logger    *slog.Logger
}

// New returns a harness resolving standards against registry
// (nil = the builtin registry).
func New(registry *dict.Registry) *Harness {
	if registry == nil {
		registry = dict.Standard()
	}
	return &Harness{
		standards: registry,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run executes a scenario against the builtin registry.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run encodes the scenario input, decodes it back and evaluates every
// assertion. An error is returned only when the input cannot be encoded at
// all; assertion failures are reported in the result.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	src := []byte(scenario.Input)
	enc := &format.Encoder{
		Clock:     clock.Fixed(scenario.Timestamp),
		Standards: h.standards,
		Logger:    h.logger,
	}

	doc, err := h.encode(enc, scenario, src)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Document = doc
	if scenario.Kind != KindDemo {
		result.Metadata = format.ReadMetadata(doc)
	}

	decoded, decodeErr := h.decode(scenario.Kind, doc)
	if decodeErr == nil {
		result.Decoded = decoded
	}

	for i, a := range scenario.Assertions {
		if err := h.check(scenario, a, src, result, decodeErr); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d] %s: %v", i, a.Type, err))
		}
	}
	return result, nil
}

func (h *Harness) encode(enc *format.Encoder, s *Scenario, src []byte) ([]byte, error) {
	switch s.Kind {
	case KindDemo:
		return tokenizer.EncodeDemo(src), nil
	case KindNative:
		flags, err := format.ParseFlags(s.Flags)
		if err != nil {
			return nil, err
		}
		return enc.EncodeNative(src, flags)
	case KindMQ2:
		d, err := h.mq2Dictionary(s.Dictionary, src)
		if err != nil {
			return nil, err
		}
		return enc.EncodeMQ2(src, d), nil
	default:
		return nil, fmt.Errorf("unknown kind %q", s.Kind)
	}
}

func (h *Harness) mq2Dictionary(name string, src []byte) (*dict.Dictionary, error) {
	switch name {
	case "", DictionaryDemo:
		return dict.Demo(), nil
	case DictionaryDerived:
		return tokenizer.Build(src, tokenizer.BuildOptions{})
	}
	d, ok := h.standards.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no standard dictionary named %q", name)
	}
	return d, nil
}

func (h *Harness) decode(kind string, doc []byte) ([]byte, error) {
	switch kind {
	case KindDemo:
		return tokenizer.DecodeDemo(doc)
	case KindNative:
		dec := &format.Decoder{Standards: h.standards}
		return dec.DecodeNative(doc)
	default:
		return format.DecodeMQ2(doc)
	}
}

func (h *Harness) check(s *Scenario, a Assertion, src []byte, r *Result, decodeErr error) error {
	switch a.Type {
	case AssertRoundTrip:
		if decodeErr != nil {
			return fmt.Errorf("decode failed: %w", decodeErr)
		}
		if !bytes.Equal(r.Decoded, src) {
			return fmt.Errorf("decoded %q, want %q", r.Decoded, src)
		}
	case AssertContains:
		if !bytes.Contains(r.Document, []byte(a.Value)) {
			return fmt.Errorf("document does not contain %q", a.Value)
		}
	case AssertNotContains:
		if bytes.Contains(r.Document, []byte(a.Value)) {
			return fmt.Errorf("document contains %q", a.Value)
		}
	case AssertMetadata:
		got, ok := metadataField(r.Metadata, a.Field)
		if !ok {
			return fmt.Errorf("unknown metadata field %q", a.Field)
		}
		if got != a.Expect {
			return fmt.Errorf("%s = %q, want %q", a.Field, got, a.Expect)
		}
	case AssertSmaller:
		n := bodyLen(s.Kind, r)
		if n >= len(src) {
			return fmt.Errorf("body is %d bytes, input is %d", n, len(src))
		}
	case AssertSections:
		parsed, err := format.ParseNative(r.Document)
		if err != nil {
			return err
		}
		stream, err := parsed.TokenStream()
		if err != nil {
			return err
		}
		got := format.SectionTitles(stream)
		if !slices.Equal(got, a.Titles) {
			return fmt.Errorf("section titles %q, want %q", got, a.Titles)
		}
	default:
		return fmt.Errorf("unknown assertion type")
	}
	return nil
}

func bodyLen(kind string, r *Result) int {
	if kind == KindDemo {
		return len(r.Document)
	}
	if r.Metadata.CompressedSize == nil {
		return len(r.Document)
	}
	return int(*r.Metadata.CompressedSize)
}

// metadataField renders one metadata field the way scenarios spell it.
// Absent optional values render as "".
func metadataField(m format.Metadata, field string) (string, bool) {
	num := func(p *uint64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatUint(*p, 10)
	}
	switch field {
	case "kind":
		return m.Kind, true
	case "variant":
		return m.Variant, true
	case "timestamp":
		return m.Timestamp, true
	case "original_size":
		return num(m.OriginalSize), true
	case "compressed_size":
		return num(m.CompressedSize), true
	case "token_count":
		return num(m.TokenCount), true
	case "level":
		return m.Level, true
	case "flags":
		return strings.Join(m.Flags, " "), true
	case "dict_id":
		return m.DictID, true
	default:
		return "", false
	}
}
