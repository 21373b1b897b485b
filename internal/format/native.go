package format

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/tokenizer"
)

// MagicNative is the first header field of a native document.
const MagicNative = "MARQANT"

// nativeSeparator ends the dictionary lines.
const nativeSeparator = "---"

// NativeHeader holds the parsed native header line.
type NativeHeader struct {
	Timestamp      string // decimal, as written
	OriginalSize   uint64
	CompressedSize uint64
	Flags          Flags
}

// NativeDocument is a parsed native document. Explicit holds only the
// dictionary lines; the baseline named by Flags.Standard is not included.
type NativeDocument struct {
	Header   NativeHeader
	Explicit *dict.Dictionary
	Body     []byte // as emitted, before any inverse transform
}

// EncodeNative derives a dictionary for src and frames it with the
// transforms selected by flags.
func (e *Encoder) EncodeNative(src []byte, flags Flags) ([]byte, error) {
	var baseline *dict.Dictionary
	if flags.Standard != "" {
		b, ok := e.standards().Lookup(flags.Standard)
		if !ok {
			return nil, formatErr(ErrCodeUnknownStandard, "no standard dictionary named %q", flags.Standard)
		}
		baseline = b
	}

	derived, err := tokenizer.Build(src, tokenizer.BuildOptions{Baseline: baseline})
	if err != nil {
		return nil, fmt.Errorf("build dictionary: %w", err)
	}
	full, err := dict.Merge(baseline, derived)
	if err != nil {
		return nil, fmt.Errorf("merge baseline: %w", err)
	}

	var body []byte
	if flags.Semantic {
		body = encodeSections(src, full)
	} else {
		body = tokenizer.Encode(src, full, tokenizer.Lenient)
	}
	if flags.Zlib {
		if body, err = armor(body); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d %d %d", MagicNative, e.clock().Now(), len(src), len(body))
	for _, f := range flags.Fields() {
		buf.WriteByte(' ')
		buf.WriteString(f)
	}
	buf.WriteByte('\n')
	for _, entry := range derived.Sorted() {
		fmt.Fprintf(&buf, "%02X=", entry.Code)
		buf.Write(escapePattern(entry.Pattern))
		buf.WriteByte('\n')
	}
	buf.WriteString(nativeSeparator + "\n")
	buf.Write(body)

	e.logger().Debug("native document encoded",
		"flags", flags.String(),
		"original_size", len(src),
		"compressed_size", len(body),
		"explicit_entries", derived.Len())
	return buf.Bytes(), nil
}

// DecodeNative reverses EncodeNative: unarmor, strip section markers, then
// detokenize with the baseline plus the explicit entries.
func (d *Decoder) DecodeNative(doc []byte) ([]byte, error) {
	parsed, err := ParseNative(doc)
	if err != nil {
		return nil, err
	}
	flags := parsed.Header.Flags

	var baseline *dict.Dictionary
	if flags.Standard != "" {
		b, ok := d.standards().Lookup(flags.Standard)
		if !ok {
			return nil, formatErr(ErrCodeUnknownStandard, "no standard dictionary named %q", flags.Standard)
		}
		baseline = b
	}
	full, err := dict.Merge(baseline, parsed.Explicit)
	if err != nil {
		return nil, fmt.Errorf("native dictionary: %w", err)
	}

	body, err := parsed.TokenStream()
	if err != nil {
		return nil, err
	}
	if flags.Semantic {
		if body, err = stripSections(body); err != nil {
			return nil, err
		}
	}

	out, err := tokenizer.Decode(body, full, tokenizer.Lenient)
	if err != nil {
		return nil, fmt.Errorf("decode native body: %w", err)
	}
	if uint64(len(out)) != parsed.Header.OriginalSize {
		return nil, formatErr(ErrCodeSizeMismatch, "decoded %d bytes, header declares %d", len(out), parsed.Header.OriginalSize)
	}
	return out, nil
}

// ParseNative splits doc into header, explicit dictionary and body.
func ParseNative(doc []byte) (*NativeDocument, error) {
	nl := bytes.IndexByte(doc, '\n')
	if nl < 0 {
		if strings.HasPrefix(string(doc), MagicNative+" ") {
			return nil, formatErr(ErrCodeMissingHeader, "header line is not terminated")
		}
		return nil, formatErr(ErrCodeBadMagic, "document does not start with %q", MagicNative)
	}
	header, err := parseNativeHeader(string(doc[:nl]))
	if err != nil {
		return nil, err
	}

	var entries []dict.Entry
	rest := doc[nl+1:]
	for {
		if len(rest) == 0 {
			return nil, formatErr(ErrCodeMissingSeparator, "no %q line after the dictionary", nativeSeparator)
		}
		line := rest
		next := len(rest)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, next = rest[:i], i+1
		}
		rest = rest[next:]
		if string(line) == nativeSeparator {
			break
		}
		entry, err := parseDictionaryLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	explicit, err := dict.New(dict.Sort(entries)...)
	if err != nil {
		return nil, fmt.Errorf("native dictionary: %w", err)
	}
	if uint64(len(rest)) != header.CompressedSize {
		return nil, formatErr(ErrCodeSizeMismatch, "body is %d bytes, header declares %d", len(rest), header.CompressedSize)
	}
	return &NativeDocument{Header: header, Explicit: explicit, Body: rest}, nil
}

// TokenStream returns the body with the -zlib transform undone. Section
// markers are left in place.
func (n *NativeDocument) TokenStream() ([]byte, error) {
	if !n.Header.Flags.Zlib {
		return n.Body, nil
	}
	return unarmor(n.Body)
}

func parseNativeHeader(line string) (NativeHeader, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != MagicNative {
		return NativeHeader{}, formatErr(ErrCodeBadMagic, "document does not start with %q", MagicNative)
	}
	if len(fields) < 4 {
		return NativeHeader{}, formatErr(ErrCodeBadHeader, "expected timestamp and sizes after %q", MagicNative)
	}

	if _, err := strconv.ParseInt(fields[1], 10, 64); err != nil {
		return NativeHeader{}, formatErr(ErrCodeBadHeader, "timestamp %q is not a decimal integer", fields[1])
	}
	h := NativeHeader{Timestamp: fields[1]}
	var err error
	if h.OriginalSize, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
		return NativeHeader{}, formatErr(ErrCodeBadHeader, "original size %q is not a decimal integer", fields[2])
	}
	if h.CompressedSize, err = strconv.ParseUint(fields[3], 10, 64); err != nil {
		return NativeHeader{}, formatErr(ErrCodeBadHeader, "compressed size %q is not a decimal integer", fields[3])
	}
	if h.Flags, err = parseFlagFields(fields[4:]); err != nil {
		return NativeHeader{}, err
	}
	return h, nil
}

// parseDictionaryLine reads "HH=<escaped pattern>".
func parseDictionaryLine(line []byte) (dict.Entry, error) {
	if len(line) < 3 || line[2] != '=' {
		return dict.Entry{}, formatErr(ErrCodeBadDictionaryLine, "%q is not <HH>=<pattern>", line)
	}
	code, err := strconv.ParseUint(string(line[:2]), 16, 8)
	if err != nil {
		return dict.Entry{}, formatErr(ErrCodeBadDictionaryLine, "%q: token is not two hex digits", line)
	}
	pattern, err := unescapePattern(line[3:])
	if err != nil {
		return dict.Entry{}, formatErr(ErrCodeBadDictionaryLine, "%q: %v", line, err)
	}
	return dict.Entry{Code: byte(code), Pattern: pattern}, nil
}

// escapePattern makes a pattern safe for a single dictionary line.
// Backslash and control bytes are escaped; bytes >= 0x80 stay raw.
func escapePattern(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for _, b := range p {
		switch {
		case b == '\\':
			out = append(out, '\\', '\\')
		case b == '\n':
			out = append(out, '\\', 'n')
		case b == '\r':
			out = append(out, '\\', 'r')
		case b == '\t':
			out = append(out, '\\', 't')
		case b < 0x20 || b == 0x7F:
			out = append(out, fmt.Sprintf(`\x%02X`, b)...)
		default:
			out = append(out, b)
		}
	}
	return out
}

func unescapePattern(s []byte) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out = append(out, s[i])
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("trailing backslash")
		}
		i++
		switch s[i] {
		case '\\':
			out = append(out, '\\')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'x':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("short \\x escape")
			}
			v, err := strconv.ParseUint(string(s[i+1:i+3]), 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad \\x escape %q", s[i+1:i+3])
			}
			out = append(out, byte(v))
			i += 2
		default:
			return nil, fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return out, nil
}

// DictionaryLines renders d as sorted native dictionary lines, without
// trailing newlines.
func DictionaryLines(d *dict.Dictionary) []string {
	lines := make([]string, 0, d.Len())
	for _, e := range d.Sorted() {
		lines = append(lines, fmt.Sprintf("%02X=%s", e.Code, escapePattern(e.Pattern)))
	}
	sort.Strings(lines)
	return lines
}
