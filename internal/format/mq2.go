package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/tokenizer"
)

// MQ2 framing constants.
const (
	MagicMQ2   = "MQ2"
	VariantUNI = "UNI"
	LevelText  = "text"

	mq2Prefix = MagicMQ2 + "~" + VariantUNI + "~"
	mq2Fields = 7
)

// mq2Sentinel terminates the dictionary section.
var mq2Sentinel = []byte("\n~~~~\n")

// MQ2Header holds the parsed MQ2 header line.
type MQ2Header struct {
	Magic          string
	Variant        string
	Timestamp      string // hex, as written
	OriginalSize   uint64
	CompressedSize uint64
	TokenCount     uint64
	Level          string
}

// MQ2Document is a parsed, validated MQ2 document.
type MQ2Document struct {
	Header     MQ2Header
	Dictionary *dict.Dictionary
	Body       []byte
}

// EncodeMQ2 frames src with d. The full dictionary travels in the document.
func (e *Encoder) EncodeMQ2(src []byte, d *dict.Dictionary) []byte {
	body := tokenizer.Encode(src, d, tokenizer.Lenient)

	header := fmt.Sprintf("%s~%s~%08X~%X~%X~%X~%s\n",
		MagicMQ2, VariantUNI, e.clock().Now(), len(src), len(body), d.Len(), LevelText)

	out := make([]byte, 0, len(header)+len(body)+64)
	out = append(out, header...)
	out = d.AppendCanonical(out)
	out = append(out, mq2Sentinel...)
	out = append(out, body...)

	e.logger().Debug("mq2 document encoded",
		"original_size", len(src),
		"compressed_size", len(body),
		"token_count", d.Len())
	return out
}

// DecodeMQ2 parses doc and returns the original bytes.
func DecodeMQ2(doc []byte) ([]byte, error) {
	parsed, err := ParseMQ2(doc)
	if err != nil {
		return nil, err
	}

	out, err := tokenizer.Decode(parsed.Body, parsed.Dictionary, tokenizer.Lenient)
	if err != nil {
		return nil, fmt.Errorf("decode mq2 body: %w", err)
	}
	if uint64(len(out)) != parsed.Header.OriginalSize {
		return nil, formatErr(ErrCodeSizeMismatch, "decoded %d bytes, header declares %d", len(out), parsed.Header.OriginalSize)
	}
	return out, nil
}

// ParseMQ2 splits doc into header, validated dictionary and body.
func ParseMQ2(doc []byte) (*MQ2Document, error) {
	if !bytes.HasPrefix(doc, []byte(mq2Prefix)) {
		return nil, formatErr(ErrCodeBadMagic, "document does not start with %q", mq2Prefix)
	}
	nl := bytes.IndexByte(doc, '\n')
	if nl < 0 {
		return nil, formatErr(ErrCodeMissingHeader, "header line is not terminated")
	}

	header, err := parseMQ2Header(string(doc[:nl]))
	if err != nil {
		return nil, err
	}

	rest := doc[nl+1:]
	entries, sectionEnd, err := parseMQ2Dictionary(rest)
	if err != nil {
		return nil, err
	}
	d, err := dict.New(dict.Sort(entries)...)
	if err != nil {
		return nil, fmt.Errorf("mq2 dictionary: %w", err)
	}

	body := rest[sectionEnd+len(mq2Sentinel):]
	if uint64(len(body)) != header.CompressedSize {
		return nil, formatErr(ErrCodeSizeMismatch, "body is %d bytes, header declares %d", len(body), header.CompressedSize)
	}

	return &MQ2Document{Header: header, Dictionary: d, Body: body}, nil
}

func parseMQ2Header(line string) (MQ2Header, error) {
	parts := strings.Split(line, "~")
	if len(parts) != mq2Fields {
		return MQ2Header{}, formatErr(ErrCodeBadHeader, "expected %d '~'-separated fields, got %d", mq2Fields, len(parts))
	}

	h := MQ2Header{
		Magic:     parts[0],
		Variant:   parts[1],
		Timestamp: parts[2],
		Level:     parts[6],
	}
	nums := []*uint64{&h.OriginalSize, &h.CompressedSize, &h.TokenCount}
	for i, dst := range nums {
		v, err := strconv.ParseUint(parts[3+i], 16, 64)
		if err != nil {
			return MQ2Header{}, formatErr(ErrCodeBadHeader, "field %d: %q is not hex", 3+i, parts[3+i])
		}
		*dst = v
	}
	return h, nil
}

// parseMQ2Dictionary reads the "~T" section at the start of rest.
// It returns the entries in wire order and the offset of the sentinel.
func parseMQ2Dictionary(rest []byte) ([]dict.Entry, int, error) {
	if !bytes.HasPrefix(rest, dict.SectionTag) {
		return nil, 0, formatErr(ErrCodeMissingDictionary, "dictionary section must start with %q", dict.SectionTag)
	}

	var entries []dict.Entry
	i := len(dict.SectionTag)
	for {
		if bytes.HasPrefix(rest[i:], mq2Sentinel) {
			return entries, i, nil
		}
		if len(rest)-i < 3 {
			return nil, 0, formatErr(ErrCodeMissingSentinel, "dictionary section is not terminated by %q", mq2Sentinel)
		}
		code := rest[i]
		n := int(binary.BigEndian.Uint16(rest[i+1 : i+3]))
		i += 3
		if i+n > len(rest) {
			return nil, 0, formatErr(ErrCodeTruncatedDictionary, "entry 0x%02X declares %d bytes, %d remain", code, n, len(rest)-i)
		}
		entries = append(entries, dict.Entry{Code: code, Pattern: rest[i : i+n]})
		i += n
	}
}
