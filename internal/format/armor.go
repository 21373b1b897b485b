package format

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// armor deflates body and wraps it as standard base64 text.
func armor(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := zw.Write(body); err != nil {
		return nil, fmt.Errorf("zlib write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}

	out := make([]byte, base64.StdEncoding.EncodedLen(buf.Len()))
	base64.StdEncoding.Encode(out, buf.Bytes())
	return out, nil
}

// unarmor reverses armor. Whitespace in the text (line wrapping added by
// mail or editors) is ignored.
func unarmor(text []byte) ([]byte, error) {
	clean := bytes.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, text)

	raw := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
	n, err := base64.StdEncoding.Decode(raw, clean)
	if err != nil {
		return nil, formatErr(ErrCodeBadArmor, "base64: %v", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw[:n]))
	if err != nil {
		return nil, formatErr(ErrCodeBadArmor, "zlib: %v", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, formatErr(ErrCodeBadArmor, "zlib: %v", err)
	}
	return out, nil
}
