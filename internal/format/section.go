package format

import (
	"bytes"

	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/tokenizer"
)

// Section markers are "\xFF::section:<title>::\n". The escape byte followed
// by an ASCII byte never occurs in a token stream, so markers cannot be
// confused with escaped literals or tokens.
const (
	markerOpen  = "::section:"
	markerClose = "::\n"
)

type section struct {
	title []byte // nil for the preamble before the first heading
	text  []byte
}

// splitSections cuts src at every heading line that is not inside a fenced
// block. Fences are lines starting with ``` or ~~~; each toggles the state.
func splitSections(src []byte) []section {
	var (
		out     []section
		cur     = section{}
		start   = 0
		inFence = false
	)

	for lineStart := 0; lineStart < len(src); {
		lineEnd := bytes.IndexByte(src[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(src)
		} else {
			lineEnd = lineStart + lineEnd + 1
		}
		line := src[lineStart:lineEnd]

		switch {
		case isFence(line):
			inFence = !inFence
		case !inFence:
			if title, ok := headingTitle(line); ok {
				cur.text = src[start:lineStart]
				if cur.title != nil || len(cur.text) > 0 {
					out = append(out, cur)
				}
				cur = section{title: title}
				start = lineStart
			}
		}
		lineStart = lineEnd
	}

	cur.text = src[start:]
	if cur.title != nil || len(cur.text) > 0 {
		out = append(out, cur)
	}
	return out
}

func isFence(line []byte) bool {
	return bytes.HasPrefix(line, []byte("```")) || bytes.HasPrefix(line, []byte("~~~"))
}

// headingTitle recognizes ATX headings: 1-6 '#' followed by a space.
func headingTitle(line []byte) ([]byte, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return nil, false
	}
	title := bytes.TrimSpace(line[level+1:])
	if title == nil {
		title = []byte{}
	}
	return title, true
}

// encodeSections tokenizes each section separately and prefixes every
// titled section with its marker.
func encodeSections(src []byte, d *dict.Dictionary) []byte {
	out := make([]byte, 0, len(src))
	for _, s := range splitSections(src) {
		if s.title != nil {
			out = appendMarker(out, s.title)
		}
		out = append(out, tokenizer.Encode(s.text, d, tokenizer.Lenient)...)
	}
	return out
}

func appendMarker(dst, title []byte) []byte {
	dst = append(dst, dict.Escape)
	dst = append(dst, markerOpen...)
	dst = append(dst, title...)
	return append(dst, markerClose...)
}

// stripSections removes every section marker from a token stream. Escape
// pairs are copied through untouched.
func stripSections(body []byte) ([]byte, error) {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); {
		b := body[i]
		if b != dict.Escape || i+1 >= len(body) {
			out = append(out, b)
			i++
			continue
		}
		if body[i+1] >= dict.CodeMin {
			out = append(out, b, body[i+1])
			i += 2
			continue
		}
		if !bytes.HasPrefix(body[i+1:], []byte(markerOpen)) {
			return nil, formatErr(ErrCodeBadSectionMarker, "escape at offset %d does not open a section marker", i)
		}
		end := bytes.Index(body[i+1:], []byte(markerClose))
		if end < 0 {
			return nil, formatErr(ErrCodeBadSectionMarker, "section marker at offset %d is not closed", i)
		}
		i += 1 + end + len(markerClose)
	}
	return out, nil
}

// SectionTitles lists the titles of the markers in a token stream, in order.
func SectionTitles(body []byte) []string {
	var titles []string
	for i := 0; i+1 < len(body); i++ {
		if body[i] != dict.Escape {
			continue
		}
		if body[i+1] >= dict.CodeMin {
			i++
			continue
		}
		rest := body[i+1:]
		if !bytes.HasPrefix(rest, []byte(markerOpen)) {
			continue
		}
		end := bytes.Index(rest, []byte(markerClose))
		if end < 0 {
			break
		}
		titles = append(titles, string(rest[len(markerOpen):end]))
		i += end + len(markerClose)
	}
	return titles
}
