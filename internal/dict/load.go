package dict

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// File is a named dictionary loaded from disk.
type File struct {
	Name       string
	Dictionary *Dictionary
}

// LoadError reports a dictionary file that could not be loaded.
type LoadError struct {
	Path    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// yamlFile mirrors the YAML dictionary file layout:
//
//	name: team-notes
//	entries:
//	  - code: 0x80
//	    pattern: "## "
//	  - code: 0x81
//	    pattern_b64: "AQI="
type yamlFile struct {
	Name    string      `yaml:"name"`
	Entries []yamlEntry `yaml:"entries"`
}

type yamlEntry struct {
	Code       int    `yaml:"code"`
	Pattern    string `yaml:"pattern,omitempty"`
	PatternB64 string `yaml:"pattern_b64,omitempty"`
}

// LoadFile reads a dictionary from a .yaml/.yml or .cue file.
// When the file does not declare a name, the base file name is used.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = parseYAML(path, data)
	case ".cue":
		f, err = parseCUE(path, data)
	default:
		return nil, &LoadError{Path: path, Message: "unsupported dictionary file extension (want .yaml, .yml or .cue)"}
	}
	if err != nil {
		return nil, err
	}

	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

func parseYAML(path string, data []byte) (*File, error) {
	var raw yamlFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}

	entries := make([]Entry, 0, len(raw.Entries))
	for i, e := range raw.Entries {
		pattern, err := yamlPattern(e)
		if err != nil {
			return nil, &LoadError{Path: path, Field: fmt.Sprintf("entries[%d]", i), Message: err.Error()}
		}
		if e.Code < 0 || e.Code > 0xFF {
			return nil, &LoadError{Path: path, Field: fmt.Sprintf("entries[%d].code", i), Message: fmt.Sprintf("code %d is not a byte", e.Code)}
		}
		entries = append(entries, Entry{Code: byte(e.Code), Pattern: pattern})
	}

	d, err := New(entries...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Name: raw.Name, Dictionary: d}, nil
}

func yamlPattern(e yamlEntry) ([]byte, error) {
	switch {
	case e.Pattern != "" && e.PatternB64 != "":
		return nil, fmt.Errorf("pattern and pattern_b64 are mutually exclusive")
	case e.PatternB64 != "":
		p, err := base64.StdEncoding.DecodeString(e.PatternB64)
		if err != nil {
			return nil, fmt.Errorf("pattern_b64: %w", err)
		}
		return p, nil
	default:
		return []byte(e.Pattern), nil
	}
}

// parseCUE compiles a CUE dictionary file:
//
//	name: "team-notes"
//	entries: [
//		{code: 0x80, pattern: "## "},
//		{code: 0x81, pattern: '\x01\x02'},
//	]
func parseCUE(path string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(path, err)
	}

	f := &File{}
	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		f.Name = name
	}

	entriesVal := v.LookupPath(cue.ParsePath("entries"))
	if !entriesVal.Exists() {
		return nil, &LoadError{Path: path, Field: "entries", Message: "entries is required", Pos: v.Pos()}
	}
	iter, err := entriesVal.List()
	if err != nil {
		return nil, formatCUEError(path, err)
	}

	var entries []Entry
	for iter.Next() {
		e, err := parseCUEEntry(path, iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	d, err := New(entries...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Dictionary = d
	return f, nil
}

func parseCUEEntry(path string, v cue.Value) (Entry, error) {
	codeVal := v.LookupPath(cue.ParsePath("code"))
	if !codeVal.Exists() {
		return Entry{}, &LoadError{Path: path, Field: "code", Message: "code is required", Pos: v.Pos()}
	}
	code, err := codeVal.Int64()
	if err != nil {
		return Entry{}, formatCUEError(path, err)
	}
	if code < 0 || code > 0xFF {
		return Entry{}, &LoadError{Path: path, Field: "code", Message: fmt.Sprintf("code %d is not a byte", code), Pos: codeVal.Pos()}
	}

	patVal := v.LookupPath(cue.ParsePath("pattern"))
	if !patVal.Exists() {
		return Entry{}, &LoadError{Path: path, Field: "pattern", Message: "pattern is required", Pos: v.Pos()}
	}
	var pattern []byte
	if patVal.Kind() == cue.BytesKind {
		pattern, err = patVal.Bytes()
	} else {
		var s string
		s, err = patVal.String()
		pattern = []byte(s)
	}
	if err != nil {
		return Entry{}, formatCUEError(path, err)
	}

	return Entry{Code: byte(code), Pattern: pattern}, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Path: path, Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Path: path, Field: "cue", Message: first.Error()}
}
