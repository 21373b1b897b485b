package format

import (
	"strings"
)

// Recognized native header flags.
const (
	FlagSemantic  = "-semantic"
	FlagZlib      = "-zlib"
	FlagStdPrefix = "-std:"
)

// Flags selects the optional native transforms. Each flag is independent.
type Flags struct {
	// Semantic inserts section markers before heading lines.
	Semantic bool

	// Zlib deflates the body and armors it as base64 text.
	Zlib bool

	// Standard names a baseline dictionary ("" = none).
	Standard string
}

// ParseFlags parses a whitespace-separated flag list such as
// "-zlib -semantic -std:std-static-v1". Unknown flags are an UNKNOWN_FLAG error.
func ParseFlags(s string) (Flags, error) {
	return parseFlagFields(strings.Fields(s))
}

func parseFlagFields(fields []string) (Flags, error) {
	var f Flags
	for _, field := range fields {
		switch {
		case field == FlagSemantic:
			f.Semantic = true
		case field == FlagZlib:
			f.Zlib = true
		case strings.HasPrefix(field, FlagStdPrefix):
			name := strings.TrimPrefix(field, FlagStdPrefix)
			if name == "" {
				return Flags{}, formatErr(ErrCodeUnknownFlag, "%q is missing a dictionary name", field)
			}
			if f.Standard != "" && f.Standard != name {
				return Flags{}, formatErr(ErrCodeUnknownFlag, "conflicting standard dictionaries %q and %q", f.Standard, name)
			}
			f.Standard = name
		default:
			return Flags{}, formatErr(ErrCodeUnknownFlag, "unrecognized flag %q", field)
		}
	}
	return f, nil
}

// Fields returns the flags in canonical header order.
func (f Flags) Fields() []string {
	var out []string
	if f.Semantic {
		out = append(out, FlagSemantic)
	}
	if f.Zlib {
		out = append(out, FlagZlib)
	}
	if f.Standard != "" {
		out = append(out, FlagStdPrefix+f.Standard)
	}
	return out
}

// String renders the flags as they appear in a header.
func (f Flags) String() string {
	return strings.Join(f.Fields(), " ")
}
