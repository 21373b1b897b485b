package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marqant/internal/format"
)

// MetaResult is the meta command's payload.
type MetaResult struct {
	format.Metadata
}

// String renders one "field: value" line per known field.
func (r MetaResult) String() string {
	var b strings.Builder
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	num := func(p *uint64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	}

	line("kind", r.Kind)
	line("variant", r.Variant)
	line("timestamp", r.Timestamp)
	line("original_size", num(r.OriginalSize))
	line("compressed_size", num(r.CompressedSize))
	line("token_count", num(r.TokenCount))
	line("level", r.Level)
	line("flags", strings.Join(r.Flags, " "))
	line("dict_id", r.DictID)
	return strings.TrimSuffix(b.String(), "\n")
}

// NewMetaCommand creates the meta command.
func NewMetaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta [file]",
		Short: "Describe an encoded document without decoding it",
		Long: `Read the header of an MQ2 or native document (stdin when no file is
given) and print its metadata. Unrecognized input reports kind UNKNOWN;
this command only fails when the input cannot be read.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeta(rootOpts, cmd, args)
		},
	}

	return cmd
}

func runMeta(rootOpts *RootOptions, cmd *cobra.Command, args []string) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.formatter(cmd)

	doc, err := readInput(cmd, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}

	md := format.ReadMetadata(doc)
	formatter.VerboseLog("read %d bytes, kind %s", len(doc), md.Kind)
	return formatter.Success(MetaResult{md})
}
