package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/format"
	"github.com/roach88/marqant/internal/tokenizer"
)

// UniEncodeOptions holds flags for the uni-encode command.
type UniEncodeOptions struct {
	Dictionary string
	Timestamp  int64
	Raw        bool
}

// NewUniEncodeCommand creates the uni-encode command.
func NewUniEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UniEncodeOptions{}

	cmd := &cobra.Command{
		Use:   "uni-encode [file]",
		Short: "Encode a document in the MQ2 format",
		Long: `Encode a document (stdin when no file is given) as an MQ2-UNI document.

The dictionary is the builtin demo set unless --dict names a registered
standard, a .yaml/.cue dictionary file, or "derived" to build one from the
input. With --raw only the demo token stream is written, without framing.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUniEncode(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Dictionary, "dict", dict.DemoName, `dictionary: a standard name, a dictionary file, or "derived"`)
	cmd.Flags().Int64Var(&opts.Timestamp, "timestamp", -1, "header timestamp in Unix seconds (-1 = now)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "write the bare demo token stream")

	return cmd
}

func runUniEncode(rootOpts *RootOptions, opts *UniEncodeOptions, cmd *cobra.Command, args []string) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.errFormatter(cmd)

	src, err := readInput(cmd, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}

	var out []byte
	if opts.Raw {
		out = tokenizer.EncodeDemo(src)
	} else {
		d, err := selectDictionary(opts.Dictionary, src)
		if err != nil {
			return formatter.Fail(ExitCommandError, errorCode(err), err)
		}
		enc := &format.Encoder{Clock: headerClock(opts.Timestamp), Logger: rootOpts.logger}
		out = enc.EncodeMQ2(src, d)
	}

	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
	}
	return nil
}

// selectDictionary resolves the --dict value for MQ2 encoding.
func selectDictionary(ref string, src []byte) (*dict.Dictionary, error) {
	if ref == "derived" {
		return tokenizer.Build(src, tokenizer.BuildOptions{})
	}
	return lookupDictionary(ref)
}

// lookupDictionary returns a builtin dictionary by name, or loads one from
// a file path.
func lookupDictionary(ref string) (*dict.Dictionary, error) {
	if d, ok := dict.Standard().Lookup(ref); ok {
		return d, nil
	}
	f, err := dict.LoadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("dictionary %q is neither builtin nor loadable: %w", ref, err)
	}
	return f.Dictionary, nil
}

// UniDecodeOptions holds flags for the uni-decode command.
type UniDecodeOptions struct {
	Raw bool
}

// NewUniDecodeCommand creates the uni-decode command.
func NewUniDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UniDecodeOptions{}

	cmd := &cobra.Command{
		Use:   "uni-decode [file]",
		Short: "Decode an MQ2 document",
		Long: `Decode an MQ2-UNI document (stdin when no file is given) and write the
original bytes. With --raw the input is a bare demo token stream.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUniDecode(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "read a bare demo token stream")

	return cmd
}

func runUniDecode(rootOpts *RootOptions, opts *UniDecodeOptions, cmd *cobra.Command, args []string) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.errFormatter(cmd)

	doc, err := readInput(cmd, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}

	var out []byte
	if opts.Raw {
		out, err = tokenizer.DecodeDemo(doc)
	} else {
		out, err = format.DecodeMQ2(doc)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err), err)
	}

	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
	}
	return nil
}
