package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/marqant/internal/format"
)

// CompressOptions holds flags for the compress command.
type CompressOptions struct {
	Flags     string
	Timestamp int64
	StdFiles  []string
}

// NewCompressCommand creates the compress command.
func NewCompressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompressOptions{}

	cmd := &cobra.Command{
		Use:   "compress [file]",
		Short: "Encode a document in the native MARQANT format",
		Long: `Encode a document (stdin when no file is given) as a native MARQANT
document with a dictionary derived from the input.

Flags select transforms: -semantic tags sections at headings, -zlib deflates
and base64-armors the body, -std:<name> uses a standard baseline dictionary
whose entries are not written into the document. Without --flags the
encode.flags config value applies.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Flags, "flags", "", `transform flags, e.g. "-zlib -semantic -std:std-static-v1"`)
	cmd.Flags().Int64Var(&opts.Timestamp, "timestamp", -1, "header timestamp in Unix seconds (-1 = now)")
	cmd.Flags().StringSliceVar(&opts.StdFiles, "std-file", nil, "register a dictionary file as a standard (repeatable)")

	return cmd
}

func runCompress(rootOpts *RootOptions, opts *CompressOptions, cmd *cobra.Command, args []string) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.errFormatter(cmd)

	flags := rootOpts.cfg.Flags()
	if cmd.Flags().Changed("flags") {
		parsed, err := format.ParseFlags(opts.Flags)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeFormat, err)
		}
		flags = parsed
	}

	reg, err := registry(opts.StdFiles)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDictionary, err)
	}

	src, err := readInput(cmd, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}

	enc := &format.Encoder{
		Clock:     headerClock(opts.Timestamp),
		Standards: reg,
		Logger:    rootOpts.logger,
	}
	doc, err := enc.EncodeNative(src, flags)
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err), err)
	}

	if _, err := cmd.OutOrStdout().Write(doc); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
	}
	return nil
}

// DecompressOptions holds flags for the decompress command.
type DecompressOptions struct {
	StdFiles []string
}

// NewDecompressCommand creates the decompress command.
func NewDecompressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecompressOptions{}

	cmd := &cobra.Command{
		Use:   "decompress [file]",
		Short: "Decode a native MARQANT document",
		Long: `Decode a native MARQANT document (stdin when no file is given), undoing
the transforms its header names, and write the original bytes.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().StringSliceVar(&opts.StdFiles, "std-file", nil, "register a dictionary file as a standard (repeatable)")

	return cmd
}

func runDecompress(rootOpts *RootOptions, opts *DecompressOptions, cmd *cobra.Command, args []string) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.errFormatter(cmd)

	reg, err := registry(opts.StdFiles)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDictionary, err)
	}

	doc, err := readInput(cmd, args)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err)
	}

	dec := &format.Decoder{Standards: reg}
	out, err := dec.DecodeNative(doc)
	if err != nil {
		return formatter.Fail(ExitFailure, errorCode(err), err)
	}

	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err)
	}
	return nil
}
