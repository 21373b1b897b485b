package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/marqant/internal/clock"
	"github.com/roach88/marqant/internal/config"
	"github.com/roach88/marqant/internal/dict"
)

// RootOptions holds global flags and the state derived from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Getenv reads environment overrides (nil = os.Getenv).
	Getenv func(string) string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the marqant CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "marqant",
		Short: "marqant - token-substitution codecs for markdown",
		Long: `Encode and decode markdown-like documents with one-byte token
dictionaries, in the MQ2 and native MARQANT formats, and resolve
published dictionaries by name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(NewUniEncodeCommand(opts))
	cmd.AddCommand(NewUniDecodeCommand(opts))
	cmd.AddCommand(NewCompressCommand(opts))
	cmd.AddCommand(NewDecompressCommand(opts))
	cmd.AddCommand(NewMetaCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewDictCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

// setup validates global flags, loads configuration and builds the logger.
// It runs once; subcommands call it too so they work when built standalone.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		err := NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	if o.cfg != nil {
		return nil
	}

	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg, err := config.Load(o.ConfigPath, getenv)
	if err != nil {
		f := &OutputFormatter{Format: o.Format, Writer: cmd.ErrOrStderr()}
		return f.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	o.cfg = &cfg

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	o.logger.Debug("configuration loaded",
		"path", o.ConfigPath,
		"client", cfg.Resolver.Client,
		"zone", cfg.Resolver.Zone,
		"cache", cfg.Cache.Path)
	return nil
}

// formatter writes results to stdout and diagnostics to stderr.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// errFormatter reports errors on stderr, for commands whose stdout carries
// raw document bytes.
func (o *RootOptions) errFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.ErrOrStderr(),
		Verbose: o.Verbose,
	}
}

// headerClock stamps documents with ts, or the wall clock when ts < 0.
func headerClock(ts int64) clock.Clock {
	if ts < 0 {
		return clock.System{}
	}
	return clock.Fixed(ts)
}

// registry returns the builtin standards plus any dictionary files given.
func registry(files []string) (*dict.Registry, error) {
	reg := dict.Standard()
	for _, path := range files {
		f, err := dict.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(f.Name, f.Dictionary); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// readInput reads the named file, or stdin when no file (or "-") is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
