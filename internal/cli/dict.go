package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marqant/internal/dict"
	"github.com/roach88/marqant/internal/format"
)

// DictionaryView describes a dictionary for display.
type DictionaryView struct {
	Name        string   `json:"name"`
	Fingerprint string   `json:"fingerprint"`
	Entries     int      `json:"entries"`
	Lines       []string `json:"lines"`
}

func (v DictionaryView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\nfingerprint: %s\nentries: %d", v.Name, v.Fingerprint, v.Entries)
	for _, l := range v.Lines {
		b.WriteString("\n")
		b.WriteString(l)
	}
	return b.String()
}

func viewOf(name string, d *dict.Dictionary) DictionaryView {
	return DictionaryView{
		Name:        name,
		Fingerprint: d.Fingerprint(),
		Entries:     d.Len(),
		Lines:       format.DictionaryLines(d),
	}
}

// NewDictCommand creates the dict command group.
func NewDictCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Inspect dictionaries",
		Long: `Inspect builtin dictionaries (` + dict.DemoName + `, ` + dict.StdStaticV1 + `) or
dictionary files (.yaml, .yml, .cue).`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show <name|file>",
		Short:         "Print a dictionary's entries",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDict(rootOpts, cmd, args[0], false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "fingerprint <name|file>",
		Short:         "Print a dictionary's fingerprint",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDict(rootOpts, cmd, args[0], true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List builtin dictionaries",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd); err != nil {
				return err
			}
			names := dict.Standard().Names()
			formatter := rootOpts.formatter(cmd)
			if formatter.Format == "json" {
				return formatter.Success(names)
			}
			return formatter.Success(strings.Join(names, "\n"))
		},
	})

	return cmd
}

func runDict(rootOpts *RootOptions, cmd *cobra.Command, ref string, fingerprintOnly bool) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.formatter(cmd)

	d, err := lookupDictionary(ref)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDictionary, err)
	}

	view := viewOf(ref, d)
	if fingerprintOnly {
		if formatter.Format == "json" {
			return formatter.Success(map[string]string{"name": ref, "fingerprint": view.Fingerprint})
		}
		return formatter.Success(view.Fingerprint)
	}
	return formatter.Success(view)
}
