package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/marqant/internal/resolver"
	"github.com/roach88/marqant/internal/store"
)

// CacheOptions holds flags shared by the cache subcommands.
type CacheOptions struct {
	CacheDB string
	Zone    string
	Limit   int
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CacheOptions{}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the resolver cache database",
	}
	cmd.PersistentFlags().StringVar(&opts.CacheDB, "cache-db", "", "SQLite cache database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Zone, "zone", "", "zone appended to query names (overrides config)")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List cached dictionaries",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				rows, err := st.ListDictionaries(cmd.Context())
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeGeneric, err)
				}
				if f.Format == "json" {
					return f.Success(rows)
				}
				var b strings.Builder
				tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "QNAME\tENTRIES\tDICT_ID\tFETCHED_AT")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", r.QName, r.Entries, r.DictID, r.FetchedAt)
				}
				tw.Flush()
				return f.Success(strings.TrimSuffix(b.String(), "\n"))
			})
		},
	}

	logCmd := &cobra.Command{
		Use:           "log [name]",
		Short:         "Show logged resolution outcomes",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				qname := ""
				if len(args) == 1 {
					q, err := resolver.QueryName(args[0], cacheZone(rootOpts, opts, cmd))
					if err != nil {
						return f.Fail(ExitCommandError, ErrCodeInvalidName, err)
					}
					qname = q
				}
				rows, err := st.ListResolutions(cmd.Context(), qname, opts.Limit)
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeGeneric, err)
				}
				if f.Format == "json" {
					return f.Success(rows)
				}
				var b strings.Builder
				tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SEQ\tNAME\tQNAME\tOUTCOME\tDETAIL")
				for _, r := range rows {
					detail := r.Detail
					if detail == "" {
						detail = r.DictID
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Seq, r.Name, r.QName, r.Outcome, detail)
				}
				tw.Flush()
				return f.Success(strings.TrimSuffix(b.String(), "\n"))
			})
		},
	}
	logCmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows to show (0 = all)")

	drop := &cobra.Command{
		Use:           "drop <name>",
		Short:         "Remove a cached dictionary",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, opts, cmd, func(f *OutputFormatter, st *store.Store) error {
				qname, err := resolver.QueryName(args[0], cacheZone(rootOpts, opts, cmd))
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeInvalidName, err)
				}
				if err := st.DeleteMapping(cmd.Context(), qname); err != nil {
					return f.Fail(ExitFailure, ErrCodeGeneric, err)
				}
				return f.Success("dropped " + qname)
			})
		},
	}

	cmd.AddCommand(list, logCmd, drop)
	return cmd
}

// withCache opens the configured cache database for the duration of fn.
func withCache(rootOpts *RootOptions, opts *CacheOptions, cmd *cobra.Command, fn func(*OutputFormatter, *store.Store) error) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.formatter(cmd)

	path := rootOpts.cfg.Cache.Path
	if cmd.Flags().Changed("cache-db") {
		path = opts.CacheDB
	}
	if path == "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfig,
			fmt.Errorf("no cache database: pass --cache-db or set cache.path"))
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	defer st.Close()
	return fn(formatter, st)
}

func cacheZone(rootOpts *RootOptions, opts *CacheOptions, cmd *cobra.Command) string {
	if cmd.Flags().Changed("zone") {
		return opts.Zone
	}
	return rootOpts.cfg.Resolver.Zone
}
