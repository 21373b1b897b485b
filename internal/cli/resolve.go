package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marqant/internal/config"
	"github.com/roach88/marqant/internal/format"
	"github.com/roach88/marqant/internal/resolver"
	"github.com/roach88/marqant/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	Zone    string
	CacheDB string
	Refresh bool
}

// ResolveResult is the resolve command's payload for a present dictionary.
type ResolveResult struct {
	Name    string   `json:"name"`
	QName   string   `json:"qname"`
	DictID  string   `json:"dict_id,omitempty"`
	Entries int      `json:"entries"`
	Record  string   `json:"record"`
	Lines   []string `json:"lines,omitempty"`
}

func (r ResolveResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "qname: %s\nentries: %d", r.QName, r.Entries)
	if r.DictID != "" {
		fmt.Fprintf(&b, "\ndict_id: %s", r.DictID)
	}
	for _, l := range r.Lines {
		b.WriteString("\n")
		b.WriteString(l)
	}
	if len(r.Lines) == 0 {
		fmt.Fprintf(&b, "\nrecord: %s", r.Record)
	}
	return b.String()
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Fetch the dictionary published under a name",
		Long: `Query the TXT record at _marqant.<name>[.<zone>] and print the
dictionary it publishes.

Exit status is 0 when a dictionary is present, 1 when the name publishes
none or the record is malformed or the lookup fails, and 2 when the name
cannot be turned into a query name. With a cache database, present results
are kept across runs and every outcome is appended to its resolution log.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Zone, "zone", "", "zone appended to query names (overrides config)")
	cmd.Flags().StringVar(&opts.CacheDB, "cache-db", "", "SQLite cache database (overrides config)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "drop any cached copy before resolving")

	return cmd
}

func runResolve(rootOpts *RootOptions, opts *ResolveOptions, cmd *cobra.Command, name string) error {
	if err := rootOpts.setup(cmd); err != nil {
		return err
	}
	formatter := rootOpts.formatter(cmd)
	ctx := cmd.Context()

	cfg := rootOpts.cfg.Resolver
	if cmd.Flags().Changed("zone") {
		cfg.Zone = opts.Zone
	}
	cachePath := rootOpts.cfg.Cache.Path
	if cmd.Flags().Changed("cache-db") {
		cachePath = opts.CacheDB
	}

	ropts := resolver.Options{
		Zone:    cfg.Zone,
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
		Logger:  rootOpts.logger,
	}
	var st *store.Store
	if cachePath != "" {
		var err error
		st, err = store.Open(cachePath)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		defer st.Close()
		ropts.Store = st
	}

	r := resolver.New(newClient(cfg), ropts)
	if opts.Refresh {
		if err := r.Invalidate(ctx, name); err != nil {
			return formatter.Fail(exitFor(err), errorCode(err), err)
		}
	}

	m, found, err := r.Resolve(ctx, name)
	qname, _ := resolver.QueryName(name, cfg.Zone)
	if st != nil {
		logResolution(ctx, rootOpts, st, name, qname, m, found, err)
	}

	if err != nil {
		return formatter.Fail(exitFor(err), errorCode(err), err)
	}
	if !found {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Errorf("no dictionary published at %s", qname))
	}

	result := ResolveResult{Name: name, QName: qname, Entries: len(m), Record: m.Record()}
	if d, err := m.Dictionary(); err == nil {
		result.DictID = d.Fingerprint()
		result.Lines = format.DictionaryLines(d)
	}
	return formatter.Success(result)
}

// newClient builds the name-service client the configuration selects.
func newClient(cfg config.ResolverConfig) resolver.Client {
	if cfg.Client == config.ClientDig {
		return &resolver.DigClient{Command: cfg.DigCommand, Server: cfg.Server}
	}
	if cfg.Server == "" {
		return &resolver.NetClient{}
	}

	server := cfg.Server
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &resolver.NetClient{Resolver: &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, server)
		},
	}}
}

// exitFor maps resolver errors to exit codes: unusable names are command
// errors, everything else is a failed lookup.
func exitFor(err error) int {
	var re *resolver.Error
	if errors.As(err, &re) && re.Code == resolver.ErrCodeInvalidName {
		return ExitCommandError
	}
	return ExitFailure
}

// logResolution appends the outcome to the store's log. Failures to log are
// reported but never change the command's result.
func logResolution(ctx context.Context, rootOpts *RootOptions, st *store.Store, name, qname string, m resolver.Mapping, found bool, err error) {
	rec := store.Resolution{Name: name, QName: qname}
	var re *resolver.Error
	switch {
	case err == nil && found:
		rec.Outcome = store.OutcomePresent
		if d, derr := m.Dictionary(); derr == nil {
			rec.DictID = d.Fingerprint()
		}
	case err == nil:
		rec.Outcome = store.OutcomeAbsent
	case errors.As(err, &re) && re.Code == resolver.ErrCodeMalformedRecord:
		rec.Outcome = store.OutcomeMalformed
		rec.Detail = err.Error()
	case errors.As(err, &re) && re.Code == resolver.ErrCodeInvalidName:
		rec.Outcome = store.OutcomeInvalid
		rec.Detail = err.Error()
	default:
		rec.Outcome = store.OutcomeFailed
		rec.Detail = err.Error()
	}

	if _, lerr := st.LogResolution(context.WithoutCancel(ctx), rec); lerr != nil {
		rootOpts.logger.Warn("resolution not logged", "name", name, "error", lerr)
	}
}
