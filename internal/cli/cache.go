package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/jirasearch/internal/config"
	"github.com/roach88/jirasearch/internal/jql"
	"github.com/roach88/jirasearch/internal/store"
)

// CacheEntry is one cached name lookup as shown by `cache list`.
type CacheEntry struct {
	Name       string    `json:"name"`
	Limit      int       `json:"limit"`
	AccountIDs []string  `json:"account_ids"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// CacheListResult is the JSON payload of `cache list`.
type CacheListResult struct {
	Path    string       `json:"path"`
	Count   int          `json:"count"`
	Entries []CacheEntry `json:"entries"`
}

// CacheClearResult is the JSON payload of `cache clear`.
type CacheClearResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the name resolution cache",
		Long: `Inspect or clear the SQLite cache of name lookups configured with
cache_path (or JIRASEARCH_CACHE_PATH).`,
	}
	cmd.AddCommand(newCacheListCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

func newCacheListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List cached name lookups",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheList(rootOpts, cmd)
		},
	}
}

func newCacheClearCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "clear [name...]",
		Short: "Remove cached name lookups",
		Long: `Remove the cached lookups of the given names, or every entry when no
name is given.

Examples:
  jirasearch cache clear
  jirasearch cache clear anna "John Doe"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(rootOpts, args, limit, cmd)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", jql.ResolveLimit, "lookup limit the entries were cached under")
	return cmd
}

// openCache opens the configured cache without connecting to Jira.
func openCache(opts *RootOptions) (*store.Store, string, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, "", err
	}
	if cfg.CachePath == "" {
		return nil, "", fmt.Errorf("cache_path is not configured")
	}
	st, err := store.Open(cfg.CachePath)
	if err != nil {
		return nil, "", fmt.Errorf("open resolution cache: %w", err)
	}
	return st, cfg.CachePath, nil
}

func runCacheList(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, path, err := openCache(opts)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "failed to open cache", err)
	}
	defer closeCache(opts, st)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	all, err := st.ReadAllResolutions(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, CodeCache, "failed to read cache", err)
	}

	result := CacheListResult{Path: path, Count: len(all), Entries: make([]CacheEntry, 0, len(all))}
	for _, r := range all {
		result.Entries = append(result.Entries, CacheEntry{
			Name:       r.Fragment,
			Limit:      r.MaxResults,
			AccountIDs: r.AccountIDs,
			ResolvedAt: r.ResolvedAt,
		})
	}

	return f.Emit("", result, func(w io.Writer) {
		fmt.Fprintf(w, "%d cached lookup(s) in %s\n", result.Count, path)
		if result.Count == 0 {
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tLIMIT\tRESOLVED\tACCOUNTS")
		for _, e := range result.Entries {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Name, e.Limit,
				e.ResolvedAt.Format(time.RFC3339), strings.Join(e.AccountIDs, ", "))
		}
		tw.Flush()
	})
}

func runCacheClear(opts *RootOptions, names []string, limit int, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, _, err := openCache(opts)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "failed to open cache", err)
	}
	defer closeCache(opts, st)

	ctx, cancel := commandContext(cmd)
	defer cancel()

	before, err := st.Count(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, CodeCache, "failed to read cache", err)
	}

	if len(names) == 0 {
		all, err := st.ReadAllResolutions(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, CodeCache, "failed to read cache", err)
		}
		for _, r := range all {
			if err := st.DeleteResolution(ctx, r.Fragment, r.MaxResults); err != nil {
				return f.Fail(ExitCommandError, CodeCache, "failed to clear cache", err)
			}
		}
	}
	for _, name := range names {
		if err := st.DeleteResolution(ctx, strings.TrimSpace(name), limit); err != nil {
			return f.Fail(ExitCommandError, CodeCache, "failed to clear cache", err)
		}
	}

	after, err := st.Count(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, CodeCache, "failed to read cache", err)
	}

	result := CacheClearResult{Removed: before - after, Remaining: after}
	return f.Emit("", result, func(w io.Writer) {
		fmt.Fprintf(w, "Removed %d cached lookup(s), %d remaining.\n", result.Removed, result.Remaining)
	})
}

func closeCache(opts *RootOptions, st *store.Store) {
	if err := st.Close(); err != nil {
		opts.logger().Error("error closing resolution cache", "error", err)
	}
}
