package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jirasearch/internal/rules"
	"github.com/roach88/jirasearch/internal/search"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [text...]",
		Short: "Search issues",
		Long: `Build JQL from the search text, run it and list the issues.

Without text the usage hints are printed.

Examples:
  jirasearch search "@me"
  jirasearch search "#ABC login timeout" --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, strings.Join(args, " "), cmd)
		},
	}
	return cmd
}

func runSearch(opts *RootOptions, text string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	a, err := newApp(opts)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "failed to load configuration", err)
	}
	defer a.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	results, err := a.searcher().Query(ctx, text)
	if err != nil {
		var be *rules.BuildError
		if errors.As(err, &be) {
			return buildFailure(f, err)
		}
		return f.Fail(ExitCommandError, CodeSearch, "search failed", err)
	}

	return f.Emit("", results, func(w io.Writer) {
		writeResults(w, results)
	})
}

func writeResults(w io.Writer, results []search.Result) {
	for _, r := range results {
		if r.Badge != "" {
			fmt.Fprintf(w, "[%s] %s\n", r.Badge, r.Title)
		} else {
			fmt.Fprintln(w, r.Title)
		}
		if r.Subtitle != "" {
			fmt.Fprintf(w, "    %s\n", r.Subtitle)
		}
		if r.URL != "" {
			fmt.Fprintf(w, "    %s\n", r.URL)
		}
	}
}
