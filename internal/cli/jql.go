package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jirasearch/internal/jql"
	"github.com/roach88/jirasearch/internal/rules"
)

// JQLOptions holds flags for the jql command.
type JQLOptions struct {
	*RootOptions
	Projects []string // default projects, overriding the config
	Explain  bool     // print the step trace
}

// JQLResult is the JSON payload of the jql command without --explain.
type JQLResult struct {
	Input string `json:"input"`
	JQL   string `json:"jql"`
}

// NewJQLCommand creates the jql command.
func NewJQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "jql [text...]",
		Short: "Print the JQL built from search text",
		Long: `Build the JQL query for the given search text without running it.

Names after @ are resolved to account ids through Jira (or the cache).

Examples:
  jirasearch jql "@me !"
  jirasearch jql +backend fix login --project ABC
  jirasearch jql "@anna #XYZ" --explain --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJQL(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Projects, "project", "p", nil, "default project key (repeatable, overrides config)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the rule steps that produced the query")

	return cmd
}

func runJQL(opts *JQLOptions, text string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	a, err := newApp(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "failed to load configuration", err)
	}
	defer a.Close()

	projects := a.cfg.DefaultProjects
	if cmd.Flags().Changed("project") {
		projects = opts.Projects
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	explanation, err := a.builder().Explain(ctx, text, projects)
	if err != nil {
		return buildFailure(f, err)
	}

	if opts.Explain {
		return f.Emit(explanation.BuildID, explanation, func(w io.Writer) {
			writeExplanation(w, explanation)
		})
	}
	return f.Emit(explanation.BuildID, JQLResult{Input: text, JQL: explanation.JQL}, func(w io.Writer) {
		fmt.Fprintln(w, explanation.JQL)
	})
}

func writeExplanation(w io.Writer, e *jql.Explanation) {
	fmt.Fprintf(w, "input:  %q\n", e.Input)
	fmt.Fprintf(w, "tokens: [%s]\n", strings.Join(e.Tokens, " "))
	fmt.Fprintln(w, "steps:")
	for i, step := range e.Steps {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, step.String())
	}
	if len(e.Remaining) > 0 {
		fmt.Fprintf(w, "unmatched: [%s]\n", strings.Join(e.Remaining, " "))
	}
	fmt.Fprintf(w, "jql: %s\n", e.JQL)
}

// buildFailure reports a query build error with the code matching its cause.
func buildFailure(f *OutputFormatter, err error) error {
	switch {
	case rules.IsCanceled(err):
		return f.Fail(ExitCommandError, CodeCanceled, "query build canceled", err)
	case rules.IsResolveError(err):
		return f.Fail(ExitCommandError, CodeResolve, "name resolution failed", err)
	default:
		return f.Fail(ExitCommandError, CodeBuild, "query build failed", err)
	}
}
