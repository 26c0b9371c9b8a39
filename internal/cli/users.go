package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jirasearch/internal/jql"
)

// UsersOptions holds flags for the users command.
type UsersOptions struct {
	*RootOptions
	Limit int
}

// UsersResult is the JSON payload of the users command.
type UsersResult struct {
	Name       string   `json:"name"`
	AccountIDs []string `json:"account_ids"`
}

// NewUsersCommand creates the users command.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UsersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "users <name>",
		Short: "Resolve a name to account ids",
		Long: `Look up the accounts whose display name, or one of its words, equals
the given name. This is the lookup used for @name tokens.

Examples:
  jirasearch users anna
  jirasearch users "John Doe" --limit 20`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsers(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", jql.ResolveLimit, "maximum number of users to request")

	return cmd
}

func runUsers(opts *UsersOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.Limit < 1 {
		return f.Fail(ExitCommandError, CodeConfig, fmt.Sprintf("invalid --limit %d: must be positive", opts.Limit), nil)
	}

	a, err := newApp(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, CodeConfig, "failed to load configuration", err)
	}
	defer a.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	ids, err := a.resolver.FindUserIDsByExactName(ctx, name, opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, CodeResolve, "user search failed", err)
	}

	return f.Emit("", UsersResult{Name: name, AccountIDs: ids}, func(w io.Writer) {
		if len(ids) == 0 {
			fmt.Fprintln(w, "No matching users.")
			return
		}
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}
	})
}
