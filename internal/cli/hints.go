package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/jirasearch/internal/search"
)

// NewHintsCommand creates the hints command.
func NewHintsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "hints",
		Short:         "Print the search token reference",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			hints := search.Hints()
			return rootOpts.formatter(cmd).Emit("", hints, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, h := range hints {
					fmt.Fprintf(tw, "%s\t%s\n", h.Title, h.Subtitle)
				}
				tw.Flush()
			})
		},
	}
}
