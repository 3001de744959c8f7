package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of recommendations per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			stats, err := app.Recommendations.Stats(ctx)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tLABEL\tCOUNT")
			var total int64
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Category, s.Category.Label(), s.Count)
				total += s.Count
			}
			fmt.Fprintf(tw, "total\t\t%d\n", total)
			return tw.Flush()
		},
	}
}
