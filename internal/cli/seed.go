package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(opts *RootOptions) *cobra.Command {
	var clearExisting bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample Chicago dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			res, err := app.Recommendations.Seed(ctx, clearExisting)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			app.Logger.Info("Seed finished",
				zap.Int("cleared", res.Cleared),
				zap.Int("inserted", res.Inserted),
				zap.Int("errors", res.Errors),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d, inserted %d, skipped %d\n",
				res.Cleared, res.Inserted, res.Errors)
			return err
		},
	}
	cmd.Flags().BoolVar(&clearExisting, "clear", false, "delete every recommendation before seeding")
	return cmd
}
