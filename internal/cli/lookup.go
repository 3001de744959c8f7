package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
)

func newLookupCmd(opts *RootOptions) *cobra.Command {
	var (
		lat, lng   float64
		categories string
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "List the hotspots that contain a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if !geo.ValidateCoordinates(lat, lng) {
				return fmt.Errorf("invalid coordinates %v,%v", lat, lng)
			}
			active, err := category.ParseList(categories)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			if _, err := app.Hotspots.Refresh(ctx); err != nil {
				return fmt.Errorf("build hotspots: %w", err)
			}
			matches := app.Hotspots.Lookup(geo.Point{Lat: lat, Lon: lng}, active)

			out := make(map[string][]clusterView, len(matches))
			for cat, m := range matches {
				out[string(cat)] = viewClusters(m.Clusters)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lng, "lng", 0, "longitude")
	f.StringVar(&categories, "category", "", "comma-separated categories (default: all)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
