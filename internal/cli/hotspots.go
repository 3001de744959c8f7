package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/windycity/chirecs/internal/domain/category"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	"github.com/windycity/chirecs/internal/render"
	"github.com/windycity/chirecs/internal/transport/geojson"
)

// Output formats of the hotspots command.
const (
	FormatJSON    = "json"
	FormatGeoJSON = "geojson"
	FormatPNG     = "png"
)

type clusterView struct {
	Neighborhood string   `json:"neighborhood"`
	Count        int      `json:"count"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Scale        float64  `json:"scale"`
	Radius       float64  `json:"radius"`
	Places       []string `json:"places,omitempty"`
}

type generationView struct {
	Generation uint64                   `json:"generation"`
	Records    int                      `json:"totalRecommendations"`
	Categories map[string][]clusterView `json:"categories"`
}

func viewClusters(clusters []*domhot.Cluster) []clusterView {
	out := make([]clusterView, 0, len(clusters))
	for _, c := range clusters {
		places := make([]string, 0, len(c.Members))
		for _, m := range c.Members {
			places = append(places, m.DisplayName())
		}
		out = append(out, clusterView{
			Neighborhood: c.Neighborhood,
			Count:        c.Count(),
			Lat:          c.Centroid.Lat,
			Lng:          c.Centroid.Lon,
			Scale:        c.Scale,
			Radius:       c.Radius,
			Places:       places,
		})
	}
	return out
}

func viewGeneration(g *domhot.Generation) generationView {
	v := generationView{
		Generation: g.Seq,
		Records:    g.RecordCount(),
		Categories: make(map[string][]clusterView, len(g.Active)),
	}
	for _, c := range g.Active {
		v.Categories[string(c)] = viewClusters(g.Clusters[c])
	}
	return v
}

func newHotspotsCmd(opts *RootOptions) *cobra.Command {
	var (
		categories string
		format     string
		out        string
		width      int
	)

	cmd := &cobra.Command{
		Use:   "hotspots",
		Short: "Build and export neighborhood hotspots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			active, err := category.ParseList(categories)
			if err != nil {
				return err
			}
			switch format {
			case FormatJSON, FormatGeoJSON, FormatPNG:
			default:
				return fmt.Errorf("unknown format %q (want json, geojson or png)", format)
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			if _, err := app.Hotspots.Refresh(ctx); err != nil {
				return fmt.Errorf("build hotspots: %w", err)
			}
			gen := app.Hotspots.Clusters(active)

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := writeGeneration(ctx, app, gen, format, width, w); err != nil {
				closeOut()
				return err
			}
			closeOut()

			app.Logger.Debug("Hotspots exported",
				zap.String("format", format),
				zap.String("out", out),
				zap.Int("clusters", gen.ClusterCount()),
			)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&categories, "category", "", "comma-separated categories (default: all)")
	f.StringVarP(&format, "format", "f", FormatJSON, "output format: json, geojson or png")
	f.StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	f.IntVar(&width, "width", 0, "PNG width in pixels (default from config)")
	return cmd
}

func writeGeneration(ctx context.Context, app *App, gen *domhot.Generation, format string, width int, w io.Writer) error {
	switch format {
	case FormatGeoJSON:
		fc := geojson.NewEncoder(app.Segments).Encode(gen)
		data, err := fc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode geojson: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatPNG:
		opts := app.Render
		if width > 0 {
			opts.Width = width
		}
		if err := render.New(opts).PNG(ctx, gen, w); err != nil {
			return fmt.Errorf("render png: %w", err)
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(viewGeneration(gen))
	}
}

// openOutput returns stdout for "-" or a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
