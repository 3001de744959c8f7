package chirecs

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/windycity/chirecs/internal/domain/geo"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
	"github.com/windycity/chirecs/internal/render"
	"github.com/windycity/chirecs/internal/transport/geojson"
)

// HotspotService exposes the neighborhood hotspots built from the stored recommendations.
type HotspotService struct {
	svc     hotspotUseCase
	encoder *geojson.Encoder
	render  render.Options
	obs     *observer
}

// Refresh rebuilds the hotspots synchronously and returns every category.
func (s *HotspotService) Refresh(ctx context.Context) (_ Snapshot, err error) {
	start := time.Now()
	defer func() { s.obs.observe("hotspot.refresh", start, err) }()

	gen, err := s.svc.Refresh(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("refresh hotspots: %w", err)
	}
	return toSnapshot(gen), nil
}

// Snapshot returns the current hotspots for the given categories (all when empty).
// Mutations made through the client are reflected after a short debounce;
// call Refresh to wait for them.
func (s *HotspotService) Snapshot(categories ...string) (Snapshot, error) {
	cats, err := parseCategories(categories)
	if err != nil {
		return Snapshot{}, fmt.Errorf("hotspots: %w", err)
	}
	return toSnapshot(s.svc.Clusters(cats)), nil
}

// Lookup returns the hotspots containing the point, grouped by category.
// The map is empty, not nil, when nothing matches.
func (s *HotspotService) Lookup(lat, lon float64, categories ...string) (_ map[string][]Cluster, err error) {
	start := time.Now()
	defer func() { s.obs.observe("hotspot.lookup", start, err) }()

	if !geo.ValidateCoordinates(lat, lon) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidQuery)
	}
	cats, err := parseCategories(categories)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	matches := s.svc.Lookup(geo.Point{Lat: lat, Lon: lon}, cats)
	out := make(map[string][]Cluster, len(matches))
	for cat, m := range matches {
		out[string(cat)] = toClusters(m.Clusters)
	}
	return out, nil
}

// GeoJSON encodes the current hotspots as a FeatureCollection.
func (s *HotspotService) GeoJSON(categories ...string) ([]byte, error) {
	cats, err := parseCategories(categories)
	if err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}
	data, err := s.encoder.Encode(s.svc.Clusters(cats)).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}
	return data, nil
}

// PNG renders the current hotspots as a heat map.
func (s *HotspotService) PNG(ctx context.Context, w io.Writer, categories ...string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("hotspot.png", start, err) }()

	cats, err := parseCategories(categories)
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	if err = render.New(s.render).PNG(ctx, s.svc.Clusters(cats), w); err != nil {
		return fmt.Errorf("png: %w", err)
	}
	return nil
}

func toSnapshot(g *domhot.Generation) Snapshot {
	snap := Snapshot{
		Generation: g.Seq,
		BuiltAt:    g.BuiltAt,
		Records:    g.RecordCount(),
		Categories: make(map[string][]Cluster, len(g.Active)),
	}
	for _, c := range g.Active {
		snap.Categories[string(c)] = toClusters(g.Clusters[c])
	}
	return snap
}

func toClusters(in []*domhot.Cluster) []Cluster {
	out := make([]Cluster, len(in))
	for i, c := range in {
		places := make([]string, len(c.Members))
		for j := range c.Members {
			places[j] = c.Members[j].DisplayName()
		}
		out[i] = Cluster{
			Category:     string(c.Category),
			Neighborhood: c.Neighborhood,
			Count:        c.Count(),
			Lat:          c.Centroid.Lat,
			Lon:          c.Centroid.Lon,
			Scale:        c.Scale,
			Radius:       c.Radius,
			Color:        c.Category.Color(),
			Places:       places,
		}
	}
	return out
}
