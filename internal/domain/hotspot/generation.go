package hotspot

import (
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	"github.com/windycity/chirecs/internal/domain/recommendation"
)

// Generation is the complete output of one display refresh: clusters per
// category, their drawable shapes and the lookup index over them.
// A generation is never modified once published; a refresh builds a new one.
type Generation struct {
	// Seq and BuiltAt are stamped by the owner before publication.
	Seq     uint64
	BuiltAt time.Time

	Params   Params
	Active   []category.Category
	Clusters map[category.Category][]*Cluster
	Shapes   []Shape

	records int
	index   *Index
}

// Build partitions recs by category and aggregates each active category
// independently. An empty active set means every category.
func Build(recs []recommendation.Recommendation, active []category.Category, p Params) *Generation {
	active = normalizeActive(active)

	byCat := make(map[category.Category][]recommendation.Recommendation, len(active))
	for i := range recs {
		c := recs[i].Category()
		byCat[c] = append(byCat[c], recs[i])
	}

	g := &Generation{
		Params:   p,
		Active:   active,
		Clusters: make(map[category.Category][]*Cluster, len(active)),
	}
	for _, cat := range active {
		clusters := Aggregate(cat, byCat[cat], p)
		if len(clusters) == 0 {
			continue
		}
		g.Clusters[cat] = clusters
		g.records += len(byCat[cat])
	}
	g.finish()
	return g
}

// Filter derives a generation restricted to active without regrouping.
// Cluster sizes depend only on their own category, so reuse is exact.
func (g *Generation) Filter(active []category.Category) *Generation {
	active = normalizeActive(active)
	sub := &Generation{
		Seq:      g.Seq,
		BuiltAt:  g.BuiltAt,
		Params:   g.Params,
		Active:   active,
		Clusters: make(map[category.Category][]*Cluster, len(active)),
	}
	for _, cat := range active {
		cs, ok := g.Clusters[cat]
		if !ok {
			continue
		}
		sub.Clusters[cat] = cs
		for _, c := range cs {
			sub.records += c.Count()
		}
	}
	sub.finish()
	return sub
}

func (g *Generation) finish() {
	interactive := make([]*Cluster, 0)
	for _, cat := range g.Active {
		for _, c := range g.Clusters[cat] {
			g.Shapes = append(g.Shapes, Layers(c, g.Params)...)
			interactive = append(interactive, c)
		}
	}
	g.index = NewIndex(interactive, g.Params.Tolerance)
}

// Lookup runs the reverse lookup against this generation's interactive clusters.
func (g *Generation) Lookup(q geo.Point) Matches {
	if g.index == nil {
		return Matches{}
	}
	return g.index.Lookup(q)
}

// Categories returns the active categories that produced at least one cluster.
func (g *Generation) Categories() []category.Category {
	out := make([]category.Category, 0, len(g.Clusters))
	for _, cat := range g.Active {
		if len(g.Clusters[cat]) > 0 {
			out = append(out, cat)
		}
	}
	return out
}

// ClusterCount returns the total number of clusters.
func (g *Generation) ClusterCount() int {
	n := 0
	for _, cs := range g.Clusters {
		n += len(cs)
	}
	return n
}

// RecordCount returns how many recommendations the clusters were built from.
func (g *Generation) RecordCount() int { return g.records }

// Empty reports whether there is nothing to draw.
func (g *Generation) Empty() bool { return len(g.Shapes) == 0 }

// Batches splits the shapes into chunks of at most n, preserving draw order.
// n <= 0 returns a single batch.
func (g *Generation) Batches(n int) [][]Shape {
	if len(g.Shapes) == 0 {
		return nil
	}
	if n <= 0 || n >= len(g.Shapes) {
		return [][]Shape{g.Shapes}
	}
	out := make([][]Shape, 0, (len(g.Shapes)+n-1)/n)
	for start := 0; start < len(g.Shapes); start += n {
		end := min(start+n, len(g.Shapes))
		out = append(out, g.Shapes[start:end:end])
	}
	return out
}

// Bounds returns the south-west and north-east corners enclosing every
// shape, or false when the generation is empty.
func (g *Generation) Bounds() (sw, ne geo.Point, ok bool) {
	if len(g.Shapes) == 0 {
		return geo.Point{}, geo.Point{}, false
	}
	sw = geo.Point{Lat: 90, Lon: 180}
	ne = geo.Point{Lat: -90, Lon: -180}
	for _, s := range g.Shapes {
		dLat := s.Radius / geo.MetersPerDegree
		dLon := dLat / cosDeg(s.Center.Lat)
		sw.Lat = min(sw.Lat, s.Center.Lat-dLat)
		sw.Lon = min(sw.Lon, s.Center.Lon-dLon)
		ne.Lat = max(ne.Lat, s.Center.Lat+dLat)
		ne.Lon = max(ne.Lon, s.Center.Lon+dLon)
	}
	return sw, ne, true
}

func normalizeActive(active []category.Category) []category.Category {
	if len(active) == 0 {
		return category.All()
	}
	want := make(map[category.Category]bool, len(active))
	for _, c := range active {
		want[c] = true
	}
	out := make([]category.Category, 0, len(active))
	for _, c := range category.All() {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}
