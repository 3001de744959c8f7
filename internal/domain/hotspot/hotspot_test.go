package hotspot

import (
	"math"
	"testing"
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	"github.com/windycity/chirecs/internal/domain/recommendation"
)

func rec(id int64, cat category.Category, hood string, lat, lon float64) recommendation.Recommendation {
	return recommendation.Reconstruct(id, cat, hood, lat, lon, "", time.Unix(id, 0))
}

func almost(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// cafeScenario: three Wicker Park cafes and one in The Loop.
func cafeScenario() []recommendation.Recommendation {
	return []recommendation.Recommendation{
		rec(1, category.Cafe, "Wicker Park", 41.9076, -87.6774),
		rec(2, category.Cafe, "Wicker Park", 41.9085, -87.6760),
		rec(3, category.Cafe, "The Loop", 41.8781, -87.6298),
		rec(4, category.Cafe, "Wicker Park", 41.9068, -87.6790),
	}
}

func TestGroup_PartitionsInput(t *testing.T) {
	recs := append(cafeScenario(), rec(5, category.Cafe, "", 41.95, -87.65))
	clusters := Group(recs)

	if len(clusters) != 3 {
		t.Fatalf("expected 3 clusters, got %d", len(clusters))
	}
	if clusters[0].Neighborhood != "Wicker Park" || clusters[1].Neighborhood != "The Loop" ||
		clusters[2].Neighborhood != recommendation.UnknownNeighborhood {
		t.Errorf("unexpected order: %s, %s, %s",
			clusters[0].Neighborhood, clusters[1].Neighborhood, clusters[2].Neighborhood)
	}

	seen := make(map[int64]int)
	for _, c := range clusters {
		for _, m := range c.Members {
			seen[m.ID()]++
			if m.NeighborhoodKey() != c.Neighborhood {
				t.Errorf("member %d label %q in cluster %q", m.ID(), m.NeighborhoodKey(), c.Neighborhood)
			}
		}
	}
	if len(seen) != len(recs) {
		t.Fatalf("expected %d distinct members, got %d", len(recs), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("member %d appears %d times", id, n)
		}
	}
}

func TestGroup_Centroid(t *testing.T) {
	clusters := Group(cafeScenario())
	wp := clusters[0]

	wantLat := (41.9076 + 41.9085 + 41.9068) / 3
	wantLon := (-87.6774 + -87.6760 + -87.6790) / 3
	if !almost(wp.Centroid.Lat, wantLat, 1e-12) || !almost(wp.Centroid.Lon, wantLon, 1e-12) {
		t.Errorf("centroid = %+v, want (%f, %f)", wp.Centroid, wantLat, wantLon)
	}
	if wp.Radius != 0 {
		t.Error("Group must not assign a radius")
	}
}

func TestGroup_Empty(t *testing.T) {
	if got := Group(nil); len(got) != 0 {
		t.Errorf("expected no clusters, got %d", len(got))
	}
}

func TestScale_Bounds(t *testing.T) {
	p := DefaultParams()
	counts := []int{1, 4, 2, 7, 7, 3}
	clusters := make([]*Cluster, len(counts))
	for i, n := range counts {
		clusters[i] = &Cluster{Members: make([]recommendation.Recommendation, n)}
	}
	Scale(clusters, p)

	for i, c := range clusters {
		if c.Radius < p.MinRadius || c.Radius > p.MaxRadius {
			t.Errorf("cluster %d radius %f outside [%f, %f]", i, c.Radius, p.MinRadius, p.MaxRadius)
		}
	}
	if clusters[0].Radius != p.MinRadius {
		t.Errorf("min count radius = %f, want %f", clusters[0].Radius, p.MinRadius)
	}
	if clusters[3].Radius != p.MaxRadius || clusters[4].Radius != p.MaxRadius {
		t.Errorf("max count radius = %f/%f, want %f", clusters[3].Radius, clusters[4].Radius, p.MaxRadius)
	}
	// 4 of range 1..7 -> 0.5
	if !almost(clusters[1].Scale, 0.5, 1e-12) {
		t.Errorf("scale = %f, want 0.5", clusters[1].Scale)
	}
}

func TestScale_Monotonic(t *testing.T) {
	p := DefaultParams()
	clusters := make([]*Cluster, 0, 20)
	for n := 1; n <= 20; n++ {
		clusters = append(clusters, &Cluster{Members: make([]recommendation.Recommendation, n)})
	}
	Scale(clusters, p)
	for i := 1; i < len(clusters); i++ {
		if clusters[i].Radius < clusters[i-1].Radius {
			t.Fatalf("radius decreased at count %d", i+1)
		}
	}
}

func TestScale_TieUsesMidpoint(t *testing.T) {
	p := DefaultParams()
	mid := (p.MinRadius + p.MaxRadius) / 2

	single := []*Cluster{{Members: make([]recommendation.Recommendation, 3)}}
	Scale(single, p)
	if single[0].Radius != mid {
		t.Errorf("singleton radius = %f, want %f", single[0].Radius, mid)
	}

	tied := []*Cluster{
		{Members: make([]recommendation.Recommendation, 2)},
		{Members: make([]recommendation.Recommendation, 2)},
	}
	Scale(tied, p)
	for i, c := range tied {
		if c.Radius != mid {
			t.Errorf("tied cluster %d radius = %f, want %f", i, c.Radius, mid)
		}
	}
}

func TestAggregate_CafeScenario(t *testing.T) {
	p := DefaultParams()
	clusters := Aggregate(category.Cafe, cafeScenario(), p)

	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	wp, loop := clusters[0], clusters[1]
	if wp.Count() != 3 || loop.Count() != 1 {
		t.Errorf("counts = %d, %d; want 3, 1", wp.Count(), loop.Count())
	}
	if wp.Radius <= loop.Radius {
		t.Errorf("Wicker Park radius %f should exceed The Loop radius %f", wp.Radius, loop.Radius)
	}

	ix := NewIndex(clusters, p.Tolerance)
	got := ix.Lookup(wp.Centroid)
	if len(got) != 1 {
		t.Fatalf("expected one category, got %d", len(got))
	}
	m := got[category.Cafe]
	if m == nil || len(m.Clusters) != 1 || m.Clusters[0].Neighborhood != "Wicker Park" {
		t.Fatalf("unexpected matches: %+v", m)
	}
}

func TestAggregate_EmptyCategory(t *testing.T) {
	if got := Aggregate(category.Museum, cafeScenario(), DefaultParams()); got != nil {
		t.Errorf("expected nil, got %d clusters", len(got))
	}
}

func TestAggregate_IgnoresOtherCategories(t *testing.T) {
	recs := append(cafeScenario(), rec(9, category.Bar, "Wicker Park", 41.9, -87.67))
	clusters := Aggregate(category.Cafe, recs, DefaultParams())
	for _, c := range clusters {
		if c.Category != category.Cafe {
			t.Errorf("cluster category = %s", c.Category)
		}
		for _, m := range c.Members {
			if m.Category() != category.Cafe {
				t.Errorf("member %d has category %s", m.ID(), m.Category())
			}
		}
	}
}

func TestLayers(t *testing.T) {
	p := DefaultParams()
	c := &Cluster{
		Category:     category.Bar,
		Neighborhood: "River North",
		Centroid:     geo.Point{Lat: 41.8917, Lon: -87.6244},
		Radius:       200,
	}
	shapes := Layers(c, p)
	if len(shapes) != p.BlurLayers {
		t.Fatalf("expected %d layers, got %d", p.BlurLayers, len(shapes))
	}

	interactive := 0
	for i, s := range shapes {
		if s.Color != "#3498db" {
			t.Errorf("layer %d color = %s", i, s.Color)
		}
		if s.Center != c.Centroid {
			t.Errorf("layer %d center moved", i)
		}
		if s.Interactive {
			interactive++
			if s.Cluster != c {
				t.Error("interactive layer must carry its cluster")
			}
		} else if s.Cluster != nil {
			t.Errorf("decorative layer %d carries cluster", i)
		}
		if i > 0 {
			if s.Radius >= shapes[i-1].Radius {
				t.Errorf("layers must go outer to inner: %f then %f", shapes[i-1].Radius, s.Radius)
			}
			if s.Opacity < shapes[i-1].Opacity {
				t.Errorf("opacity must rise toward center: %f then %f", shapes[i-1].Opacity, s.Opacity)
			}
			if s.ZIndex <= shapes[i-1].ZIndex {
				t.Errorf("inner layers must stack above outer ones")
			}
		}
	}
	if interactive != 1 {
		t.Fatalf("expected exactly one interactive layer, got %d", interactive)
	}

	base := shapes[len(shapes)-1]
	if !base.Interactive || base.Radius != c.Radius || !almost(base.Opacity, p.MaxOpacity, 1e-12) {
		t.Errorf("base layer = %+v", base)
	}
	outer := shapes[0]
	wantOuter := c.Radius + c.Radius*p.BlurStep*float64(p.BlurLayers-1)
	if !almost(outer.Radius, wantOuter, 1e-9) {
		t.Errorf("outer radius = %f, want %f", outer.Radius, wantOuter)
	}
}

func TestLayerOpacity_Power(t *testing.T) {
	p := DefaultParams()
	p.Falloff = FalloffPower
	if !almost(p.LayerOpacity(0), p.MaxOpacity, 1e-12) {
		t.Errorf("layer 0 opacity = %f", p.LayerOpacity(0))
	}
	for i := 1; i < p.BlurLayers; i++ {
		if p.LayerOpacity(i) >= p.LayerOpacity(i-1) {
			t.Errorf("power falloff not decreasing at %d", i)
		}
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero min radius", func(p *Params) { p.MinRadius = 0 }},
		{"max below min", func(p *Params) { p.MaxRadius = 100 }},
		{"tolerance below one", func(p *Params) { p.Tolerance = 0.9 }},
		{"no layers", func(p *Params) { p.BlurLayers = 0 }},
		{"negative step", func(p *Params) { p.BlurStep = -0.1 }},
		{"opacity above one", func(p *Params) { p.MaxOpacity = 1.5 }},
		{"zero sigma", func(p *Params) { p.Sigma = 0 }},
		{"unknown falloff", func(p *Params) { p.Falloff = "linear" }},
	}
	for _, tt := range tests {
		p := DefaultParams()
		tt.mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
