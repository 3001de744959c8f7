package hotspot

import (
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
)

// Match is the set of clusters of one category containing a query point.
type Match struct {
	Category category.Category
	Clusters []*Cluster
}

// Matches maps category to its matched clusters. Empty when nothing contains the point.
type Matches map[category.Category]*Match

// Total returns the number of matched clusters across all categories.
func (m Matches) Total() int {
	n := 0
	for _, v := range m {
		n += len(v.Clusters)
	}
	return n
}

// Index is a flat list of the interactive clusters of a generation.
type Index struct {
	clusters  []*Cluster
	tolerance float64
}

// NewIndex builds an index over clusters. Tolerance below 1 is raised to 1.
func NewIndex(clusters []*Cluster, tolerance float64) *Index {
	if tolerance < 1 {
		tolerance = 1
	}
	cs := make([]*Cluster, len(clusters))
	copy(cs, clusters)
	return &Index{clusters: cs, tolerance: tolerance}
}

// Len returns the number of indexed clusters.
func (ix *Index) Len() int { return len(ix.clusters) }

// Lookup returns every cluster whose tolerance-expanded extent contains q,
// grouped by category and deduplicated by neighborhood.
func (ix *Index) Lookup(q geo.Point) Matches {
	out := make(Matches)
	for _, c := range ix.clusters {
		maxR := c.Radius * ix.tolerance
		if !geo.WithinApprox(q, c.Centroid, maxR) {
			continue
		}
		if geo.Distance(q, c.Centroid) > maxR {
			continue
		}

		m, ok := out[c.Category]
		if !ok {
			m = &Match{Category: c.Category}
			out[c.Category] = m
		}
		if containsNeighborhood(m.Clusters, c.Neighborhood) {
			continue
		}
		m.Clusters = append(m.Clusters, c)
	}
	return out
}

func containsNeighborhood(cs []*Cluster, name string) bool {
	for _, c := range cs {
		if c.Neighborhood == name {
			return true
		}
	}
	return false
}
