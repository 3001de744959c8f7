package hotspot

import (
	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	"github.com/windycity/chirecs/internal/domain/recommendation"
)

// Cluster is every recommendation of one category sharing a neighborhood label.
// Clusters are built fresh per generation and never updated afterwards.
type Cluster struct {
	Category     category.Category
	Neighborhood string
	Members      []recommendation.Recommendation
	Centroid     geo.Point
	// Scale is the normalized density in [0,1] relative to the other
	// neighborhoods of the same category.
	Scale  float64
	Radius float64
}

// Count returns the number of members.
func (c *Cluster) Count() int { return len(c.Members) }

type accumulator struct {
	cluster *Cluster
	sumLat  float64
	sumLon  float64
}

// Group buckets recs by neighborhood label in one pass. Clusters come back in
// first-appearance order with centroids set; Scale and Radius are left zero.
// The category of each cluster is taken from its first member.
func Group(recs []recommendation.Recommendation) []*Cluster {
	byLabel := make(map[string]*accumulator)
	order := make([]*accumulator, 0)

	for i := range recs {
		r := &recs[i]
		key := r.NeighborhoodKey()
		acc, ok := byLabel[key]
		if !ok {
			acc = &accumulator{cluster: &Cluster{Category: r.Category(), Neighborhood: key}}
			byLabel[key] = acc
			order = append(order, acc)
		}
		acc.cluster.Members = append(acc.cluster.Members, *r)
		acc.sumLat += r.Lat()
		acc.sumLon += r.Lon()
	}

	out := make([]*Cluster, len(order))
	for i, acc := range order {
		n := float64(len(acc.cluster.Members))
		acc.cluster.Centroid = geo.Point{Lat: acc.sumLat / n, Lon: acc.sumLon / n}
		out[i] = acc.cluster
	}
	return out
}

// Scale assigns Scale and Radius using min/max normalization of member counts.
// When every count is equal the midpoint 0.5 is used.
func Scale(clusters []*Cluster, p Params) {
	if len(clusters) == 0 {
		return
	}
	minCount, maxCount := clusters[0].Count(), clusters[0].Count()
	for _, c := range clusters[1:] {
		n := c.Count()
		if n < minCount {
			minCount = n
		}
		if n > maxCount {
			maxCount = n
		}
	}

	for _, c := range clusters {
		s := 0.5
		if maxCount != minCount {
			s = float64(c.Count()-minCount) / float64(maxCount-minCount)
		}
		c.Scale = s
		c.Radius = p.RadiusFor(s)
	}
}

// Aggregate groups and scales the recommendations of one category.
// Records of any other category are ignored. No matching records yields nil.
func Aggregate(cat category.Category, recs []recommendation.Recommendation, p Params) []*Cluster {
	filtered := make([]recommendation.Recommendation, 0, len(recs))
	for i := range recs {
		if recs[i].Category() == cat {
			filtered = append(filtered, recs[i])
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	clusters := Group(filtered)
	for _, c := range clusters {
		c.Category = cat
	}
	Scale(clusters, p)
	return clusters
}
