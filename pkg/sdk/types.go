package chirecs

import (
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
)

// Categories lists every supported place type in display order.
func Categories() []string {
	all := category.All()
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = string(c)
	}
	return out
}

// NewRecommendation is the input of Create.
type NewRecommendation struct {
	Category     string
	Neighborhood string
	Lat          float64
	Lon          float64
	PlaceName    string // optional
}

// Recommendation is a stored recommendation.
type Recommendation struct {
	ID           int64
	Category     string
	Neighborhood string
	Lat          float64
	Lon          float64
	PlaceName    string
	CreatedAt    time.Time
}

// NearbyResult is a recommendation with its distance from the query point.
type NearbyResult struct {
	Recommendation
	Distance float64 // meters
}

// NearbyQuery selects recommendations around a point.
type NearbyQuery struct {
	Lat, Lon   float64
	Radius     float64  // meters; 0 uses the server default
	Limit      int      // 0 uses the server default
	Categories []string // empty means all
}

// CategoryCount is one row of Stats.
type CategoryCount struct {
	Category string
	Label    string
	Count    int64
}

// SeedResult summarizes a Seed run.
type SeedResult struct {
	Cleared  int
	Inserted int
	Skipped  int
}

// Cluster is one neighborhood hotspot.
type Cluster struct {
	Category     string
	Neighborhood string
	Count        int
	Lat, Lon     float64 // centroid
	Scale        float64 // 0..1 relative density
	Radius       float64 // meters
	Color        string
	Places       []string
}

// Snapshot is an immutable view of one hotspot generation.
type Snapshot struct {
	Generation uint64
	BuiltAt    time.Time
	Records    int
	Categories map[string][]Cluster
}
