// Package geojson exports hotspot generations as GeoJSON feature collections.
package geojson

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/windycity/chirecs/internal/domain/hotspot"
)

// DefaultSegments is the number of vertices used to approximate a circle.
const DefaultSegments = 48

// Feature kinds, stored in the "kind" property.
const (
	KindArea     = "area"
	KindCentroid = "centroid"
)

// Encoder converts generations to feature collections.
type Encoder struct {
	segments int
}

// NewEncoder creates an encoder. segments below 8 fall back to DefaultSegments.
func NewEncoder(segments int) *Encoder {
	if segments < 8 {
		segments = DefaultSegments
	}
	return &Encoder{segments: segments}
}

// Encode emits one polygon and one centroid point per interactive cluster,
// in the generation's draw order.
func (e *Encoder) Encode(g *hotspot.Generation) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if g == nil {
		return fc
	}
	for i := range g.Shapes {
		s := &g.Shapes[i]
		if !s.Interactive || s.Cluster == nil {
			continue
		}
		center := orb.Point{s.Center.Lon, s.Center.Lat}

		area := geojson.NewFeature(orb.Polygon{Circle(center, s.Radius, e.segments)})
		setProps(area, s, KindArea)
		fc.Append(area)

		pt := geojson.NewFeature(center)
		setProps(pt, s, KindCentroid)
		fc.Append(pt)
	}
	if sw, ne, ok := g.Bounds(); ok {
		fc.BBox = geojson.NewBBox(orb.Bound{
			Min: orb.Point{sw.Lon, sw.Lat},
			Max: orb.Point{ne.Lon, ne.Lat},
		})
	}
	return fc
}

func setProps(f *geojson.Feature, s *hotspot.Shape, kind string) {
	f.Properties["kind"] = kind
	f.Properties["category"] = string(s.Category)
	f.Properties["neighborhood"] = s.Neighborhood
	f.Properties["count"] = s.Cluster.Count()
	f.Properties["radius"] = s.Radius
	f.Properties["scale"] = s.Cluster.Scale
	f.Properties["color"] = s.Color
	f.Properties["opacity"] = s.Opacity
}

// Circle approximates a circle of radius meters around center as a closed ring.
func Circle(center orb.Point, radius float64, segments int) orb.Ring {
	ring := make(orb.Ring, 0, segments+1)
	step := 360.0 / float64(segments)
	for i := range segments {
		ring = append(ring, geo.PointAtBearingAndDistance(center, step*float64(i), radius))
	}
	return append(ring, ring[0])
}
