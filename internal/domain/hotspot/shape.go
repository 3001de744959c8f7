package hotspot

import (
	"math"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
)

// Shape is one drawable circle. Only the base layer of a cluster is
// Interactive and carries the Cluster back-reference.
type Shape struct {
	Center       geo.Point
	Radius       float64
	Color        string
	Opacity      float64
	ZIndex       int
	Interactive  bool
	Category     category.Category
	Neighborhood string
	Cluster      *Cluster
}

// Layers returns the concentric blur layers of c ordered outer to inner,
// so drawing them in order leaves the base disc on top.
// Layer i has radius base*(1 + BlurStep*i) and the falloff opacity for i.
func Layers(c *Cluster, p Params) []Shape {
	n := p.BlurLayers
	if n < 1 {
		n = 1
	}
	color := c.Category.Color()
	step := c.Radius * p.BlurStep

	shapes := make([]Shape, 0, n)
	for i := n - 1; i >= 0; i-- {
		s := Shape{
			Center:       c.Centroid,
			Radius:       c.Radius + step*float64(i),
			Color:        color,
			Opacity:      p.LayerOpacity(i),
			ZIndex:       n - i,
			Category:     c.Category,
			Neighborhood: c.Neighborhood,
		}
		if i == 0 {
			s.Interactive = true
			s.Cluster = c
		}
		shapes = append(shapes, s)
	}
	return shapes
}

func cosDeg(lat float64) float64 {
	c := math.Cos(lat * math.Pi / 180)
	if c < 1e-6 {
		return 1e-6
	}
	return c
}
