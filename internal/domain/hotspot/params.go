// Package hotspot turns point recommendations into per-neighborhood clusters,
// sizes them by relative density, and answers "which clusters contain this point".
//
// Everything here is pure computation over validated input. Nothing returns errors
// except Params.Validate.
package hotspot

import (
	"fmt"
	"math"
)

// Falloff selects the opacity profile of the blur layers.
type Falloff string

// Supported falloff profiles.
const (
	FalloffGaussian Falloff = "gaussian"
	FalloffPower    Falloff = "power"
)

// Params are the tunable presentation constants of the aggregator.
type Params struct {
	MinRadius  float64 // meters, least dense neighborhood
	MaxRadius  float64 // meters, most dense neighborhood
	Tolerance  float64 // hit-test slack, multiplies the base radius
	BlurLayers int     // concentric layers per cluster
	BlurStep   float64 // radius growth per layer as a fraction of the base radius
	Falloff    Falloff
	Sigma      float64 // gaussian width, in units of the layer fraction
	Exponent   float64 // power-law exponent
	MaxOpacity float64 // opacity of the innermost layer
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		MinRadius:  120,
		MaxRadius:  500,
		Tolerance:  1.1,
		BlurLayers: 10,
		BlurStep:   0.08,
		Falloff:    FalloffGaussian,
		Sigma:      0.4,
		Exponent:   2,
		MaxOpacity: 0.6,
	}
}

// Validate checks that the parameters describe a monotonic, drawable configuration.
func (p Params) Validate() error {
	if p.MinRadius <= 0 {
		return fmt.Errorf("min radius must be positive, got %v", p.MinRadius)
	}
	if p.MaxRadius < p.MinRadius {
		return fmt.Errorf("max radius %v is below min radius %v", p.MaxRadius, p.MinRadius)
	}
	if p.Tolerance < 1 {
		return fmt.Errorf("tolerance must be >= 1, got %v", p.Tolerance)
	}
	if p.BlurLayers < 1 {
		return fmt.Errorf("blur layers must be >= 1, got %d", p.BlurLayers)
	}
	if p.BlurStep < 0 {
		return fmt.Errorf("blur step must be >= 0, got %v", p.BlurStep)
	}
	if p.MaxOpacity <= 0 || p.MaxOpacity > 1 {
		return fmt.Errorf("max opacity must be in (0,1], got %v", p.MaxOpacity)
	}
	switch p.Falloff {
	case FalloffGaussian:
		if p.Sigma <= 0 {
			return fmt.Errorf("gaussian sigma must be positive, got %v", p.Sigma)
		}
	case FalloffPower:
		if p.Exponent <= 0 {
			return fmt.Errorf("power exponent must be positive, got %v", p.Exponent)
		}
	default:
		return fmt.Errorf("unknown falloff %q", p.Falloff)
	}
	return nil
}

// RadiusFor maps a normalized scale in [0,1] linearly onto [MinRadius, MaxRadius].
func (p Params) RadiusFor(scale float64) float64 {
	return p.MinRadius + scale*(p.MaxRadius-p.MinRadius)
}

// LayerOpacity returns the opacity of blur layer i, where layer 0 is the base disc.
func (p Params) LayerOpacity(i int) float64 {
	t := float64(i) / float64(p.BlurLayers)
	switch p.Falloff {
	case FalloffPower:
		return p.MaxOpacity * math.Pow(1-t, p.Exponent)
	default:
		return p.MaxOpacity * math.Exp(-(t*t)/(2*p.Sigma*p.Sigma))
	}
}
