// Package render rasterises hotspot generations to PNG heat maps.
package render

import (
	"context"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/windycity/chirecs/internal/domain/category"
	"github.com/windycity/chirecs/internal/domain/geo"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
)

// Defaults for Options zero values.
const (
	DefaultWidth     = 1024
	DefaultPadding   = 250.0
	DefaultBatchSize = 64
	MaxWidth         = 4096
)

// Options configures the output image.
type Options struct {
	// Width of the image in pixels; height follows the projected aspect ratio.
	Width int
	// Padding in meters around the outermost shape.
	Padding float64
	// Background is a #rrggbb color; empty means white.
	Background string
	// BatchSize is how many shapes are drawn between cancellation checks.
	BatchSize int
}

// Renderer draws generations with an equirectangular projection.
type Renderer struct {
	opts Options
	bg   color.RGBA
}

// New creates a renderer, filling zero options with defaults.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	opts.Width = min(opts.Width, MaxWidth)
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	bg := canvas.White
	if opts.Background != "" {
		bg = parseHexColor(opts.Background, canvas.White)
	}
	return &Renderer{opts: opts, bg: bg}
}

// projection maps lat/lon onto canvas millimetres (1 px per mm), y pointing north.
type projection struct {
	origin geo.Point
	cosLat float64
	scale  float64 // pixels per meter
	width  float64
	height float64
}

func newProjection(sw, ne geo.Point, width int, padding float64) projection {
	midLat := (sw.Lat + ne.Lat) / 2
	cosLat := math.Max(math.Cos(midLat*math.Pi/180), 1e-6)

	spanX := (ne.Lon-sw.Lon)*geo.MetersPerDegree*cosLat + 2*padding
	spanY := (ne.Lat-sw.Lat)*geo.MetersPerDegree + 2*padding

	// Neither side may exceed MaxWidth; a tall extent shrinks the width instead.
	scale := float64(width) / spanX
	w := float64(width)
	if spanY*scale > MaxWidth {
		scale = MaxWidth / spanY
		w = math.Max(1, math.Round(spanX*scale))
	}
	padLat := padding / geo.MetersPerDegree
	padLon := padLat / cosLat

	return projection{
		origin: geo.Point{Lat: sw.Lat - padLat, Lon: sw.Lon - padLon},
		cosLat: cosLat,
		scale:  scale,
		width:  w,
		height: math.Min(MaxWidth, math.Max(1, math.Round(spanY*scale))),
	}
}

func (p projection) point(pt geo.Point) (x, y float64) {
	x = (pt.Lon - p.origin.Lon) * geo.MetersPerDegree * p.cosLat * p.scale
	y = (pt.Lat - p.origin.Lat) * geo.MetersPerDegree * p.scale
	return x, y
}

func finite(p geo.Point) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0)
}

func (p projection) meters(m float64) float64 { return m * p.scale }

// PNG draws every shape of gen, outer layers first, and encodes the result to w.
// An empty generation yields a blank image of the configured width.
func (r *Renderer) PNG(ctx context.Context, gen *domhot.Generation, w io.Writer) error {
	rast, err := r.Rasterize(ctx, gen)
	if err != nil {
		return err
	}
	if err := png.Encode(w, rast); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Rasterize draws gen into a new rasterizer, checking ctx between shape batches.
func (r *Renderer) Rasterize(ctx context.Context, gen *domhot.Generation) (*rasterizer.Rasterizer, error) {
	var proj projection
	sw, ne, ok := geo.Point{}, geo.Point{}, false
	if gen != nil {
		sw, ne, ok = gen.Bounds()
		ok = ok && finite(sw) && finite(ne)
	}
	if ok {
		proj = newProjection(sw, ne, r.opts.Width, r.opts.Padding)
	} else {
		proj = projection{width: float64(r.opts.Width), height: float64(r.opts.Width) * 3 / 4}
	}

	rast := rasterizer.New(proj.width, proj.height, canvas.DPMM(1.0), canvas.DefaultColorSpace)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: r.bg}
	bgStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	rast.RenderPath(canvas.Rectangle(proj.width, proj.height), bgStyle, canvas.Identity)

	if !ok {
		return rast, nil
	}

	for _, batch := range gen.Batches(r.opts.BatchSize) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render generation %d: %w", gen.Seq, err)
		}
		for i := range batch {
			drawShape(rast, proj, &batch[i])
		}
	}
	return rast, nil
}

func drawShape(rast *rasterizer.Rasterizer, proj projection, s *domhot.Shape) {
	rgb := parseHexColor(s.Color, parseHexColor(category.FallbackColor, canvas.Red))
	alpha := uint8(math.Round(math.Max(0, math.Min(1, s.Opacity)) * 255))

	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: premultiply(color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: alpha})}
	style.Stroke = canvas.Paint{Color: canvas.Transparent}

	cx, cy := proj.point(s.Center)
	path := canvas.Circle(math.Max(proj.meters(s.Radius), 0.5)).Translate(cx, cy)
	rast.RenderPath(path, style, canvas.Identity)
}

func premultiply(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}

func parseHexColor(hex string, fallback color.RGBA) color.RGBA {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.RGBA{r, g, b, 255}
}
