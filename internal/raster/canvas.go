// Package raster is the software drawing surface the globe renders into.
// Pixels are kept as linear float RGB so additive city lights can exceed 1
// before the final clamp.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"

	"github.com/litescript/ls-globe/internal/globe"
)

// Canvas is an RGB pixel buffer implementing globe.Surface and image.Image.
// It is not safe for concurrent use.
type Canvas struct {
	w, h  int
	pix   []colorful.Color
	blend globe.Blend

	z    *vector.Rasterizer
	mask *image.Alpha
}

var _ globe.Surface = (*Canvas)(nil)

// New allocates a w×h canvas cleared to black.
func New(w, h int) *Canvas {
	c := &Canvas{z: vector.NewRasterizer(1, 1)}
	c.Resize(w, h)
	return c
}

// Resize changes the canvas dimensions. Contents are discarded when the size
// changes.
func (c *Canvas) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	if w == c.w && h == c.h && c.pix != nil {
		return
	}
	c.w, c.h = w, h
	c.pix = make([]colorful.Color, w*h)
}

// Size implements globe.Surface.
func (c *Canvas) Size() (int, int) { return c.w, c.h }

// SetBlend implements globe.Surface.
func (c *Canvas) SetBlend(b globe.Blend) { c.blend = b }

// Clear fills every pixel with col, ignoring the blend mode.
func (c *Canvas) Clear(col colorful.Color) {
	for i := range c.pix {
		c.pix[i] = col
	}
}

// Pixel returns the clamped colour at (x, y). Out-of-range coordinates read
// as black.
func (c *Canvas) Pixel(x, y int) colorful.Color {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return colorful.Color{}
	}
	return c.pix[y*c.w+x].Clamped()
}

func (c *Canvas) put(x, y int, col colorful.Color, alpha float64) {
	if alpha <= 0 || x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	alpha = math.Min(alpha, 1)
	p := &c.pix[y*c.w+x]
	switch c.blend {
	case globe.BlendLighter:
		p.R += col.R * alpha
		p.G += col.G * alpha
		p.B += col.B * alpha
	default:
		p.R = p.R*(1-alpha) + col.R*alpha
		p.G = p.G*(1-alpha) + col.G*alpha
		p.B = p.B*(1-alpha) + col.B*alpha
	}
}

// discCoverage approximates how much of the pixel centred d pixels from the
// disc centre falls inside a disc of radius r.
func discCoverage(d, r float64) float64 {
	cov := math.Max(0, math.Min(1, r+0.5-d))
	if r < 0.5 {
		cov *= 2 * r
	}
	return cov
}

func (c *Canvas) discBounds(cx, cy, r float64) (x0, y0, x1, y1 int) {
	x0 = max(int(math.Floor(cx-r-1)), 0)
	y0 = max(int(math.Floor(cy-r-1)), 0)
	x1 = min(int(math.Ceil(cx+r+1)), c.w-1)
	y1 = min(int(math.Ceil(cy+r+1)), c.h-1)
	return
}

// FillCircle implements globe.Surface with an anti-aliased edge.
func (c *Canvas) FillCircle(cx, cy, r float64, col colorful.Color, alpha float64) {
	if r <= 0 || alpha <= 0 {
		return
	}
	x0, y0, x1, y1 := c.discBounds(cx, cy, r)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if cov := discCoverage(d, r); cov > 0 {
				c.put(x, y, col, alpha*cov)
			}
		}
	}
}

// FillRadial implements globe.Surface.
func (c *Canvas) FillRadial(cx, cy, r float64, col colorful.Color, inner, outer float64) {
	if r <= 0 {
		return
	}
	x0, y0, x1, y1 := c.discBounds(cx, cy, r)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			cov := discCoverage(d, r)
			if cov <= 0 {
				continue
			}
			t := math.Min(d/r, 1)
			c.put(x, y, col, (inner+(outer-inner)*t)*cov)
		}
	}
}

// FillPolygon implements globe.Surface. Self-overlapping rings fill with
// the non-zero rule.
func (c *Canvas) FillPolygon(pts []globe.Point, col colorful.Color, alpha float64) {
	if len(pts) < 3 || alpha <= 0 {
		return
	}
	c.fillPath(pts, col, alpha)
}

// fillPath rasterizes the closed path pts into the coverage mask and
// composites col through it.
func (c *Canvas) fillPath(pts []globe.Point, col colorful.Color, alpha float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			return
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	x0 := max(int(math.Floor(minX)), 0)
	y0 := max(int(math.Floor(minY)), 0)
	x1 := min(int(math.Ceil(maxX)), c.w)
	y1 := min(int(math.Ceil(maxY)), c.h)
	bw, bh := x1-x0, y1-y0
	if bw <= 0 || bh <= 0 {
		return
	}

	c.z.Reset(bw, bh)
	c.z.DrawOp = draw.Src
	ox, oy := float64(x0), float64(y0)
	c.z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		c.z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	c.z.ClosePath()

	if c.mask == nil || c.mask.Rect.Dx() != bw || c.mask.Rect.Dy() != bh {
		c.mask = image.NewAlpha(image.Rect(0, 0, bw, bh))
	}
	c.z.Draw(c.mask, c.mask.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < bh; y++ {
		row := c.mask.Pix[y*c.mask.Stride : y*c.mask.Stride+bw]
		for x, m := range row {
			if m != 0 {
				c.put(x0+x, y0+y, col, alpha*float64(m)/255)
			}
		}
	}
}

// StrokeLine implements globe.Surface with a one-pixel anti-aliased line.
func (c *Canvas) StrokeLine(a, b globe.Point, col colorful.Color, alpha float64) {
	const halfWidth = 0.5
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if alpha <= 0 {
		return
	}
	if length < 1e-9 {
		c.FillCircle(a.X, a.Y, halfWidth, col, alpha)
		return
	}
	nx, ny := -dy/length*halfWidth, dx/length*halfWidth
	c.fillPath([]globe.Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}, col, alpha)
}

// StrokeDashed implements globe.Surface. The pattern starts with a dash at a.
func (c *Canvas) StrokeDashed(a, b globe.Point, dash, gap float64, col colorful.Color, alpha float64) {
	if dash <= 0 {
		return
	}
	gap = math.Max(gap, 0)
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		return
	}
	ux, uy := dx/length, dy/length
	for s := 0.0; s < length; s += dash + gap {
		e := math.Min(s+dash, length)
		c.StrokeLine(
			globe.Point{X: a.X + ux*s, Y: a.Y + uy*s},
			globe.Point{X: a.X + ux*e, Y: a.Y + uy*e},
			col, alpha,
		)
	}
}

// Shade implements globe.Surface, sampling fn at every pixel centre.
func (c *Canvas) Shade(fn globe.ShadeFunc) {
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			if col, alpha, ok := fn(float64(x)+0.5, float64(y)+0.5); ok {
				c.put(x, y, col, alpha)
			}
		}
	}
}

// ColorModel implements image.Image.
func (c *Canvas) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (c *Canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.w, c.h) }

// At implements image.Image.
func (c *Canvas) At(x, y int) color.Color {
	r, g, b := c.Pixel(x, y).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// EncodePNG writes the canvas as a PNG image.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c)
}
