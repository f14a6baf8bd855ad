package globe

import colorful "github.com/lucasb-eyer/go-colorful"

// circleCall is one FillCircle recorded by fakeSurface.
type circleCall struct {
	x, y, r float64
	c       colorful.Color
	alpha   float64
	blend   Blend
}

// fakeSurface records draw calls instead of rasterizing.
type fakeSurface struct {
	w, h     int
	blend    Blend
	clears   int
	circles  []circleCall
	radials  int
	polygons int
	lines    int
	dashed   int
	shaded   int

	panicOnPolygon bool
}

func newFakeSurface(w, h int) *fakeSurface {
	return &fakeSurface{w: w, h: h}
}

func (f *fakeSurface) Size() (int, int)         { return f.w, f.h }
func (f *fakeSurface) SetBlend(b Blend)         { f.blend = b }
func (f *fakeSurface) Clear(colorful.Color)     { f.clears++ }
func (f *fakeSurface) StrokeLine(_, _ Point, _ colorful.Color, _ float64) { f.lines++ }

func (f *fakeSurface) FillCircle(cx, cy, r float64, c colorful.Color, alpha float64) {
	f.circles = append(f.circles, circleCall{x: cx, y: cy, r: r, c: c, alpha: alpha, blend: f.blend})
}

func (f *fakeSurface) FillRadial(_, _, _ float64, _ colorful.Color, _, _ float64) { f.radials++ }

func (f *fakeSurface) FillPolygon(_ []Point, _ colorful.Color, _ float64) {
	if f.panicOnPolygon {
		panic("polygon rasterizer exploded")
	}
	f.polygons++
}

func (f *fakeSurface) StrokeDashed(_, _ Point, _, _ float64, _ colorful.Color, _ float64) {
	f.dashed++
}

// Shade samples a coarse grid so tests exercise the callback cheaply.
func (f *fakeSurface) Shade(fn ShadeFunc) {
	for y := 0; y < f.h; y += 4 {
		for x := 0; x < f.w; x += 4 {
			if _, _, ok := fn(float64(x)+0.5, float64(y)+0.5); ok {
				f.shaded++
			}
		}
	}
}

// additive returns the circles drawn with additive blending.
func (f *fakeSurface) additive() []circleCall {
	var out []circleCall
	for _, c := range f.circles {
		if c.blend == BlendLighter {
			out = append(out, c)
		}
	}
	return out
}
