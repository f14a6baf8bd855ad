package globe

import colorful "github.com/lucasb-eyer/go-colorful"

// Blend selects how a draw call composites onto the surface.
type Blend int

const (
	BlendNormal  Blend = iota // source-over
	BlendLighter              // additive; overlapping lights sum
)

// Point is a screen position in pixels.
type Point struct {
	X, Y float64
}

// ShadeFunc returns the colour and opacity to composite at pixel (x, y).
// ok=false leaves the pixel untouched.
type ShadeFunc func(x, y float64) (c colorful.Color, alpha float64, ok bool)

// Surface is the drawing target of the renderer. Alpha values are 0-1.
type Surface interface {
	Size() (width, height int)
	SetBlend(b Blend)
	Clear(c colorful.Color)
	FillCircle(cx, cy, r float64, c colorful.Color, alpha float64)
	// FillRadial fills a disc whose opacity falls linearly from inner at the
	// centre to outer at radius r.
	FillRadial(cx, cy, r float64, c colorful.Color, inner, outer float64)
	FillPolygon(pts []Point, c colorful.Color, alpha float64)
	StrokeLine(a, b Point, c colorful.Color, alpha float64)
	StrokeDashed(a, b Point, dash, gap float64, c colorful.Color, alpha float64)
	Shade(fn ShadeFunc)
}

// Style is the palette of the compositor.
type Style struct {
	Space      colorful.Color
	Ocean      colorful.Color
	Graticule  colorful.Color
	Land       colorful.Color
	LandBorder colorful.Color
	Twilight   colorful.Color
	Night      colorful.Color
	SunCore    colorful.Color
	SunCorona  colorful.Color
	CityLight  colorful.Color
	Arc        colorful.Color
}

// mustHex parses a "#rrggbb" literal and panics on a malformed one.
func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultStyle returns the dark tactical palette.
func DefaultStyle() Style {
	return Style{
		Space:      mustHex("#030508"),
		Ocean:      mustHex("#0a1a2f"),
		Graticule:  mustHex("#1f3a5c"),
		Land:       mustHex("#2e4a3a"),
		LandBorder: mustHex("#c3d333"),
		Twilight:   mustHex("#2a2250"),
		Night:      mustHex("#02040c"),
		SunCore:    mustHex("#fff6d8"),
		SunCorona:  mustHex("#ffc35a"),
		CityLight:  mustHex("#ffc878"),
		Arc:        mustHex("#ffffff"),
	}
}
