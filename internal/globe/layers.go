package globe

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-globe/internal/astro"
)

// projected is a ring vertex on screen. Limb vertices lie on the globe
// silhouette; front limb vertices are the crossings of a clipped edge.
type projected struct {
	Point
	front bool
	limb  bool
}

func (r *Renderer) drawOcean(s Surface, vp Viewport) {
	cx, cy := vp.Center()
	s.FillCircle(cx, cy, r.cam.Radius(vp), r.style.Ocean, 1)
}

func (r *Renderer) drawGraticule(s Surface, vp Viewport) {
	const alpha = 0.55
	for lng := -180.0; lng < 180; lng += graticuleStep {
		var line []astro.GeoPoint
		for lat := -90.0; lat <= 90; lat += graticuleSample {
			line = append(line, astro.GeoPoint{Lat: lat, Lng: lng})
		}
		r.strokeGeoLine(s, vp, line, r.style.Graticule, alpha)
	}
	for lat := -90 + graticuleStep; lat < 90; lat += graticuleStep {
		var line []astro.GeoPoint
		for lng := -180.0; lng <= 180; lng += graticuleSample {
			line = append(line, astro.GeoPoint{Lat: lat, Lng: lng})
		}
		r.strokeGeoLine(s, vp, line, r.style.Graticule, alpha)
	}
}

// strokeGeoLine draws the front-hemisphere segments of a polyline.
func (r *Renderer) strokeGeoLine(s Surface, vp Viewport, pts []astro.GeoPoint, c colorful.Color, alpha float64) {
	var prev Point
	prevVisible := false
	for _, p := range pts {
		x, y, visible := r.cam.Project(p, vp)
		cur := Point{X: x, Y: y}
		if visible && prevVisible {
			s.StrokeLine(prev, cur, c, alpha)
		}
		prev, prevVisible = cur, visible
	}
}

func (r *Renderer) drawLand(s Surface, vp Viewport) {
	r.rings = r.rings[:0]
	poly := make([]Point, 0, 256)

	for _, country := range r.topology.Countries() {
		for _, ring := range country.Rings {
			proj := r.cam.clipRing(ring, vp)
			if proj == nil {
				continue
			}
			r.rings = append(r.rings, proj)

			poly = poly[:0]
			for _, p := range proj {
				poly = append(poly, p.Point)
			}
			s.FillPolygon(poly, r.style.Land, 0.55)
		}
	}
	r.strokeBorders(s, 0.9)
}

// strokeBorders outlines the rings projected by the last drawLand.
func (r *Renderer) strokeBorders(s Surface, alpha float64) {
	for _, ring := range r.rings {
		for i := range ring {
			a := ring[i]
			b := ring[(i+1)%len(ring)]
			if a.front && b.front && !(a.limb && b.limb) {
				s.StrokeLine(a.Point, b.Point, r.style.LandBorder, alpha)
			}
		}
	}
}

// shadeBand is the composite of every terminator ring whose radius exceeds
// the band's inner edge.
type shadeBand struct {
	within float64 // band applies at distances below this many degrees
	color  colorful.Color
	alpha  float64
}

// terminatorBands pre-composites the concentric night rings. Ring radii
// step from 90 down to 72 degrees; the 90-80 band interpolates from the
// twilight colour to the night colour, and everything inside 72 degrees
// receives an extra near-opaque core.
func terminatorBands(style Style) []shadeBand {
	type ring struct {
		radius float64
		color  colorful.Color
		alpha  float64
	}
	var rings []ring
	for rad := terminatorOuter; rad >= terminatorCore-1e-9; rad -= terminatorStep {
		t := clamp((terminatorOuter-rad)/(terminatorOuter-twilightInner), 0, 1)
		alpha := 0.07 + 0.02*t
		rings = append(rings, ring{radius: rad, color: style.Twilight.BlendLab(style.Night, t).Clamped(), alpha: alpha})
	}
	rings = append(rings, ring{radius: terminatorCore, color: style.Night, alpha: 0.65})

	bands := make([]shadeBand, 0, len(rings))
	var premult colorful.Color
	acc := 0.0
	for _, rg := range rings {
		premult = colorful.Color{
			R: rg.color.R*rg.alpha + premult.R*(1-rg.alpha),
			G: rg.color.G*rg.alpha + premult.G*(1-rg.alpha),
			B: rg.color.B*rg.alpha + premult.B*(1-rg.alpha),
		}
		acc = rg.alpha + acc*(1-rg.alpha)
		bands = append(bands, shadeBand{
			within: rg.radius,
			color:  colorful.Color{R: premult.R / acc, G: premult.G / acc, B: premult.B / acc},
			alpha:  acc,
		})
	}
	return bands
}

// nightShade returns the terminator composite for a point at distDeg from
// the antisolar point.
func (r *Renderer) nightShade(distDeg float64) (colorful.Color, float64, bool) {
	var band *shadeBand
	for i := range r.bands {
		if distDeg < r.bands[i].within {
			band = &r.bands[i]
			continue
		}
		break
	}
	if band == nil {
		return colorful.Color{}, 0, false
	}
	return band.color, band.alpha, true
}

func (r *Renderer) drawTerminator(s Surface, vp Viewport, sun astro.GeoPoint) {
	anti := sun.Antipode()
	s.Shade(func(x, y float64) (colorful.Color, float64, bool) {
		p, ok := r.cam.Invert(x, y, vp)
		if !ok {
			return colorful.Color{}, 0, false
		}
		return r.nightShade(astro.AngularDistance(anti, p))
	})
	if r.topology != nil && len(r.rings) > 0 {
		r.strokeBorders(s, 0.35)
	}
}

func (r *Renderer) drawSun(s Surface, vp Viewport, sun astro.GeoPoint) {
	x, y, _ := r.cam.Project(sun, vp)
	radius := r.cam.Radius(vp)
	s.FillRadial(x, y, radius*0.22, r.style.SunCorona, 0.45, 0)
	s.FillCircle(x, y, math.Max(1.5, radius*0.035), r.style.SunCore, 0.95)
}

func (r *Renderer) drawCities(s Surface, vp Viewport, sun astro.GeoPoint) int {
	s.SetBlend(BlendLighter)
	frame := newLightFrame(r.cam.ViewCenter(), sun, r.fadeDeg)
	zoom := r.cam.Zoom().Current
	drawn := 0
	for _, l := range r.cities.Lights() {
		opacity, ok := frame.opacity(l)
		if !ok {
			continue
		}
		x, y, _ := r.cam.Project(l.Point(), vp)
		s.FillCircle(x, y, l.Size*math.Sqrt(zoom), r.style.CityLight, opacity)
		drawn++
	}
	return drawn
}

func (r *Renderer) drawArc(s Surface, vp Viewport, rec PlotRecord) {
	ax, ay, aVisible := r.cam.Project(rec.Point(), vp)
	bx, by, bVisible := r.cam.Project(rec.Center.Clamp(), vp)
	if !aVisible || !bVisible {
		return
	}
	s.StrokeDashed(Point{X: ax, Y: ay}, Point{X: bx, Y: by}, 4, 4, r.style.Arc, 0.6)
}
