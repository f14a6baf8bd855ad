package globe

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-globe/internal/astro"
)

// visibilityEpsilon keeps points that sit on the limb, up to rounding error,
// on the hidden side.
const visibilityEpsilon = 1e-9

// Rotation is the camera orientation in degrees: [yaw, pitch, roll].
// Roll is carried for completeness and is always 0.
type Rotation [3]float64

// Yaw returns the rotation about the polar axis.
func (r Rotation) Yaw() float64 { return r[0] }

// Pitch returns the tilt toward the poles.
func (r Rotation) Pitch() float64 { return r[1] }

// Zoom is the camera scale. Current eases toward Target.
type Zoom struct {
	Current float64
	Target  float64
}

// Viewport is the drawing surface size in pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Center returns the pixel at the middle of the viewport.
func (v Viewport) Center() (float64, float64) {
	return v.Width / 2, v.Height / 2
}

// Camera holds orthographic rotation and zoom state.
type Camera struct {
	rotation Rotation
	zoom     Zoom
	damping  float64
	fill     float64
}

// NewCamera returns a camera at rotation [0,0,0] and zoom 1.
func NewCamera(cfg Config) *Camera {
	return &Camera{
		zoom:    Zoom{Current: 1, Target: 1},
		damping: cfg.ZoomDamping,
		fill:    cfg.RadiusFill,
	}
}

// Rotation returns the current orientation.
func (c *Camera) Rotation() Rotation { return c.rotation }

// Zoom returns the current zoom state.
func (c *Camera) Zoom() Zoom { return c.zoom }

// SetRotation replaces yaw and pitch, normalizing yaw and clamping pitch.
func (c *Camera) SetRotation(yaw, pitch float64) {
	c.rotation = Rotation{normalizeAngle(yaw), clamp(pitch, MinPitch, MaxPitch), 0}
}

// Rotate adds the given deltas to yaw and pitch.
func (c *Camera) Rotate(dYaw, dPitch float64) {
	c.SetRotation(c.rotation[0]+dYaw, c.rotation[1]+dPitch)
}

// SetZoomTarget sets the zoom the camera eases toward.
func (c *Camera) SetZoomTarget(z float64) {
	c.zoom.Target = clamp(z, MinZoom, MaxZoom)
}

// Step moves the current zoom a fixed fraction of the way to the target.
func (c *Camera) Step() {
	delta := c.zoom.Target - c.zoom.Current
	if math.Abs(delta) < 1e-4 {
		c.zoom.Current = c.zoom.Target
		return
	}
	c.zoom.Current = clamp(c.zoom.Current+delta*c.damping, MinZoom, MaxZoom)
}

// ViewCenter returns the geographic point at the middle of the disc.
func (c *Camera) ViewCenter() astro.GeoPoint {
	return astro.GeoPoint{Lat: -c.rotation[1], Lng: astro.NormalizeLng(-c.rotation[0])}
}

// Radius returns the on-screen globe radius in pixels.
func (c *Camera) Radius(vp Viewport) float64 {
	return math.Min(vp.Width, vp.Height) / 2 * c.fill * c.zoom.Current
}

// Visible reports whether p lies on the front hemisphere. Points exactly on
// the limb are hidden.
func (c *Camera) Visible(p astro.GeoPoint) bool {
	return astro.AngularDistance(c.ViewCenter(), p) < 90-visibilityEpsilon
}

// matrix maps geographic unit vectors into view space where +X points at
// the viewer, +Y right and +Z up.
func (c *Camera) matrix() mgl64.Mat3 {
	yaw := mgl64.DegToRad(c.rotation[0])
	pitch := mgl64.DegToRad(c.rotation[1])
	return mgl64.Rotate3DY(-pitch).Mul3(mgl64.Rotate3DZ(yaw))
}

// Project maps p to screen coordinates. visible is false on the back
// hemisphere; x and y are still returned for the mirrored position.
func (c *Camera) Project(p astro.GeoPoint, vp Viewport) (x, y float64, visible bool) {
	v := c.matrix().Mul3x1(unitVector(p))
	x, y = c.toScreen(v, vp)
	return x, y, c.Visible(p)
}

// clipRing projects a closed ring with the back hemisphere cut away at the
// limb. Each edge leaving the front is cut where its great circle meets the
// silhouette, and the hidden stretch is replaced by the shorter limb arc
// between the exit and entry crossings. It returns nil when no vertex is on
// the front.
func (c *Camera) clipRing(ring []astro.GeoPoint, vp Viewport) []projected {
	m := c.matrix()
	vs := make([]mgl64.Vec3, len(ring))
	start := -1
	for i, p := range ring {
		vs[i] = m.Mul3x1(unitVector(p))
		if start < 0 && vs[i][0] > 0 {
			start = i
		}
	}
	if start < 0 {
		return nil
	}

	out := make([]projected, 0, len(ring)+8)
	var exit mgl64.Vec3
	for k := range vs {
		i := (start + k) % len(vs)
		a, b := vs[i], vs[(i+1)%len(vs)]
		if a[0] > 0 {
			x, y := c.toScreen(a, vp)
			out = append(out, projected{Point: Point{X: x, Y: y}, front: true})
		}
		switch {
		case a[0] > 0 && b[0] <= 0:
			exit = limbCrossing(a, b)
			out = append(out, c.limbPoint(exit, vp, true))
		case a[0] <= 0 && b[0] > 0:
			entry := limbCrossing(a, b)
			out = c.appendLimbArc(out, exit, entry, vp)
			out = append(out, c.limbPoint(entry, vp, true))
		}
	}
	return out
}

// limbArcStep is the angular spacing of vertices inserted along the limb.
const limbArcStep = math.Pi / 36

func (c *Camera) appendLimbArc(out []projected, from, to mgl64.Vec3, vp Viewport) []projected {
	a0 := math.Atan2(from[2], from[1])
	d := math.Atan2(to[2], to[1]) - a0
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	steps := int(math.Ceil(math.Abs(d) / limbArcStep))
	for i := 1; i < steps; i++ {
		a := a0 + d*float64(i)/float64(steps)
		out = append(out, c.limbPoint(mgl64.Vec3{0, math.Cos(a), math.Sin(a)}, vp, false))
	}
	return out
}

func (c *Camera) limbPoint(v mgl64.Vec3, vp Viewport, crossing bool) projected {
	x, y := c.toScreen(v, vp)
	return projected{Point: Point{X: x, Y: y}, front: crossing, limb: true}
}

// limbCrossing returns the view-space point where the great circle from the
// front vertex a to the back vertex b meets the silhouette plane x=0.
func limbCrossing(a, b mgl64.Vec3) mgl64.Vec3 {
	n := a.Cross(b)
	d := mgl64.Vec3{0, -n[2], n[1]}
	if d.Len() < 1e-12 {
		// a and b are parallel; fall back to the chord.
		t := a[0] / (a[0] - b[0])
		d = a.Add(b.Sub(a).Mul(t))
		d[0] = 0
	}
	if d.Dot(a.Add(b)) < 0 {
		d = d.Mul(-1)
	}
	if l := d.Len(); l > 0 {
		return d.Mul(1 / l)
	}
	return mgl64.Vec3{0, 1, 0}
}

// Invert maps a screen position back to the geographic point under it.
// ok is false outside the globe disc.
func (c *Camera) Invert(x, y float64, vp Viewport) (astro.GeoPoint, bool) {
	cx, cy := vp.Center()
	r := c.Radius(vp)
	if r <= 0 {
		return astro.GeoPoint{}, false
	}
	vy := (x - cx) / r
	vz := -(y - cy) / r
	rr := vy*vy + vz*vz
	if rr > 1 {
		return astro.GeoPoint{}, false
	}
	view := mgl64.Vec3{math.Sqrt(1 - rr), vy, vz}
	g := c.matrix().Transpose().Mul3x1(view)

	lat := astro.RadToDeg(math.Asin(clamp(g[2], -1, 1)))
	lng := astro.RadToDeg(math.Atan2(g[1], g[0]))
	return astro.GeoPoint{Lat: lat, Lng: lng}, true
}

func (c *Camera) toScreen(v mgl64.Vec3, vp Viewport) (float64, float64) {
	cx, cy := vp.Center()
	r := c.Radius(vp)
	return cx + v[1]*r, cy - v[2]*r
}

func unitVector(p astro.GeoPoint) mgl64.Vec3 {
	lat := astro.DegToRad(p.Lat)
	lng := astro.DegToRad(p.Lng)
	return mgl64.Vec3{
		math.Cos(lat) * math.Cos(lng),
		math.Cos(lat) * math.Sin(lng),
		math.Sin(lat),
	}
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a >= 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
