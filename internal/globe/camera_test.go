package globe

import (
	"math"
	"testing"

	"github.com/litescript/ls-globe/internal/astro"
)

var testViewport = Viewport{Width: 200, Height: 100}

func TestCamera_ProjectInvertRoundTrip(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	for yaw := -180.0; yaw < 180; yaw += 37 {
		for pitch := -90.0; pitch <= 90; pitch += 22.5 {
			cam.SetRotation(yaw, pitch)
			for lat := -90.0; lat <= 90; lat += 7.5 {
				for lng := -180.0; lng <= 180; lng += 11 {
					p := astro.GeoPoint{Lat: lat, Lng: lng}
					x, y, visible := cam.Project(p, testViewport)
					if !visible {
						continue
					}
					back, ok := cam.Invert(x, y, testViewport)
					if !ok {
						t.Fatalf("rot=(%v,%v) p=%+v: Invert(%v,%v) outside disc", yaw, pitch, p, x, y)
					}
					if d := astro.AngularDistance(p, back); d > 1e-6 {
						t.Fatalf("rot=(%v,%v) p=%+v: round trip landed at %+v (%.3g° away)", yaw, pitch, p, back, d)
					}
				}
			}
		}
	}
}

func TestCamera_VisibilityIsStrictHemisphere(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	for yaw := -180.0; yaw < 180; yaw += 45 {
		for pitch := -90.0; pitch <= 90; pitch += 30 {
			cam.SetRotation(yaw, pitch)
			center := cam.ViewCenter()
			for bearing := 0.0; bearing < 360; bearing += 30 {
				tests := []struct {
					dist float64
					want bool
				}{
					{0, true},
					{45, true},
					{89.9, true},
					{90, false},
					{90.1, false},
					{135, false},
				}
				for _, tt := range tests {
					p := astro.Destination(center, bearing, tt.dist)
					if got := cam.Visible(p); got != tt.want {
						t.Errorf("rot=(%v,%v) bearing=%v dist=%v: Visible = %v, want %v",
							yaw, pitch, bearing, tt.dist, got, tt.want)
					}
					if _, _, got := cam.Project(p, testViewport); got != tt.want {
						t.Errorf("rot=(%v,%v) bearing=%v dist=%v: Project visible = %v, want %v",
							yaw, pitch, bearing, tt.dist, got, tt.want)
					}
				}
			}
		}
	}
}

func TestCamera_OriginProjectsToCenter(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	x, y, visible := cam.Project(astro.GeoPoint{Lat: 0, Lng: 0}, testViewport)
	if !visible {
		t.Fatal("origin should be visible at rotation [0,0,0]")
	}
	cx, cy := testViewport.Center()
	if math.Abs(x-cx) > 1e-9 || math.Abs(y-cy) > 1e-9 {
		t.Errorf("origin projects to (%v,%v), want (%v,%v)", x, y, cx, cy)
	}

	// North is up and east is right.
	_, ny, _ := cam.Project(astro.GeoPoint{Lat: 30, Lng: 0}, testViewport)
	ex, _, _ := cam.Project(astro.GeoPoint{Lat: 0, Lng: 30}, testViewport)
	if ny >= cy {
		t.Errorf("30N projects to y=%v, want above centre %v", ny, cy)
	}
	if ex <= cx {
		t.Errorf("30E projects to x=%v, want right of centre %v", ex, cx)
	}
}

func TestCamera_ViewCenterFollowsRotation(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cam.SetRotation(-139.7, -35.7) // centre on Tokyo

	c := cam.ViewCenter()
	if math.Abs(c.Lat-35.7) > 1e-9 || math.Abs(c.Lng-139.7) > 1e-9 {
		t.Errorf("ViewCenter = %+v, want {35.7 139.7}", c)
	}

	x, y, visible := cam.Project(c, testViewport)
	cx, cy := testViewport.Center()
	if !visible || math.Abs(x-cx) > 1e-9 || math.Abs(y-cy) > 1e-9 {
		t.Errorf("view centre projects to (%v,%v,%v), want (%v,%v,true)", x, y, visible, cx, cy)
	}
}

func TestCamera_PitchClamped(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	for i := 0; i < 100; i++ {
		cam.Rotate(3, 17)
		if p := cam.Rotation().Pitch(); p < MinPitch || p > MaxPitch {
			t.Fatalf("pitch %v escaped [-90, 90]", p)
		}
	}
	if p := cam.Rotation().Pitch(); p != MaxPitch {
		t.Errorf("pitch = %v, want pinned at %v", p, MaxPitch)
	}
	for i := 0; i < 100; i++ {
		cam.Rotate(-3, -23)
	}
	if p := cam.Rotation().Pitch(); p != MinPitch {
		t.Errorf("pitch = %v, want pinned at %v", p, MinPitch)
	}
	if y := cam.Rotation().Yaw(); y < -180 || y >= 180 {
		t.Errorf("yaw = %v, want normalized to [-180, 180)", y)
	}
	if r := cam.Rotation()[2]; r != 0 {
		t.Errorf("roll = %v, want 0", r)
	}
}

func TestCamera_StepEasesWithoutOvershoot(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cam.SetZoomTarget(3)

	prev := cam.Zoom().Current
	for i := 0; i < 200; i++ {
		cam.Step()
		cur := cam.Zoom().Current
		if cur < prev || cur > 3 {
			t.Fatalf("frame %d: zoom %v after %v, want monotone approach to 3", i, cur, prev)
		}
		prev = cur
	}
	if cam.Zoom().Current != 3 {
		t.Errorf("zoom = %v after 200 frames, want snapped to 3", cam.Zoom().Current)
	}

	// First step covers 10% of the gap.
	cam.SetZoomTarget(1)
	cam.Step()
	if got := cam.Zoom().Current; math.Abs(got-2.8) > 1e-9 {
		t.Errorf("first step toward 1 from 3 = %v, want 2.8", got)
	}
}

func TestCamera_ZoomTargetClamped(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cam.SetZoomTarget(100)
	if z := cam.Zoom().Target; z != MaxZoom {
		t.Errorf("target = %v, want %v", z, MaxZoom)
	}
	cam.SetZoomTarget(-3)
	if z := cam.Zoom().Target; z != MinZoom {
		t.Errorf("target = %v, want %v", z, MinZoom)
	}
}

func TestCamera_ClipRing(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	cx, cy := testViewport.Center()
	r := cam.Radius(testViewport)

	tests := []struct {
		name     string
		ring     []astro.GeoPoint
		wantNil  bool
		maxSpanY float64 // bound on |y-cy| as a fraction of the radius
	}{
		{
			name: "fully front",
			ring: []astro.GeoPoint{{Lat: -10, Lng: -10}, {Lat: -10, Lng: 10}, {Lat: 10, Lng: 10}, {Lat: 10, Lng: -10}},
			maxSpanY: 0.2,
		},
		{
			name:    "fully back",
			ring:    []astro.GeoPoint{{Lat: -10, Lng: 170}, {Lat: -10, Lng: -170}, {Lat: 10, Lng: -170}, {Lat: 10, Lng: 170}},
			wantNil: true,
		},
		{
			name: "straddles the limb",
			ring: []astro.GeoPoint{{Lat: -10, Lng: 60}, {Lat: -10, Lng: 120}, {Lat: 10, Lng: 120}, {Lat: 10, Lng: 60}},
			maxSpanY: 0.25,
		},
		{
			// The far vertices sit almost opposite the viewer; pushing them
			// radially would drag the fill to the bottom and top of the disc.
			name: "hidden stretch sweeps far behind",
			ring: []astro.GeoPoint{{Lat: -5, Lng: 20}, {Lat: -5, Lng: 179}, {Lat: 5, Lng: 179}, {Lat: 5, Lng: 20}},
			maxSpanY: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cam.clipRing(tt.ring, testViewport)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("clipRing = %d points, want nil", len(got))
				}
				return
			}
			if len(got) < 3 {
				t.Fatalf("clipRing = %d points, want a polygon", len(got))
			}
			crossings := 0
			for i, p := range got {
				d := math.Hypot(p.X-cx, p.Y-cy)
				if d > r+1e-9 {
					t.Errorf("point %d at %.3f from centre, outside radius %.3f", i, d, r)
				}
				if p.limb && math.Abs(d-r) > 1e-9 {
					t.Errorf("limb point %d at %.3f, want on the silhouette %.3f", i, d, r)
				}
				if p.limb && p.front {
					crossings++
				}
				if span := math.Abs(p.Y-cy) / r; span > tt.maxSpanY {
					t.Errorf("point %d reaches %.2f of the radius vertically, want <= %.2f", i, span, tt.maxSpanY)
				}
			}
			if crossings%2 != 0 {
				t.Errorf("crossings = %d, want exit and entry pairs", crossings)
			}
		})
	}
}

func TestLimbCrossing_OnGreatCircle(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	m := cam.matrix()
	a := m.Mul3x1(unitVector(astro.GeoPoint{Lat: 0, Lng: 45}))
	b := m.Mul3x1(unitVector(astro.GeoPoint{Lat: 0, Lng: 135}))
	got := limbCrossing(a, b)
	if math.Abs(got[0]) > 1e-12 || math.Abs(got[1]-1) > 1e-12 || math.Abs(got[2]) > 1e-12 {
		t.Errorf("crossing = %v, want the equator at the right limb", got)
	}
}

func TestCamera_InvertOutsideDisc(t *testing.T) {
	cam := NewCamera(DefaultConfig())
	if _, ok := cam.Invert(0, 0, testViewport); ok {
		t.Error("corner of the viewport should be outside the globe")
	}
}

func TestLerpAngle_ShortestPath(t *testing.T) {
	tests := []struct {
		from, to, t, want float64
	}{
		{0, 90, 0.5, 45},
		{350, 10, 0.5, 360},
		{10, 350, 0.5, 0},
		{-170, 170, 0.5, -180},
	}
	for _, tt := range tests {
		got := normalizeAngle(lerpAngle(tt.from, tt.to, tt.t))
		want := normalizeAngle(tt.want)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("lerpAngle(%v, %v, %v) = %v, want %v", tt.from, tt.to, tt.t, got, want)
		}
	}
}
