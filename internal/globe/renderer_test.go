package globe

import (
	"math"
	"testing"
	"time"

	"github.com/litescript/ls-globe/internal/astro"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func fixedSun(p astro.GeoPoint) RendererOption {
	return WithSunFunc(func(time.Time) astro.GeoPoint { return p })
}

func newTestRenderer(opts ...RendererOption) *Renderer {
	cfg := DefaultConfig()
	cam := NewCamera(cfg)
	return NewRenderer(cam, NewController(cam, cfg), opts...)
}

func singleCity(lat, lng float64) *CityCatalog {
	return NewCityCatalog([]Place{{Lat: lat, Lng: lng, Population: 60_000}}, DefaultCatalogConfig())
}

func hasLayer(out FrameOutput, name string) bool {
	for _, l := range out.Layers {
		if l == name {
			return true
		}
	}
	return false
}

func TestRenderer_CityAtNoonIsNotDrawn(t *testing.T) {
	r := newTestRenderer(fixedSun(astro.GeoPoint{Lat: 0, Lng: 0}))
	r.SetCities(singleCity(0, 0))

	s := newFakeSurface(200, 100)
	out := r.Tick(FrameInput{Now: testNow, Delta: frame}, s)

	if out.LightsDrawn != 0 {
		t.Errorf("LightsDrawn = %d, want 0 at local noon", out.LightsDrawn)
	}
	if n := len(s.additive()); n != 0 {
		t.Errorf("additive draws = %d, want 0", n)
	}
}

func TestRenderer_CityAtMidnightIsDrawnAtFullOpacity(t *testing.T) {
	r := newTestRenderer(fixedSun(astro.GeoPoint{Lat: 0, Lng: 180}))
	cities := singleCity(0, 0)
	r.SetCities(cities)

	s := newFakeSurface(200, 100)
	out := r.Tick(FrameInput{Now: testNow, Delta: frame}, s)

	lights := s.additive()
	if out.LightsDrawn != 1 || len(lights) != 1 {
		t.Fatalf("LightsDrawn = %d (%d additive draws), want 1", out.LightsDrawn, len(lights))
	}
	want := cities.Lights()[0].Opacity
	if math.Abs(lights[0].alpha-want) > 1e-12 {
		t.Errorf("light opacity = %v, want configured %v", lights[0].alpha, want)
	}
	if !hasLayer(out, LayerCities) {
		t.Errorf("layers = %v, want cities", out.Layers)
	}
}

func TestLightOpacity(t *testing.T) {
	light := newCityLight(0, 0, 1, 0.8)
	view := astro.GeoPoint{}

	tests := []struct {
		name     string
		view     astro.GeoPoint
		sun      astro.GeoPoint
		wantOK   bool
		wantFrac float64
	}{
		{"noon", view, astro.GeoPoint{Lng: 0}, false, 0},
		{"afternoon", view, astro.GeoPoint{Lng: -60}, false, 0},
		{"just before the terminator", view, astro.GeoPoint{Lng: -89.5}, false, 0},
		{"early dusk fades in", view, astro.GeoPoint{Lng: -93}, true, 0.5},
		{"past the fade", view, astro.GeoPoint{Lng: -100}, true, 1},
		{"midnight", view, astro.GeoPoint{Lng: 180}, true, 1},
		{"midnight but behind the globe", astro.GeoPoint{Lng: 180}, astro.GeoPoint{Lng: 180}, false, 0},
		{"on the limb", astro.GeoPoint{Lng: 90}, astro.GeoPoint{Lng: 180}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LightOpacity(light, tt.view, tt.sun, 6)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (opacity %v)", ok, tt.wantOK, got)
			}
			if math.Abs(got-0.8*tt.wantFrac) > 1e-6 {
				t.Errorf("opacity = %v, want %v", got, 0.8*tt.wantFrac)
			}
		})
	}
}

func TestRenderer_FadeIsMonotoneAcrossTerminator(t *testing.T) {
	light := newCityLight(0, 0, 1, 1)
	prev := -1.0
	for lng := 0.0; lng <= 180; lng += 0.5 {
		got, _ := LightOpacity(light, astro.GeoPoint{}, astro.GeoPoint{Lng: lng}, 6)
		if got < prev {
			t.Fatalf("sun lng %v: opacity fell from %v to %v", lng, prev, got)
		}
		prev = got
	}
}

func TestRenderer_ThreeRecordScenario(t *testing.T) {
	r := newTestRenderer(fixedSun(astro.GeoPoint{}))
	records := []PlotRecord{
		{ID: "front", Lat: 0, Lng: 0, Status: StatusRed},
		{ID: "back", Lat: 0, Lng: 180, Status: StatusYellow},
		{ID: "side", Lat: 45, Lng: 30, Status: StatusGreen},
	}
	vp := Viewport{Width: 200, Height: 100}
	cx, cy := vp.Center()

	markers := r.ProjectRecords(records, vp)
	if len(markers) != 3 {
		t.Fatalf("got %d markers, want 3", len(markers))
	}
	if m := markers[0]; !m.Visible || math.Abs(m.X-cx) > 1e-9 || math.Abs(m.Y-cy) > 1e-9 {
		t.Errorf("front marker = %+v, want visible at (%v,%v)", m, cx, cy)
	}
	if markers[1].Visible {
		t.Errorf("back marker = %+v, want hidden", markers[1])
	}
	if m := markers[2]; !m.Visible || m.X <= cx || m.Y >= cy {
		t.Errorf("side marker = %+v, want visible up and to the right", m)
	}

	// A ticked frame (which auto-rotates slightly) keeps the same answer.
	out := r.Tick(FrameInput{Now: testNow, Delta: frame, Records: records}, newFakeSurface(200, 100))
	if m := out.Markers[0]; !m.Visible || math.Hypot(m.X-cx, m.Y-cy) > 1 {
		t.Errorf("front marker after tick = %+v, want within 1px of centre", m)
	}
	if out.Markers[1].Visible {
		t.Error("back marker visible after tick")
	}
	if got := out.VisibleMarkers(); got != 2 {
		t.Errorf("VisibleMarkers = %d, want 2", got)
	}
}

func TestRenderer_InvalidRecordGeometryIsClamped(t *testing.T) {
	r := newTestRenderer()
	markers := r.ProjectRecords([]PlotRecord{
		{ID: "north", Lat: 140, Lng: 0},
		{ID: "wrapped", Lat: 0, Lng: 360},
		{ID: "nan", Lat: math.NaN(), Lng: 0},
	}, testViewport)

	for _, m := range markers {
		if math.IsNaN(m.X) || math.IsNaN(m.Y) {
			t.Errorf("%s: projected to NaN", m.ID)
		}
	}
	if markers[0].Visible {
		t.Error("lat 140 clamps to the pole, which sits on the limb and must be hidden")
	}
	if !markers[1].Visible || !markers[2].Visible {
		t.Errorf("wrapped/nan records should clamp onto the front: %+v", markers[1:])
	}
}

func TestRenderer_EmptyDataStillRenders(t *testing.T) {
	r := newTestRenderer(fixedSun(astro.GeoPoint{Lat: 10, Lng: 60}))
	s := newFakeSurface(120, 60)

	out := r.Tick(FrameInput{Now: testNow, Delta: frame}, s)

	for _, want := range []string{LayerOcean, LayerGraticule, LayerTerminator, LayerSun} {
		if !hasLayer(out, want) {
			t.Errorf("layers = %v, missing %s", out.Layers, want)
		}
	}
	for _, absent := range []string{LayerLand, LayerCities, LayerArc} {
		if hasLayer(out, absent) {
			t.Errorf("layers = %v, want no %s without data", out.Layers, absent)
		}
	}
	if s.clears != 1 {
		t.Errorf("clears = %d, want 1", s.clears)
	}
	if s.lines == 0 {
		t.Error("graticule drew no lines")
	}
	if s.shaded == 0 {
		t.Error("terminator shaded no pixels")
	}
}

func TestRenderer_SunBehindGlobeIsNotDrawn(t *testing.T) {
	r := newTestRenderer(fixedSun(astro.GeoPoint{Lat: 0, Lng: 180}))
	s := newFakeSurface(120, 60)
	out := r.Tick(FrameInput{Now: testNow, Delta: frame}, s)
	if hasLayer(out, LayerSun) || s.radials != 0 {
		t.Errorf("sun drawn while on the far side: layers=%v radials=%d", out.Layers, s.radials)
	}
}

func TestRenderer_FailingLayerIsSkipped(t *testing.T) {
	r := newTestRenderer(fixedSun(astro.GeoPoint{Lng: 180}))
	r.SetTopology(&Topology{countries: []Country{{
		Name: "Square",
		Rings: [][]astro.GeoPoint{{
			{Lat: -10, Lng: -10}, {Lat: -10, Lng: 10}, {Lat: 10, Lng: 10}, {Lat: 10, Lng: -10},
		}},
	}}})
	r.SetCities(singleCity(0, 0))

	s := newFakeSurface(120, 60)
	s.panicOnPolygon = true

	var out FrameOutput
	for i := 0; i < 3; i++ {
		out = r.Tick(FrameInput{Now: testNow, Delta: frame}, s)
	}
	if hasLayer(out, LayerLand) {
		t.Errorf("layers = %v, want land skipped", out.Layers)
	}
	if !hasLayer(out, LayerTerminator) || !hasLayer(out, LayerCities) {
		t.Errorf("layers = %v, want later layers still drawn", out.Layers)
	}
	if out.Frame != 3 {
		t.Errorf("Frame = %d, want 3", out.Frame)
	}
}

func TestRenderer_LandIsFilledAndOutlined(t *testing.T) {
	r := newTestRenderer(fixedSun(astro.GeoPoint{}))
	r.SetTopology(&Topology{countries: []Country{
		{Name: "Front", Rings: [][]astro.GeoPoint{{{Lat: -10, Lng: -10}, {Lat: -10, Lng: 10}, {Lat: 10, Lng: 10}, {Lat: 10, Lng: -10}}}},
		{Name: "Back", Rings: [][]astro.GeoPoint{{{Lat: -10, Lng: 170}, {Lat: -10, Lng: -170}, {Lat: 10, Lng: -170}, {Lat: 10, Lng: 170}}}},
	}})

	s := newFakeSurface(200, 100)
	withLand := r.Tick(FrameInput{Now: testNow, Delta: frame}, s)
	if !hasLayer(withLand, LayerLand) {
		t.Fatalf("layers = %v, want land", withLand.Layers)
	}
	if s.polygons != 1 {
		t.Errorf("polygons = %d, want only the front country filled", s.polygons)
	}
}

func TestRenderer_SelectionLocksFocusAndDrawsArc(t *testing.T) {
	rec := &recordingRecorder{}
	r := newTestRenderer(fixedSun(astro.GeoPoint{}), WithRecorder(rec))
	records := []PlotRecord{
		{ID: "a", Lat: 20, Lng: 10, Center: &astro.GeoPoint{Lat: 15, Lng: 5}},
		{ID: "b", Lat: -20, Lng: -40},
	}

	s := newFakeSurface(200, 100)
	var out FrameOutput
	for i := 0; i < 300; i++ {
		s.dashed = 0
		out = r.Tick(FrameInput{Now: testNow, Delta: frame, Records: records, SelectedID: "a"}, s)
	}
	if out.Phase != PhaseFocusLocked {
		t.Errorf("phase = %v, want focus", out.Phase)
	}
	if d := astro.AngularDistance(out.ViewCenter, records[0].Point()); d > 0.01 {
		t.Errorf("view centre %.4f° from selection", d)
	}
	if s.dashed != 1 || !hasLayer(out, LayerArc) {
		t.Errorf("dashed = %d layers = %v, want one arc", s.dashed, out.Layers)
	}
	if rec.frames != 300 {
		t.Errorf("recorder saw %d frames, want 300", rec.frames)
	}

	// Selected flag works when no id is given.
	records[1].Selected = true
	out = r.Tick(FrameInput{Now: testNow, Delta: frame, Records: records}, s)
	if out.Phase != PhaseFocusLocked {
		t.Errorf("phase with Selected flag = %v, want focus", out.Phase)
	}

	// Dropping the selection hands control back.
	records[1].Selected = false
	out = r.Tick(FrameInput{Now: testNow, Delta: frame, Records: records}, s)
	if out.Phase == PhaseFocusLocked {
		t.Error("phase still focus with no selection")
	}
}

func TestTerminatorBands(t *testing.T) {
	r := newTestRenderer()

	if _, _, ok := r.nightShade(90.5); ok {
		t.Error("points beyond 90° from the antisolar point must be unshaded")
	}

	prev := 0.0
	for d := 89.5; d >= 0; d -= 0.5 {
		_, alpha, ok := r.nightShade(d)
		if !ok {
			t.Fatalf("distance %v: not shaded", d)
		}
		if alpha < prev {
			t.Fatalf("distance %v: alpha %v dropped below %v", d, alpha, prev)
		}
		prev = alpha
	}

	_, twilight, _ := r.nightShade(85)
	_, core, _ := r.nightShade(30)
	if twilight > 0.5 {
		t.Errorf("twilight alpha = %v, want a soft band", twilight)
	}
	if core < 0.8 {
		t.Errorf("core alpha = %v, want near-opaque", core)
	}
}

type recordingRecorder struct {
	frames int
}

func (r *recordingRecorder) ObserveFrame(FrameOutput) { r.frames++ }
