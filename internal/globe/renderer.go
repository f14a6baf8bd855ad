package globe

import (
	"math"
	"time"

	"github.com/litescript/ls-globe/internal/astro"
	"github.com/litescript/ls-globe/internal/logging"
)

// Layer names as reported in FrameOutput.Layers.
const (
	LayerOcean      = "ocean"
	LayerGraticule  = "graticule"
	LayerLand       = "land"
	LayerTerminator = "terminator"
	LayerSun        = "sun"
	LayerCities     = "cities"
	LayerArc        = "arc"
)

// Terminator geometry in degrees from the antisolar point.
const (
	terminatorOuter = 90.0
	terminatorCore  = 72.0
	twilightInner   = 80.0
	terminatorStep  = 2.0
	graticuleStep   = 15.0
	graticuleSample = 3.0
	defaultFadeDeg  = 6.0
)

// FrameInput is what the scheduler hands the renderer each tick.
type FrameInput struct {
	Now        time.Time
	Delta      time.Duration
	Records    []PlotRecord
	SelectedID string // overrides PlotRecord.Selected when non-empty
}

// FrameOutput describes the frame just drawn.
type FrameOutput struct {
	Frame       uint64
	Phase       Phase
	Rotation    Rotation
	Zoom        Zoom
	Sun         astro.GeoPoint
	ViewCenter  astro.GeoPoint
	Viewport    Viewport
	Radius      float64
	Markers     []MarkerPosition
	LightsDrawn int
	Layers      []string
	Duration    time.Duration
}

// VisibleMarkers counts markers on the front hemisphere.
func (f FrameOutput) VisibleMarkers() int {
	n := 0
	for _, m := range f.Markers {
		if m.Visible {
			n++
		}
	}
	return n
}

// FrameRecorder receives per-frame statistics.
type FrameRecorder interface {
	ObserveFrame(out FrameOutput)
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the logger used for layer failures.
func WithLogger(l *logging.Logger) RendererOption {
	return func(r *Renderer) {
		r.log = l
	}
}

// WithRecorder sets the frame statistics sink.
func WithRecorder(rec FrameRecorder) RendererOption {
	return func(r *Renderer) {
		r.recorder = rec
	}
}

// WithSunFunc replaces the solar position source, e.g. to pin the sun in
// tests.
func WithSunFunc(fn func(time.Time) astro.GeoPoint) RendererOption {
	return func(r *Renderer) {
		r.sunFunc = fn
	}
}

// WithStyle sets the palette.
func WithStyle(s Style) RendererOption {
	return func(r *Renderer) {
		r.style = s
	}
}

// WithTerminatorFade sets how many degrees past the terminator city lights
// take to reach full opacity.
func WithTerminatorFade(deg float64) RendererOption {
	return func(r *Renderer) {
		if deg > 0 {
			r.fadeDeg = deg
		}
	}
}

// Renderer is the per-frame compositor. It is not safe for concurrent use;
// Tick and the controller's input methods must run on one goroutine.
type Renderer struct {
	cam *Camera
	ctl *Controller

	style    Style
	log      *logging.Logger
	recorder FrameRecorder
	sunFunc  func(time.Time) astro.GeoPoint
	fadeDeg  float64

	topology *Topology
	cities   *CityCatalog

	frame  uint64
	failed map[string]bool
	bands  []shadeBand
	rings  [][]projected
}

// NewRenderer creates a renderer reading cam and driving ctl.
func NewRenderer(cam *Camera, ctl *Controller, opts ...RendererOption) *Renderer {
	r := &Renderer{
		cam:     cam,
		ctl:     ctl,
		style:   DefaultStyle(),
		log:     logging.Discard(),
		sunFunc: astro.SubSolarPoint,
		fadeDeg: defaultFadeDeg,
		failed:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.bands = terminatorBands(r.style)
	return r
}

// Camera returns the camera the renderer reads.
func (r *Renderer) Camera() *Camera { return r.cam }

// Controller returns the interaction controller.
func (r *Renderer) Controller() *Controller { return r.ctl }

// SetTopology installs landmass geometry. nil removes the layer.
func (r *Renderer) SetTopology(t *Topology) { r.topology = t }

// SetCities installs the city light catalog. nil removes the layer.
func (r *Renderer) SetCities(c *CityCatalog) { r.cities = c }

// HasTopology reports whether landmass geometry is loaded.
func (r *Renderer) HasTopology() bool { return r.topology != nil }

// HasCities reports whether city lights are loaded.
func (r *Renderer) HasCities() bool { return r.cities != nil }

// Tick advances the camera one frame and draws it onto s.
func (r *Renderer) Tick(in FrameInput, s Surface) FrameOutput {
	start := time.Now()
	r.frame++

	r.cam.Step()

	selected := findSelected(in.Records, in.SelectedID)
	if selected != nil {
		p := selected.Point()
		r.ctl.SetFocus(&p)
	} else {
		r.ctl.SetFocus(nil)
	}
	phase := r.ctl.Advance(in.Delta)

	sun := r.sunFunc(in.Now).Clamp()

	w, h := s.Size()
	vp := Viewport{Width: float64(w), Height: float64(h)}
	out := FrameOutput{
		Frame:      r.frame,
		Phase:      phase,
		Rotation:   r.cam.Rotation(),
		Zoom:       r.cam.Zoom(),
		Sun:        sun,
		ViewCenter: r.cam.ViewCenter(),
		Viewport:   vp,
		Radius:     r.cam.Radius(vp),
	}

	s.SetBlend(BlendNormal)
	s.Clear(r.style.Space)

	r.layer(&out, LayerOcean, func() { r.drawOcean(s, vp) })
	r.layer(&out, LayerGraticule, func() { r.drawGraticule(s, vp) })
	if r.topology != nil {
		r.layer(&out, LayerLand, func() { r.drawLand(s, vp) })
	}
	r.layer(&out, LayerTerminator, func() { r.drawTerminator(s, vp, sun) })
	if r.cam.Visible(sun) {
		r.layer(&out, LayerSun, func() { r.drawSun(s, vp, sun) })
	}
	if r.cities != nil {
		r.layer(&out, LayerCities, func() { out.LightsDrawn = r.drawCities(s, vp, sun) })
		s.SetBlend(BlendNormal)
	}
	if selected != nil && selected.Center != nil {
		r.layer(&out, LayerArc, func() { r.drawArc(s, vp, *selected) })
	}

	out.Markers = r.projectRecords(in.Records, vp)
	out.Duration = time.Since(start)

	if r.recorder != nil {
		r.recorder.ObserveFrame(out)
	}
	return out
}

// ProjectRecords projects records with the current camera without drawing.
func (r *Renderer) ProjectRecords(records []PlotRecord, vp Viewport) []MarkerPosition {
	return r.projectRecords(records, vp)
}

func (r *Renderer) projectRecords(records []PlotRecord, vp Viewport) []MarkerPosition {
	if len(records) == 0 {
		return nil
	}
	center := r.cam.ViewCenter()
	out := make([]MarkerPosition, 0, len(records))
	for _, rec := range records {
		p := rec.Point()
		x, y, visible := r.cam.Project(p, vp)
		out = append(out, MarkerPosition{
			ID:       rec.ID,
			X:        x,
			Y:        y,
			Visible:  visible,
			Distance: astro.AngularDistance(center, p),
		})
	}
	return out
}

// layer runs one drawing step, isolating the frame from any failure in it.
// A failing layer is logged once and skipped.
func (r *Renderer) layer(out *FrameOutput, name string, draw func()) {
	defer func() {
		if rec := recover(); rec != nil {
			if !r.failed[name] {
				r.failed[name] = true
				r.log.Error("layer %s failed, skipping: %v", name, rec)
			}
		}
	}()
	draw()
	out.Layers = append(out.Layers, name)
}

func findSelected(records []PlotRecord, id string) *PlotRecord {
	for i := range records {
		if id != "" {
			if records[i].ID == id {
				return &records[i]
			}
			continue
		}
		if records[i].Selected {
			return &records[i]
		}
	}
	return nil
}

// LightOpacity returns the opacity a city light is drawn with for the given
// view centre and sub-solar point. ok is false when the light is on the back
// hemisphere or in daylight.
func LightOpacity(l CityLight, view, sun astro.GeoPoint, fadeDeg float64) (opacity float64, ok bool) {
	return newLightFrame(view, sun, fadeDeg).opacity(l)
}

// lightFrame caches the per-frame trig the light test needs.
type lightFrame struct {
	viewSin, viewCos, viewLng float64
	sunSin, sunCos, sunLng    float64
	fade                      float64
}

func newLightFrame(view, sun astro.GeoPoint, fadeDeg float64) lightFrame {
	vs, vc := math.Sincos(astro.DegToRad(view.Lat))
	ss, sc := math.Sincos(astro.DegToRad(sun.Lat))
	if fadeDeg <= 0 {
		fadeDeg = defaultFadeDeg
	}
	return lightFrame{
		viewSin: vs, viewCos: vc, viewLng: astro.DegToRad(view.Lng),
		sunSin: ss, sunCos: sc, sunLng: astro.DegToRad(sun.Lng),
		fade: fadeDeg,
	}
}

func (f lightFrame) opacity(l CityLight) (float64, bool) {
	dView := cosToDeg(l.cosDistance(f.viewSin, f.viewCos, f.viewLng))
	if dView >= 90-visibilityEpsilon {
		return 0, false
	}
	dSun := cosToDeg(l.cosDistance(f.sunSin, f.sunCos, f.sunLng))
	if dSun <= 90 {
		return 0, false
	}
	fade := clamp((dSun-90)/f.fade, 0, 1)
	if fade <= 0 {
		return 0, false
	}
	return l.Opacity * fade, true
}

func cosToDeg(c float64) float64 {
	return astro.RadToDeg(math.Acos(clamp(c, -1, 1)))
}
