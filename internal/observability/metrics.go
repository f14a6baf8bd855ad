// Package observability exposes the globe's per-frame statistics and data
// load failures as Prometheus metrics.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-globe/internal/globe"
)

// Data layers reported in globe_data_load_failures_total.
const (
	LayerTopology = "topology"
	LayerPlaces   = "places"
	LayerRecords  = "records"
)

// GlobeCollector bundles the renderer metrics. It implements
// globe.FrameRecorder.
type GlobeCollector struct {
	gatherer prometheus.Gatherer

	Frames         prometheus.Counter
	FrameDurations prometheus.Histogram
	LightsDrawn    prometheus.Gauge
	MarkersVisible prometheus.Gauge
	LoadFailures   *prometheus.CounterVec
}

var _ globe.FrameRecorder = (*GlobeCollector)(nil)

// NewGlobeCollector registers the globe metrics against reg, defaulting to
// the global Prometheus registry when nil.
func NewGlobeCollector(reg prometheus.Registerer) (*GlobeCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_frames_total",
		Help: "Total number of frames rendered.",
	}), "globe_frames_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "globe_frame_duration_seconds",
		Help:    "Time spent compositing one frame.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05, 0.1, 0.25},
	}), "globe_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	lights, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_city_lights_drawn",
		Help: "City lights drawn on the last frame.",
	}), "globe_city_lights_drawn")
	if err != nil {
		return nil, err
	}

	markers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_markers_visible",
		Help: "Record markers on the front hemisphere on the last frame.",
	}), "globe_markers_visible")
	if err != nil {
		return nil, err
	}

	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_data_load_failures_total",
		Help: "Data documents that failed to load, labeled by layer.",
	}, []string{"layer"}), "globe_data_load_failures_total")
	if err != nil {
		return nil, err
	}

	return &GlobeCollector{
		gatherer:       gatherer,
		Frames:         frames,
		FrameDurations: durations,
		LightsDrawn:    lights,
		MarkersVisible: markers,
		LoadFailures:   failures,
	}, nil
}

// ObserveFrame implements globe.FrameRecorder.
func (c *GlobeCollector) ObserveFrame(out globe.FrameOutput) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.FrameDurations.Observe(out.Duration.Seconds())
	c.LightsDrawn.Set(float64(out.LightsDrawn))
	c.MarkersVisible.Set(float64(out.VisibleMarkers()))
}

// LoadFailure counts a failed load of the named layer.
func (c *GlobeCollector) LoadFailure(layer string) {
	if c == nil {
		return
	}
	c.LoadFailures.WithLabelValues(layer).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GlobeCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
