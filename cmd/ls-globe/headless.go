package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/litescript/ls-globe/internal/astro"
	"github.com/litescript/ls-globe/internal/feed"
	"github.com/litescript/ls-globe/internal/globe"
	"github.com/litescript/ls-globe/internal/logging"
	"github.com/litescript/ls-globe/internal/observability"
	"github.com/litescript/ls-globe/internal/overlay"
	"github.com/litescript/ls-globe/internal/raster"
	"github.com/litescript/ls-globe/internal/state"
)

const (
	defaultSurfaceWidth = 320
	maxSurfaceSize      = 4096
)

var errBinaryToTerminal = errors.New("refusing to write PNG to a terminal")

// headlessOptions controls a simulated render run.
type headlessOptions struct {
	Frames int
	Width  int
	Height int
	FPS    int
	Start  time.Time
}

// markerReport is one record's projection in the JSON dump.
type markerReport struct {
	ID       string       `json:"id"`
	Label    string       `json:"label,omitempty"`
	Status   globe.Status `json:"status"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Visible  bool         `json:"visible"`
	Selected bool         `json:"selected,omitempty"`
}

// frameReport describes the last simulated frame.
type frameReport struct {
	Frame       uint64         `json:"frame"`
	Time        time.Time      `json:"time"`
	Phase       string         `json:"phase"`
	Yaw         float64        `json:"yaw"`
	Pitch       float64        `json:"pitch"`
	Zoom        float64        `json:"zoom"`
	Sun         astro.GeoPoint `json:"sun"`
	ViewCenter  astro.GeoPoint `json:"view_center"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Radius      float64        `json:"radius"`
	LightsDrawn int            `json:"lights_drawn"`
	Layers      []string       `json:"layers"`
	Markers     []markerReport `json:"markers"`
}

// runHeadless loads every data layer synchronously, simulates the frames and
// writes the requested outputs. It returns the process exit code. Missing
// land or city layers only degrade the picture; missing records fail the run.
func runHeadless(ctx context.Context, fetcher *feed.Fetcher, stateMgr *state.Manager, renderer *globe.Renderer,
	collector *observability.GlobeCollector, logger *logging.Logger, fps int) int {
	log := logger.With("headless")
	recordsFailed := false

	if topologySource != "" {
		topo, err := fetcher.FetchTopology(ctx, topologySource)
		if err != nil {
			log.Warn("land layer unavailable: %v", err)
			collector.LoadFailure(observability.LayerTopology)
		} else {
			renderer.SetTopology(topo)
		}
	}
	if placesSource != "" {
		cat, err := fetcher.FetchCities(ctx, placesSource, globe.DefaultCatalogConfig())
		if err != nil {
			log.Warn("city lights unavailable: %v", err)
			collector.LoadFailure(observability.LayerPlaces)
		} else {
			renderer.SetCities(cat)
		}
	}
	if recordsSource != "" {
		result := fetcher.FetchRecords(ctx, recordsSource)
		if result.Error != nil {
			log.Error("records unavailable: %v", result.Error)
			collector.LoadFailure(observability.LayerRecords)
			recordsFailed = true
		}
		stateMgr.Update(result.Records, result.Duration, result.Error)
	}
	if selectID != "" && !stateMgr.Select(selectID) {
		log.Warn("no record with id %q", selectID)
	}

	w, h := surfaceSize(surfaceWidth, surfaceHeight)
	canvas, report := renderHeadless(renderer, stateMgr, headlessOptions{
		Frames: frameCount,
		Width:  w,
		Height: h,
		FPS:    fps,
		Start:  time.Now().UTC(),
	})

	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if pngPath != "" {
		if err := writeOutput(pngPath, stdoutTTY, true, canvas.EncodePNG); err != nil {
			fmt.Fprintf(os.Stderr, "Error: write PNG: %v\n", err)
			return 1
		}
	}
	if jsonPath != "" {
		err := writeOutput(jsonPath, stdoutTTY, false, func(w io.Writer) error {
			return writeReport(w, report)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: write JSON: %v\n", err)
			return 1
		}
	}
	if pngPath == "" && jsonPath == "" {
		writeSummary(os.Stdout, report)
	}

	if recordsFailed {
		return 1
	}
	return 0
}

// surfaceSize resolves the -width/-height flags. A zero width follows the
// terminal when stdout is one.
func surfaceSize(w, h int) (int, int) {
	if w <= 0 {
		w = defaultSurfaceWidth
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 0 {
				w = cols
			}
		}
	}
	if h <= 0 {
		h = w / 2
	}
	return min(w, maxSurfaceSize), min(max(h, 1), maxSurfaceSize)
}

// renderHeadless runs opts.Frames ticks against a simulated clock and
// returns the final canvas and its report.
func renderHeadless(r *globe.Renderer, stateMgr *state.Manager, opts headlessOptions) (*raster.Canvas, frameReport) {
	frames := max(opts.Frames, 1)
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	dt := time.Second / time.Duration(fps)

	canvas := raster.New(opts.Width, opts.Height)
	snap := stateMgr.Snapshot()
	now := opts.Start

	var out globe.FrameOutput
	for i := 0; i < frames; i++ {
		out = r.Tick(globe.FrameInput{
			Now:        now,
			Delta:      dt,
			Records:    snap.Records,
			SelectedID: snap.SelectedID,
		}, canvas)
		if i < frames-1 {
			now = now.Add(dt)
		}
	}

	markers := overlay.New().Sync(snap.Records, out.Markers)
	report := frameReport{
		Frame:       out.Frame,
		Time:        now,
		Phase:       out.Phase.String(),
		Yaw:         out.Rotation.Yaw(),
		Pitch:       out.Rotation.Pitch(),
		Zoom:        out.Zoom.Current,
		Sun:         out.Sun,
		ViewCenter:  out.ViewCenter,
		Width:       opts.Width,
		Height:      opts.Height,
		Radius:      out.Radius,
		LightsDrawn: out.LightsDrawn,
		Layers:      out.Layers,
		Markers:     make([]markerReport, 0, len(markers)),
	}
	for _, m := range markers {
		report.Markers = append(report.Markers, markerReport{
			ID:       m.ID,
			Label:    m.Label,
			Status:   m.Status,
			X:        m.X,
			Y:        m.Y,
			Visible:  m.Visible,
			Selected: m.Selected,
		})
	}
	return canvas, report
}

func writeReport(w io.Writer, report frameReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeOutput writes to path, or stdout for "-".
func writeOutput(path string, stdoutTTY, binary bool, write func(io.Writer) error) error {
	if path == "-" {
		if binary && stdoutTTY {
			return errBinaryToTerminal
		}
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSummary(w io.Writer, report frameReport) {
	visible := 0
	for _, m := range report.Markers {
		if m.Visible {
			visible++
		}
	}
	fmt.Fprintf(w, "frame %d at %s (%s)\n", report.Frame, report.Time.Format(time.RFC3339), report.Phase)
	fmt.Fprintf(w, "  view   %.1f,%.1f  yaw %.1f  pitch %.1f  zoom %.2f\n",
		report.ViewCenter.Lat, report.ViewCenter.Lng, report.Yaw, report.Pitch, report.Zoom)
	fmt.Fprintf(w, "  sun    %.2f,%.2f\n", report.Sun.Lat, report.Sun.Lng)
	fmt.Fprintf(w, "  lights %d  markers %d/%d  layers %v\n", report.LightsDrawn, visible, len(report.Markers), report.Layers)
	for _, m := range report.Markers {
		if !m.Visible {
			continue
		}
		name := m.Label
		if name == "" {
			name = m.ID
		}
		sel := " "
		if m.Selected {
			sel = "*"
		}
		fmt.Fprintf(w, "  %s %-24s %-6s %7.1f %7.1f\n", sel, name, m.Status, m.X, m.Y)
	}
}
