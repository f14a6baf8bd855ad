// Command ls-globe is a terminal UI for an interactive day/night globe with
// live plot records.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-globe/internal/feed"
	"github.com/litescript/ls-globe/internal/globe"
	"github.com/litescript/ls-globe/internal/logging"
	"github.com/litescript/ls-globe/internal/observability"
	"github.com/litescript/ls-globe/internal/state"
	"github.com/litescript/ls-globe/internal/ui"
)

// CLI flags
var (
	topologySource string
	placesSource   string
	recordsSource  string
	metricsAddr    string
	headlessMode   bool
	frameCount     int
	surfaceWidth   int
	surfaceHeight  int
	pngPath        string
	jsonPath       string
	selectID       string
)

const (
	defaultRefresh = 10 * time.Second
	minRefresh     = 1 * time.Second
	maxRefresh     = 5 * time.Minute

	// Drag degrees per pixel. Terminal pixels are coarse, so a cell of
	// travel turns the globe further than a mouse pixel would.
	terminalDragSensitivity = 1.5
)

func main() {
	refresh := flag.Duration("refresh", defaultRefresh, "Records refresh interval (e.g., 10s, 1m)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Append logs to file (TUI logs are discarded otherwise)")
	fps := flag.Int("fps", 30, "Animation frames per second")
	flag.StringVar(&topologySource, "topology", "", "Country polygons GeoJSON (path or URL)")
	flag.StringVar(&placesSource, "places", "", "Populated places GeoJSON or JSON array (path or URL)")
	flag.StringVar(&recordsSource, "records", "", "Plot records JSON (path or URL), polled every -refresh")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	flag.BoolVar(&headlessMode, "headless", false, "Render without the TUI and write snapshots")
	flag.IntVar(&frameCount, "frames", 1, "Headless: frames to simulate before the snapshot")
	flag.IntVar(&surfaceWidth, "width", 0, "Headless: surface width in pixels (default: terminal width or 320)")
	flag.IntVar(&surfaceHeight, "height", 0, "Headless: surface height in pixels (default: width/2)")
	flag.StringVar(&pngPath, "png", "", "Headless: write PNG snapshot to file (use - for stdout)")
	flag.StringVar(&jsonPath, "json", "", "Headless: write JSON marker projection to file (use - for stdout)")
	flag.StringVar(&selectID, "select", "", "Select the record with this id at startup")
	flag.Parse()

	if *refresh < minRefresh {
		*refresh = minRefresh
	} else if *refresh > maxRefresh {
		*refresh = maxRefresh
	}

	logger, err := newLogger(*logLevel, *logFile, headlessMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector, err := observability.NewGlobeCollector(nil)
	if err != nil {
		logger.Warn("metrics disabled: %v", err)
	}
	metricsSrv := serveMetrics(metricsAddr, collector, logger)

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = *refresh
	stateMgr := state.NewManager(stateCfg)

	fetcher := feed.NewFetcher(feed.WithLogger(logger.With("feed")))
	renderer := newRenderer(logger, collector)

	if headlessMode {
		code := runHeadless(ctx, fetcher, stateMgr, renderer, collector, logger, *fps)
		shutdownMetrics(metricsSrv)
		logger.Close()
		os.Exit(code)
	}

	model := ui.New(ui.Config{
		Context:        ctx,
		State:          stateMgr,
		Renderer:       renderer,
		Fetcher:        fetcher,
		TopologySource: topologySource,
		PlacesSource:   placesSource,
		Catalog:        globe.DefaultCatalogConfig(),
		FPS:            *fps,
		Logger:         logger,
		Failures:       collector,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	if recordsSource != "" {
		go runFetchLoop(ctx, fetcher, stateMgr, p, collector, logger)
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		shutdownMetrics(metricsSrv)
		os.Exit(1)
	}
	cancel()
	shutdownMetrics(metricsSrv)
}

func newLogger(level, path string, headless bool) (*logging.Logger, error) {
	lvl := logging.ParseLevel(level)
	if path != "" {
		return logging.NewFile(lvl, path)
	}
	logger := logging.New(lvl)
	if !headless {
		logger.SetOutput(io.Discard)
	}
	return logger, nil
}

func newRenderer(logger *logging.Logger, collector *observability.GlobeCollector) *globe.Renderer {
	cfg := globe.DefaultConfig()
	if !headlessMode {
		cfg.DragSensitivity = terminalDragSensitivity
	}
	cam := globe.NewCamera(cfg)
	ctl := globe.NewController(cam, cfg)

	opts := []globe.RendererOption{globe.WithLogger(logger.With("renderer"))}
	if collector != nil {
		opts = append(opts, globe.WithRecorder(collector))
	}
	return globe.NewRenderer(cam, ctl, opts...)
}

func serveMetrics(addr string, collector *observability.GlobeCollector, logger *logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server exited: %v", err)
		}
	}()

	logger.Info("serving Prometheus metrics on %s", addr)
	return srv
}

func shutdownMetrics(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func runFetchLoop(ctx context.Context, fetcher *feed.Fetcher, stateMgr *state.Manager, p *tea.Program, collector *observability.GlobeCollector, logger *logging.Logger) {
	log := logger.With("poll")

	// Do initial fetch immediately
	doFetch(ctx, fetcher, stateMgr, p, collector, log)

	ticker := time.NewTicker(stateMgr.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Fetch loop shutting down")
			return
		case <-ticker.C:
			doFetch(ctx, fetcher, stateMgr, p, collector, log)
		}
	}
}

func doFetch(ctx context.Context, fetcher *feed.Fetcher, stateMgr *state.Manager, p *tea.Program, collector *observability.GlobeCollector, logger *logging.Logger) {
	logger.Debug("Fetching records from %s", recordsSource)

	result := fetcher.FetchRecords(ctx, recordsSource)
	if result.Error != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("Fetch failed: %v", result.Error)
		collector.LoadFailure(observability.LayerRecords)
		stateMgr.Update(nil, result.Duration, result.Error)
		p.Send(ui.ErrorMsg{Error: result.Error})
		return
	}

	logger.Debug("Fetch complete: %d records in %v", len(result.Records), result.Duration)

	stateMgr.Update(result.Records, result.Duration, nil)
	if selectID != "" {
		if stateMgr.Select(selectID) {
			selectID = ""
		}
	}
	p.Send(ui.DataUpdateMsg{Snapshot: stateMgr.Snapshot()})
}
