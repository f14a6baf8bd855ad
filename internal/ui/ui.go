// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-globe/internal/feed"
	"github.com/litescript/ls-globe/internal/globe"
	"github.com/litescript/ls-globe/internal/logging"
	"github.com/litescript/ls-globe/internal/observability"
	"github.com/litescript/ls-globe/internal/overlay"
	"github.com/litescript/ls-globe/internal/state"
	"github.com/litescript/ls-globe/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewGlobe ViewMode = iota
	ViewRecords
)

const (
	defaultFPS = 30
	minFPS     = 1
	maxFPS     = 60

	// Rows used by the tab bar and footer around the active view.
	frameChromeRows = 2
	// First terminal row of the globe canvas: tab bar, then globe header.
	canvasOriginRow = 2
)

// Msg types for Bubble Tea
type (
	// AnimTickMsg triggers a frame.
	AnimTickMsg time.Time

	// DataUpdateMsg signals a new record snapshot is available.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a fetch error.
	ErrorMsg struct {
		Error error
	}

	topologyLoadedMsg struct {
		topology *globe.Topology
		err      error
	}

	citiesLoadedMsg struct {
		catalog *globe.CityCatalog
		err     error
	}
)

// LoadReporter counts data layers that failed to load.
type LoadReporter interface {
	LoadFailure(layer string)
}

// Config wires the root model to its collaborators.
type Config struct {
	Context        context.Context
	State          *state.Manager
	Renderer       *globe.Renderer
	Fetcher        *feed.Fetcher
	TopologySource string
	PlacesSource   string
	Catalog        globe.CatalogConfig
	FPS            int
	Logger         *logging.Logger
	Failures       LoadReporter
	Now            func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	ctx      context.Context
	state    *state.Manager
	renderer *globe.Renderer
	fetcher  *feed.Fetcher
	overlay  *overlay.Synchronizer
	log      *logging.Logger
	failures LoadReporter
	now      func() time.Time

	topologySource string
	placesSource   string
	catalogCfg     globe.CatalogConfig
	frameInterval  time.Duration

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	// Sub-models
	globe   GlobeViewModel
	records RecordsModel

	snapshot state.Snapshot
	lastErr  error
}

// New creates a new root UI model. The overlay and the controller's
// double-click reset report selection changes to cfg.State.
func New(cfg Config) Model {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = feed.NewFetcher(feed.WithLogger(cfg.Logger))
	}
	if cfg.Catalog == (globe.CatalogConfig{}) {
		cfg.Catalog = globe.DefaultCatalogConfig()
	}
	fps := cfg.FPS
	if fps == 0 {
		fps = defaultFPS
	}
	fps = min(max(fps, minFPS), maxFPS)

	ov := overlay.New()
	stateMgr := cfg.State
	ov.OnHover = func(id string) { stateMgr.Hover(id) }
	ov.OnSelect = func(id string) { stateMgr.Select(id) }
	cfg.Renderer.Controller().OnClearSelection = func() { stateMgr.Select("") }

	snap := stateMgr.Snapshot()
	return Model{
		ctx:            cfg.Context,
		state:          stateMgr,
		renderer:       cfg.Renderer,
		fetcher:        cfg.Fetcher,
		overlay:        ov,
		log:            cfg.Logger.With("ui"),
		failures:       cfg.Failures,
		now:            cfg.Now,
		topologySource: cfg.TopologySource,
		placesSource:   cfg.PlacesSource,
		catalogCfg:     cfg.Catalog,
		frameInterval:  time.Second / time.Duration(fps),
		viewMode:       ViewGlobe,
		globe:          NewGlobeViewModel(cfg.Renderer, ov),
		records:        NewRecordsModel().UpdateData(snap),
		snapshot:       snap,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.animTickCmd(),
		m.loadTopologyCmd(),
		m.loadCitiesCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1", "g":
			m.viewMode = ViewGlobe
		case "2", "r":
			m.viewMode = ViewRecords
		case "tab":
			m.viewMode = (m.viewMode + 1) % 2

		case "esc":
			m.state.Select("")
			m.refreshSnapshot()
		case "n":
			m.cycleSelection(1)
		case "p":
			m.cycleSelection(-1)

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.MouseMsg:
		if m.viewMode == ViewGlobe {
			ev := tea.MouseEvent(msg)
			ev.Y -= canvasOriginRow
			m.globe = m.globe.HandleMouse(ev, m.now())
			m.refreshSnapshot()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := msg.Height - frameChromeRows
		m.globe = m.globe.SetSize(msg.Width, contentHeight)
		m.records = m.records.SetSize(msg.Width, contentHeight)

	case AnimTickMsg:
		m.animTick++
		m.refreshSnapshot()
		m.records = m.records.SetClock(time.Time(msg))
		m.globe = m.globe.Tick(time.Time(msg), m.snapshot)
		cmds = append(cmds, m.animTickCmd())

	case DataUpdateMsg:
		m.snapshot = msg.Snapshot
		m.lastErr = nil
		m.records = m.records.SetError(nil).UpdateData(m.snapshot)

	case ErrorMsg:
		m.lastErr = msg.Error
		m.records = m.records.SetError(msg.Error)

	case SelectRecordMsg:
		if m.state.Select(msg.ID) {
			m.viewMode = ViewGlobe
		}
		m.refreshSnapshot()

	case topologyLoadedMsg:
		if msg.err != nil {
			m.loadFailed(observability.LayerTopology, msg.err)
			break
		}
		m.renderer.SetTopology(msg.topology)
		m.log.Info("land layer ready: %d countries", len(msg.topology.Countries()))

	case citiesLoadedMsg:
		if msg.err != nil {
			m.loadFailed(observability.LayerPlaces, msg.err)
			break
		}
		m.renderer.SetCities(msg.catalog)
		m.log.Info("city lights ready: %d lights", msg.catalog.Len())

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewGlobe:
		m.globe, cmd = m.globe.Update(msg)
	case ViewRecords:
		m.records, cmd = m.records.Update(msg)
	}
	return cmd
}

func (m *Model) refreshSnapshot() {
	m.snapshot = m.state.Snapshot()
	m.records = m.records.UpdateData(m.snapshot)
}

// cycleSelection selects the record step places after the current one, in
// snapshot order.
func (m *Model) cycleSelection(step int) {
	recs := m.snapshot.Records
	if len(recs) == 0 {
		return
	}
	idx := -1
	for i, r := range recs {
		if r.ID == m.snapshot.SelectedID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && step < 0:
		idx = len(recs) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + step + len(recs)) % len(recs)
	}
	m.state.Select(recs[idx].ID)
	m.refreshSnapshot()
}

func (m *Model) loadFailed(layer string, err error) {
	m.log.Warn("%s layer unavailable: %v", layer, err)
	m.statusMsg = fmt.Sprintf("%s unavailable", layer)
	if m.failures != nil {
		m.failures.LoadFailure(layer)
	}
}

// ViewMode returns the active view.
func (m Model) ViewMode() ViewMode { return m.viewMode }

// Globe returns the globe sub-model.
func (m Model) Globe() GlobeViewModel { return m.globe }

// Snapshot returns the snapshot the model last rendered.
func (m Model) Snapshot() state.Snapshot { return m.snapshot }

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewGlobe:
		content = m.globe.View()
	case ViewRecords:
		content = m.records.View()
	}

	return m.renderTabs() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Globe", "[2] Records"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	parts := []string{dimStyle.Render("ls-globe v" + version.Version)}
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[(m.animTick/3)%len(spinnerFrames)]

	var status string
	switch {
	case m.lastErr != nil:
		status = errorStyle.Render("ERROR: " + m.lastErr.Error())
	case !m.snapshot.LastFetch.IsZero():
		next := m.snapshot.LastFetch.Add(m.state.RefreshInterval())
		countdown := max(next.Sub(m.now()).Round(time.Second), 0)
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" %d records, refresh in %ds",
			len(m.snapshot.Records), int(countdown.Seconds())))
		if m.snapshot.FetchDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.FetchDuration.Round(time.Millisecond).String() + ")")
		}
	default:
		status = accentStyle.Render(spinner) + dimStyle.Render(" waiting for records...")
	}

	var help string
	switch m.viewMode {
	case ViewRecords:
		help = dimStyle.Render("j/k: navigate | enter: show on globe | tab: switch view | q: quit")
	default:
		help = dimStyle.Render("arrows: rotate | n/p: next/prev | esc: release | tab: switch view | q: quit")
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help
	if m.statusMsg != "" {
		footer += "  " + dimStyle.Render("["+m.statusMsg+"]")
	}
	return footer
}

func (m Model) animTickCmd() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

func (m Model) loadTopologyCmd() tea.Cmd {
	if m.topologySource == "" {
		return nil
	}
	ctx, f, src := m.ctx, m.fetcher, m.topologySource
	return func() tea.Msg {
		topo, err := f.FetchTopology(ctx, src)
		return topologyLoadedMsg{topology: topo, err: err}
	}
}

func (m Model) loadCitiesCmd() tea.Cmd {
	if m.placesSource == "" {
		return nil
	}
	ctx, f, src, cfg := m.ctx, m.fetcher, m.placesSource, m.catalogCfg
	return func() tea.Msg {
		cat, err := f.FetchCities(ctx, src, cfg)
		return citiesLoadedMsg{catalog: cat, err: err}
	}
}
