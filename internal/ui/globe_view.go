package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-globe/internal/astro"
	"github.com/litescript/ls-globe/internal/globe"
	"github.com/litescript/ls-globe/internal/overlay"
	"github.com/litescript/ls-globe/internal/raster"
	"github.com/litescript/ls-globe/internal/state"
)

const (
	// Marker glyphs
	glyphMarker         = '●'
	glyphMarkerHovered  = '◉'
	glyphMarkerSelected = '◆'

	// Keyboard steps
	nudgeDegrees = 5.0
	wheelNotch   = 100.0

	// Largest frame delta fed to the idle timer, so a stalled terminal does
	// not skip the inertia phase.
	maxFrameDelta = 250 * time.Millisecond

	// Rows used by the header and status line.
	globeChromeRows = 2
)

// Status colours
var statusColors = map[globe.Status]string{
	globe.StatusWhite:  "#e6e6e6",
	globe.StatusGreen:  "#3ad07a",
	globe.StatusYellow: "#f2c94c",
	globe.StatusRed:    "#e84a27",
}

func statusColor(s globe.Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return statusColors[globe.StatusWhite]
}

// LabelMode controls how record labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Selected and hovered records
	LabelAll                      // All visible records
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelAll:
		return "all"
	default:
		return "focus"
	}
}

// GlobeViewModel renders the globe into terminal cells and maps mouse input
// onto the interaction controller and the marker overlay.
type GlobeViewModel struct {
	width  int
	height int

	renderer *globe.Renderer
	canvas   *raster.Canvas
	overlay  *overlay.Synchronizer

	frame     globe.FrameOutput
	records   []globe.PlotRecord
	markers   []overlay.Marker
	rendered  string
	labelMode LabelMode

	lastTick time.Time
	clicks   *clickTracker
	press    struct {
		col, row int
		moved    bool
		active   bool
	}
}

// NewGlobeViewModel creates a globe view drawing with r and reporting
// marker interaction through ov.
func NewGlobeViewModel(r *globe.Renderer, ov *overlay.Synchronizer) GlobeViewModel {
	return GlobeViewModel{
		renderer:  r,
		canvas:    raster.New(0, 0),
		overlay:   ov,
		labelMode: LabelFocused,
		clicks:    &clickTracker{},
	}
}

// SetSize updates the viewport size.
func (m GlobeViewModel) SetSize(width, height int) GlobeViewModel {
	m.width = width
	m.height = height
	cols, rows := m.canvasSize()
	m.canvas.Resize(cols, rows*2)
	return m
}

// canvasSize returns the canvas area in cells.
func (m GlobeViewModel) canvasSize() (int, int) {
	return max(m.width, 0), max(m.height-globeChromeRows, 0)
}

// Frame returns the output of the last rendered frame.
func (m GlobeViewModel) Frame() globe.FrameOutput { return m.frame }

// Markers returns the overlay markers of the last rendered frame.
func (m GlobeViewModel) Markers() []overlay.Marker { return m.markers }

// Tick renders one frame at now using the records in snap.
func (m GlobeViewModel) Tick(now time.Time, snap state.Snapshot) GlobeViewModel {
	cols, rows := m.canvasSize()
	if cols == 0 || rows == 0 {
		return m
	}

	dt := maxFrameDelta
	if !m.lastTick.IsZero() {
		dt = min(max(now.Sub(m.lastTick), 0), maxFrameDelta)
	}
	m.lastTick = now

	m.frame = m.renderer.Tick(globe.FrameInput{
		Now:        now,
		Delta:      dt,
		Records:    snap.Records,
		SelectedID: snap.SelectedID,
	}, m.canvas)
	m.records = snap.Records
	m.markers = m.overlay.Sync(snap.Records, m.frame.Markers)

	grid := canvasCells(m.canvas, cols, rows)
	m.drawMarkers(grid)
	m.rendered = renderCells(grid)
	return m
}

func (m GlobeViewModel) drawMarkers(grid [][]cell) {
	var labels []overlay.Marker
	for _, mk := range m.markers {
		if !mk.Visible {
			continue
		}
		col, row := pixelToCell(mk.X, mk.Y)
		if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
			continue
		}
		glyph := glyphMarker
		switch {
		case mk.Selected:
			glyph = glyphMarkerSelected
		case mk.Hovered:
			glyph = glyphMarkerHovered
		}
		grid[row][col] = cell{r: glyph, fg: statusColor(mk.Status), bg: grid[row][col].bg, bold: mk.Selected}

		if m.showLabel(mk) {
			labels = append(labels, mk)
		}
	}
	for _, mk := range labels {
		name := mk.Label
		if name == "" {
			name = mk.ID
		}
		col, row := pixelToCell(mk.X, mk.Y)
		writeText(grid, col+2, row, truncate(name, 24), statusColor(mk.Status))
	}
}

func (m GlobeViewModel) showLabel(mk overlay.Marker) bool {
	switch m.labelMode {
	case LabelAll:
		return true
	case LabelFocused:
		return mk.Selected || mk.Hovered
	}
	return false
}

// Update handles keyboard input.
func (m GlobeViewModel) Update(msg tea.Msg) (GlobeViewModel, tea.Cmd) {
	ctl := m.renderer.Controller()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			ctl.Nudge(-nudgeDegrees, 0)
		case "right", "l":
			ctl.Nudge(nudgeDegrees, 0)
		case "up", "k":
			ctl.Nudge(0, nudgeDegrees)
		case "down", "j":
			ctl.Nudge(0, -nudgeDegrees)
		case "+", "=":
			ctl.Wheel(-wheelNotch)
		case "-", "_":
			ctl.Wheel(wheelNotch)
		case "0":
			ctl.DoubleClick()
		case "L":
			m.labelMode = (m.labelMode + 1) % 3
		}
	}
	return m, nil
}

// HandleMouse maps a mouse event in canvas cell coordinates onto the
// controller and the overlay. now stamps presses for double-click detection.
func (m GlobeViewModel) HandleMouse(ev tea.MouseEvent, now time.Time) GlobeViewModel {
	cols, rows := m.canvasSize()
	ctl := m.renderer.Controller()
	x, y := cellToPixel(ev.X, ev.Y)
	inside := ev.X >= 0 && ev.Y >= 0 && ev.X < cols && ev.Y < rows

	switch {
	case ev.Button == tea.MouseButtonWheelUp:
		ctl.Wheel(-wheelNotch)
	case ev.Button == tea.MouseButtonWheelDown:
		ctl.Wheel(wheelNotch)

	case ev.Action == tea.MouseActionPress && ev.Button == tea.MouseButtonLeft:
		if !inside {
			return m
		}
		if m.clicks.press(ev.X, ev.Y, now) {
			ctl.DoubleClick()
			m.press.active = false
			return m
		}
		ctl.PointerDown(x, y)
		m.press.col, m.press.row = ev.X, ev.Y
		m.press.moved, m.press.active = false, true

	case ev.Action == tea.MouseActionMotion:
		if ctl.Dragging() {
			ctl.PointerMove(x, y)
			if ev.X != m.press.col || ev.Y != m.press.row {
				m.press.moved = true
			}
			return m
		}
		if inside {
			m.overlay.Hover(x, y)
		} else {
			m.overlay.Leave()
		}

	case ev.Action == tea.MouseActionRelease:
		ctl.PointerUp(x, y)
		if m.press.active && !m.press.moved && ev.X == m.press.col && ev.Y == m.press.row {
			m.overlay.Click(x, y)
		}
		m.press.active = false
	}
	return m
}

// View renders the globe view.
func (m GlobeViewModel) View() string {
	cols, rows := m.canvasSize()
	if cols < 20 || rows < 8 {
		return "Globe view requires larger terminal"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.rendered == "" {
		b.WriteString(strings.Repeat("\n", rows-1))
	} else {
		b.WriteString(m.rendered)
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m GlobeViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c3d333"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffc878"))

	f := m.frame
	parts := []string{
		titleStyle.Render("Globe"),
		accentStyle.Render(phaseLabel(f.Phase)),
		dimStyle.Render(fmt.Sprintf("Yaw:%.0f° Pitch:%.0f° Zoom:×%.2f", f.Rotation.Yaw(), f.Rotation.Pitch(), f.Zoom.Current)),
		dimStyle.Render("Sun " + formatGeo(f.Sun)),
		dimStyle.Render(fmt.Sprintf("Markers %d/%d", f.VisibleMarkers(), len(f.Markers))),
		dimStyle.Render(fmt.Sprintf("Lights %d", f.LightsDrawn)),
		dimStyle.Render("Labels: " + m.labelMode.String()),
	}
	if !m.renderer.HasTopology() {
		parts = append(parts, dimStyle.Render("no land"))
	}
	return strings.Join(parts, " | ")
}

func (m GlobeViewModel) renderStatus() string {
	focus := ""
	for _, mk := range m.markers {
		if mk.Selected {
			focus = mk.ID
			break
		}
	}
	if focus == "" {
		focus = m.overlay.Hovered()
	}

	for _, mk := range m.markers {
		if mk.ID != focus || focus == "" {
			continue
		}
		name := mk.Label
		if name == "" {
			name = mk.ID
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(mk.Status)))
		prefix := "   "
		if mk.Selected {
			prefix = ">>>"
		}
		where := "behind the globe"
		if mk.Visible {
			where = "in view"
		}
		line := fmt.Sprintf("%s %s [%s] %s", prefix, name, mk.Status, where)
		if rec, ok := m.record(mk.ID); ok {
			tier := astro.GetDaylightTier(astro.AngularDistance(rec.Point(), m.frame.Sun))
			line += fmt.Sprintf(" | %s | %s", formatGeo(rec.Point()), tier)
		}
		return style.Render(line)
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	return dimStyle.Render("drag: rotate | wheel/+/-: zoom | click: select | double-click/0: reset | L: labels")
}

func (m GlobeViewModel) record(id string) (globe.PlotRecord, bool) {
	for _, r := range m.records {
		if r.ID == id {
			return r, true
		}
	}
	return globe.PlotRecord{}, false
}

func phaseLabel(p globe.Phase) string {
	switch p {
	case globe.PhaseDragging:
		return "Dragging"
	case globe.PhaseInertial:
		return "Coasting"
	case globe.PhaseFocusLocked:
		return "Focus"
	case globe.PhaseIdle:
		return "Idle"
	default:
		return "Auto-rotate"
	}
}

func formatGeo(p astro.GeoPoint) string {
	ns, ew := "N", "E"
	if p.Lat < 0 {
		ns = "S"
	}
	if p.Lng < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.1f°%s %.1f°%s", math.Abs(p.Lat), ns, math.Abs(p.Lng), ew)
}

func truncate(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
