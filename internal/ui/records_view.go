package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-globe/internal/astro"
	"github.com/litescript/ls-globe/internal/globe"
	"github.com/litescript/ls-globe/internal/state"
)

// Styles for the records table
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// statusOrder is the display order of status counts, calmest first.
var statusOrder = []globe.Status{globe.StatusGreen, globe.StatusWhite, globe.StatusYellow, globe.StatusRed}

const maxEventRows = 8

// SelectRecordMsg asks the root model to select a record and show it on the
// globe.
type SelectRecordMsg struct {
	ID string
}

// RecordsModel is the tabular view of the plot records and recent events.
type RecordsModel struct {
	width    int
	height   int
	cursor   int
	snapshot state.Snapshot
	lastErr  error
	now      time.Time
}

// NewRecordsModel creates a new records model.
func NewRecordsModel() RecordsModel {
	return RecordsModel{}
}

// SetSize updates the viewport size.
func (m RecordsModel) SetSize(width, height int) RecordsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m RecordsModel) UpdateData(snapshot state.Snapshot) RecordsModel {
	m.snapshot = snapshot
	if n := len(snapshot.Records); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	return m
}

// SetClock sets the time used for the day/night column.
func (m RecordsModel) SetClock(now time.Time) RecordsModel {
	m.now = now
	return m
}

// SetError sets the last error for display.
func (m RecordsModel) SetError(err error) RecordsModel {
	m.lastErr = err
	return m
}

// Cursor returns the highlighted row.
func (m RecordsModel) Cursor() int { return m.cursor }

// Update handles messages.
func (m RecordsModel) Update(msg tea.Msg) (RecordsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	n := len(m.snapshot.Records)
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "home":
		m.cursor = 0
	case "end":
		if n > 0 {
			m.cursor = n - 1
		}
	case "enter":
		if m.cursor < n {
			id := m.snapshot.Records[m.cursor].ID
			return m, func() tea.Msg { return SelectRecordMsg{ID: id} }
		}
	}
	return m, nil
}

// View renders the records table.
func (m RecordsModel) View() string {
	var b strings.Builder

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	if len(m.snapshot.Records) == 0 {
		if m.snapshot.LastFetch.IsZero() && m.lastErr == nil {
			b.WriteString("Waiting for records...\n")
		} else {
			b.WriteString("No records\n")
		}
		return b.String()
	}

	b.WriteString(m.renderStatusSummary())
	b.WriteString("\n\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	return b.String()
}

func (m RecordsModel) renderStatusSummary() string {
	counts := make(map[globe.Status]int, len(statusOrder))
	for _, r := range m.snapshot.Records {
		counts[r.Status]++
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Status"))
	b.WriteString("\n  ")
	b.WriteString(m.renderDistributionBar(counts, 24))
	for _, s := range statusOrder {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(s)))
		b.WriteString("  " + style.Render(fmt.Sprintf("%s %d", s, counts[s])))
	}
	return b.String()
}

// renderDistributionBar draws one segment per status, proportional to its
// record count.
func (m RecordsModel) renderDistributionBar(counts map[globe.Status]int, width int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 || width <= 0 {
		return "[" + strings.Repeat("░", max(width, 0)) + "]"
	}

	seg := make([]int, len(statusOrder))
	used, last := 0, -1
	for i, s := range statusOrder {
		seg[i] = counts[s] * width / total
		used += seg[i]
		if counts[s] > 0 {
			last = i
		}
	}
	if last >= 0 {
		seg[last] += width - used
	}

	var b strings.Builder
	for i, s := range statusOrder {
		if seg[i] <= 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(s)))
		b.WriteString(style.Render(strings.Repeat("█", seg[i])))
	}
	return "[" + b.String() + "]"
}

func (m RecordsModel) renderTable() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Records"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-24s %-8s %-9s %-10s %-8s %-10s", "Label", "Status", "Lat", "Lng", "Sky", "ID")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	visible := max(m.height-maxEventRows-8, 3)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.snapshot.Records))

	for i := start; i < end; i++ {
		rec := m.snapshot.Records[i]
		marker := "  "
		if rec.Selected {
			marker = "◆ "
		}
		label := rec.Label
		if label == "" {
			label = "-"
		}
		sky := "-"
		if !m.now.IsZero() {
			sky = astro.GetDaylightTier(astro.SunSeparation(rec.Point(), m.now)).String()
		}
		row := fmt.Sprintf("%s%-24s %-8s %9.3f %10.3f %-8s %-10s",
			marker, truncate(label, 24), rec.Status, rec.Lat, rec.Lng, sky, truncate(rec.ID, 10))

		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(m.snapshot.Records) > visible {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
		b.WriteString(dim.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(m.snapshot.Records))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m RecordsModel) renderEvents() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent Events"))
	b.WriteString("\n")

	events := m.snapshot.Events
	if len(events) == 0 {
		b.WriteString(rowStyle.Render("  none"))
		b.WriteString("\n")
		return b.String()
	}

	// Newest first
	for i := len(events) - 1; i >= 0 && len(events)-i <= maxEventRows; i-- {
		b.WriteString("  " + formatEvent(events[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func formatEvent(e state.Event) string {
	name := e.Label
	if name == "" {
		name = e.RecordID
	}
	ts := e.Timestamp.Format("15:04:05")
	switch e.Type {
	case state.EventStatusChanged:
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(e.NewStatus)))
		return rowStyle.Render(fmt.Sprintf("%s %s ", ts, name)) +
			style.Render(fmt.Sprintf("%s → %s", e.OldStatus, e.NewStatus))
	case state.EventRecordAdded:
		return rowStyle.Render(fmt.Sprintf("%s + %s", ts, name))
	case state.EventRecordRemoved:
		return rowStyle.Render(fmt.Sprintf("%s - %s", ts, name))
	case state.EventSelected:
		return rowStyle.Render(fmt.Sprintf("%s selected %s", ts, name))
	case state.EventDeselected:
		return rowStyle.Render(fmt.Sprintf("%s released %s", ts, name))
	}
	return rowStyle.Render(fmt.Sprintf("%s %s %s", ts, e.Type, name))
}
