package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-globe/internal/globe"
	"github.com/litescript/ls-globe/internal/state"
)

func TestRenderDistributionBar(t *testing.T) {
	m := RecordsModel{}

	tests := []struct {
		name       string
		counts     map[globe.Status]int
		width      int
		wantFilled int
	}{
		{"empty", map[globe.Status]int{}, 10, 0},
		{"single status", map[globe.Status]int{globe.StatusRed: 3}, 10, 10},
		{"uneven split", map[globe.Status]int{globe.StatusGreen: 1, globe.StatusRed: 2}, 10, 10},
		{"three way", map[globe.Status]int{globe.StatusGreen: 1, globe.StatusYellow: 1, globe.StatusWhite: 1}, 8, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := m.renderDistributionBar(tt.counts, tt.width)

			if !strings.HasPrefix(bar, "[") || !strings.HasSuffix(bar, "]") {
				t.Errorf("bar should have brackets, got %q", bar)
			}
			if got := strings.Count(bar, "█"); got != tt.wantFilled {
				t.Errorf("filled count = %d, want %d", got, tt.wantFilled)
			}
			if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tt.width {
				t.Errorf("bar width = %d, want %d", got, tt.width)
			}
		})
	}
}

func TestRecordsModel_Cursor(t *testing.T) {
	snap := state.Snapshot{Records: testRecords(), LastFetch: testNow}
	m := NewRecordsModel().SetSize(80, 30).UpdateData(snap)

	steps := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyDown}, 1},
		{tea.KeyMsg{Type: tea.KeyDown}, 1},
		{tea.KeyMsg{Type: tea.KeyUp}, 0},
		{tea.KeyMsg{Type: tea.KeyUp}, 0},
		{tea.KeyMsg{Type: tea.KeyEnd}, 1},
		{tea.KeyMsg{Type: tea.KeyHome}, 0},
	}
	for i, s := range steps {
		m, _ = m.Update(s.key)
		if m.Cursor() != s.want {
			t.Errorf("step %d (%s): cursor = %d, want %d", i, s.key, m.Cursor(), s.want)
		}
	}

	// Shrinking the record set pulls the cursor back in range.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	m = m.UpdateData(state.Snapshot{Records: testRecords()[:1], LastFetch: testNow})
	if m.Cursor() != 0 {
		t.Errorf("cursor = %d after shrink, want 0", m.Cursor())
	}
}

func TestRecordsModel_View(t *testing.T) {
	tests := []struct {
		name string
		snap state.Snapshot
		want []string
	}{
		{"waiting", state.Snapshot{}, []string{"Waiting for records"}},
		{"empty feed", state.Snapshot{LastFetch: testNow}, []string{"No records"}},
		{"table", state.Snapshot{
			Records:   testRecords(),
			LastFetch: testNow,
			Events: []state.Event{
				{Type: state.EventRecordAdded, Timestamp: testNow, RecordID: "center", Label: "Origin"},
				{Type: state.EventStatusChanged, Timestamp: testNow.Add(time.Minute), RecordID: "far", Label: "Antipode",
					OldStatus: globe.StatusYellow, NewStatus: globe.StatusGreen},
			},
		}, []string{"Origin", "Antipode", "red 1", "green 1", "+ Origin", "yellow → green"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewRecordsModel().SetSize(80, 30).UpdateData(tt.snap).View()
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("view missing %q:\n%s", w, view)
				}
			}
		})
	}
}

func TestRecordsModel_EventsNewestFirst(t *testing.T) {
	snap := state.Snapshot{Records: testRecords(), LastFetch: testNow}
	for i := 0; i < maxEventRows+3; i++ {
		snap.Events = append(snap.Events, state.Event{
			Type:      state.EventSelected,
			Timestamp: testNow.Add(time.Duration(i) * time.Second),
			RecordID:  "center",
		})
	}

	view := NewRecordsModel().SetSize(80, 40).UpdateData(snap).View()
	if got := strings.Count(view, "selected center"); got != maxEventRows {
		t.Errorf("event rows = %d, want %d", got, maxEventRows)
	}
	newest := strings.Index(view, "12:00:10")
	oldestShown := strings.Index(view, "12:00:03")
	if newest < 0 || oldestShown < 0 || newest > oldestShown {
		t.Errorf("events should be listed newest first")
	}
	if strings.Contains(view, "12:00:02 selected") {
		t.Error("events beyond the limit should be dropped")
	}
}

func TestRecordsModel_SkyColumn(t *testing.T) {
	snap := state.Snapshot{Records: testRecords(), LastFetch: testNow}

	view := NewRecordsModel().SetSize(80, 30).UpdateData(snap).View()
	if strings.Contains(view, " day ") || strings.Contains(view, " night ") {
		t.Error("sky column should be blank before the clock is set")
	}

	// Near the March equinox at noon UTC the sun is over the Gulf of Guinea.
	view = NewRecordsModel().SetSize(80, 30).UpdateData(snap).SetClock(testNow).View()
	for _, want := range []string{" day ", " night "} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
