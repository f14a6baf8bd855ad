// Package state holds the plot records shown on the globe together with the
// hovered and selected ids. It is the owner the overlay forwards selection
// intent to, and is safe for concurrent use by the poll loop and the UI.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-globe/internal/globe"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventRecordAdded   EventType = "RECORD_ADDED"
	EventRecordRemoved EventType = "RECORD_REMOVED"
	EventStatusChanged EventType = "STATUS_CHANGED"
	EventSelected      EventType = "SELECTED"
	EventDeselected    EventType = "DESELECTED"
)

// Event is one change to the record set or the selection.
type Event struct {
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RecordID  string       `json:"record_id"`
	Label     string       `json:"label,omitempty"`
	OldStatus globe.Status `json:"old_status,omitempty"`
	NewStatus globe.Status `json:"new_status,omitempty"`
}

// Manager handles all shared record state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	records       []globe.PlotRecord
	byID          map[string]int
	hasData       bool
	lastFetch     time.Time
	lastError     error
	fetchDuration time.Duration

	selected string
	hovered  string

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	refreshInterval time.Duration
	now             func() time.Time
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents       int
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents:       50,
		RefreshInterval: 10 * time.Second,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		byID:            make(map[string]int),
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		refreshInterval: cfg.RefreshInterval,
		now:             time.Now,
	}
}

// Update replaces the record set. A nil records slice with a non-nil err
// records the failure and keeps the previous records on screen. A selection
// whose record disappeared is dropped. With nothing selected, the first
// record the feed newly flags as selected becomes the selection.
func (m *Manager) Update(records []globe.PlotRecord, fetchDuration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastFetch = m.now()
	m.lastError = err
	m.fetchDuration = fetchDuration

	if records == nil && err != nil {
		return
	}

	next := make([]globe.PlotRecord, len(records))
	copy(next, records)
	byID := make(map[string]int, len(next))
	for i, rec := range next {
		byID[rec.ID] = i
	}

	m.detectEvents(next, byID)
	flagged := m.newlyFlagged(next)

	m.records = next
	m.byID = byID
	m.hasData = true

	if m.selected != "" {
		if _, ok := byID[m.selected]; !ok {
			m.addEvent(Event{Type: EventDeselected, Timestamp: m.lastFetch, RecordID: m.selected})
			m.selected = ""
		}
	}
	if _, ok := byID[m.hovered]; !ok {
		m.hovered = ""
	}
	if m.selected == "" && flagged >= 0 {
		rec := next[flagged]
		m.selected = rec.ID
		m.addEvent(Event{Type: EventSelected, Timestamp: m.lastFetch, RecordID: rec.ID, Label: rec.Label})
	}
}

// newlyFlagged returns the index of the first record in next whose feed
// selected flag was not already set on the current record, or -1. A flag the
// feed keeps repeating does not override a selection the user cleared.
func (m *Manager) newlyFlagged(next []globe.PlotRecord) int {
	for i, rec := range next {
		if !rec.Selected {
			continue
		}
		if j, ok := m.byID[rec.ID]; ok && m.records[j].Selected {
			continue
		}
		return i
	}
	return -1
}

// detectEvents compares the incoming records with the current ones.
func (m *Manager) detectEvents(next []globe.PlotRecord, nextByID map[string]int) {
	now := m.lastFetch
	for _, rec := range next {
		i, ok := m.byID[rec.ID]
		if !ok {
			m.addEvent(Event{
				Type:      EventRecordAdded,
				Timestamp: now,
				RecordID:  rec.ID,
				Label:     rec.Label,
				NewStatus: rec.Status,
			})
			continue
		}
		if prev := m.records[i]; prev.Status != rec.Status {
			m.addEvent(Event{
				Type:      EventStatusChanged,
				Timestamp: now,
				RecordID:  rec.ID,
				Label:     rec.Label,
				OldStatus: prev.Status,
				NewStatus: rec.Status,
			})
		}
	}
	for _, prev := range m.records {
		if _, ok := nextByID[prev.ID]; !ok {
			m.addEvent(Event{
				Type:      EventRecordRemoved,
				Timestamp: now,
				RecordID:  prev.ID,
				Label:     prev.Label,
				OldStatus: prev.Status,
			})
		}
	}
}

// Select sets the selected record. "" clears the selection. Unknown ids are
// ignored and reported false.
func (m *Manager) Select(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if _, ok := m.byID[id]; !ok {
			return false
		}
	}
	if id == m.selected {
		return true
	}

	now := m.now()
	if m.selected != "" {
		m.addEvent(Event{Type: EventDeselected, Timestamp: now, RecordID: m.selected})
	}
	m.selected = id
	if id != "" {
		rec := m.records[m.byID[id]]
		m.addEvent(Event{Type: EventSelected, Timestamp: now, RecordID: id, Label: rec.Label})
	}
	return true
}

// Hover sets the hovered record. "" clears it.
func (m *Manager) Hover(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; ok || id == "" {
		m.hovered = id
	}
}

// Selected returns the selected record id.
func (m *Manager) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Hovered returns the hovered record id.
func (m *Manager) Hovered() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hovered
}

// Record returns the record with the given id.
func (m *Manager) Record(id string) (globe.PlotRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return globe.PlotRecord{}, false
	}
	rec := m.records[i]
	rec.Selected = m.selected != "" && rec.ID == m.selected
	rec.Hovered = m.hovered != "" && rec.ID == m.hovered
	return rec, true
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Records       []globe.PlotRecord // Selected and Hovered reflect the manager
	SelectedID    string
	HoveredID     string
	LastFetch     time.Time
	LastError     error
	FetchDuration time.Duration
	Events        []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]globe.PlotRecord, len(m.records))
	for i, rec := range m.records {
		rec.Selected = rec.ID == m.selected && m.selected != ""
		rec.Hovered = rec.ID == m.hovered && m.hovered != ""
		recs[i] = rec
	}

	return Snapshot{
		Records:       recs,
		SelectedID:    m.selected,
		HoveredID:     m.hovered,
		LastFetch:     m.lastFetch,
		LastError:     m.lastError,
		FetchDuration: m.fetchDuration,
		Events:        m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// SetRefreshInterval updates the refresh interval.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshInterval = d
}

// HasData returns true if we have received at least one successful fetch.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasData
}
