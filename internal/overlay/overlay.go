// Package overlay keeps interactive markers aligned with the globe's
// projected record positions and turns pointer activity over them into
// hover and selection notifications.
package overlay

import (
	"math"

	"github.com/litescript/ls-globe/internal/globe"
)

// DefaultHitRadius is the pick distance in surface pixels.
const DefaultHitRadius = 6.0

// Marker is one record's on-screen marker for the current frame.
type Marker struct {
	ID       string
	X, Y     float64
	Visible  bool
	Status   globe.Status
	Label    string
	Selected bool
	Hovered  bool
}

// Synchronizer positions markers from FrameOutput.Markers. Selection state
// lives with the record owner: hooks forward intent, and the next Sync
// reflects whatever the owner decided.
type Synchronizer struct {
	HitRadius float64
	OnHover   func(id string)
	OnSelect  func(id string)

	markers  []Marker
	hovered  string
	selected string
}

// New returns a synchronizer with the default hit radius.
func New() *Synchronizer {
	return &Synchronizer{HitRadius: DefaultHitRadius}
}

// Sync rebuilds the marker set. positions is matched to records by id, so
// the two slices need not line up. Records with no position are hidden.
func (s *Synchronizer) Sync(records []globe.PlotRecord, positions []globe.MarkerPosition) []Marker {
	byID := make(map[string]globe.MarkerPosition, len(positions))
	for _, p := range positions {
		byID[p.ID] = p
	}

	s.markers = s.markers[:0]
	s.selected = ""
	for _, rec := range records {
		m := Marker{
			ID:       rec.ID,
			Status:   rec.Status,
			Label:    rec.Label,
			Selected: rec.Selected,
			Hovered:  rec.Hovered || (rec.ID != "" && rec.ID == s.hovered),
		}
		if p, ok := byID[rec.ID]; ok {
			m.X, m.Y, m.Visible = p.X, p.Y, p.Visible
		}
		if m.Selected {
			s.selected = rec.ID
		}
		s.markers = append(s.markers, m)
	}
	return s.markers
}

// Markers returns the markers from the last Sync.
func (s *Synchronizer) Markers() []Marker {
	return s.markers
}

// HitTest returns the nearest visible marker within HitRadius of (x, y).
func (s *Synchronizer) HitTest(x, y float64) (Marker, bool) {
	radius := s.HitRadius
	if radius <= 0 {
		radius = DefaultHitRadius
	}
	best, bestDist := -1, math.Inf(1)
	for i, m := range s.markers {
		if !m.Visible {
			continue
		}
		if d := math.Hypot(m.X-x, m.Y-y); d <= radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Marker{}, false
	}
	return s.markers[best], true
}

// Hover reports the marker under (x, y). OnHover fires only when the
// hovered id changes, with "" when the pointer leaves every marker.
func (s *Synchronizer) Hover(x, y float64) string {
	id := ""
	if m, ok := s.HitTest(x, y); ok {
		id = m.ID
	}
	if id != s.hovered {
		s.hovered = id
		if s.OnHover != nil {
			s.OnHover(id)
		}
	}
	return id
}

// Leave clears the hover, as when the pointer exits the surface.
func (s *Synchronizer) Leave() {
	if s.hovered == "" {
		return
	}
	s.hovered = ""
	if s.OnHover != nil {
		s.OnHover("")
	}
}

// Click toggles selection of the marker under (x, y) and reports whether a
// marker was hit. Clicking the selected marker forwards "".
func (s *Synchronizer) Click(x, y float64) bool {
	m, ok := s.HitTest(x, y)
	if !ok {
		return false
	}
	id := m.ID
	if id == s.selected {
		id = ""
	}
	if s.OnSelect != nil {
		s.OnSelect(id)
	}
	return true
}

// Hovered returns the id under the pointer, if any.
func (s *Synchronizer) Hovered() string { return s.hovered }
