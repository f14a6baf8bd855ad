package globe

import "github.com/litescript/ls-globe/internal/astro"

// Status is the posture level of a plot record.
type Status string

const (
	StatusWhite  Status = "white"  // structural decay
	StatusGreen  Status = "green"  // stable baseline
	StatusYellow Status = "yellow" // escalating tension
	StatusRed    Status = "red"    // active crisis
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWhite, StatusGreen, StatusYellow, StatusRed:
		return true
	}
	return false
}

// PlotRecord is an externally owned entity plotted on the globe. The engine
// only reads it.
type PlotRecord struct {
	ID       string          `json:"id"`
	Lat      float64         `json:"lat"`
	Lng      float64         `json:"lng"`
	Status   Status          `json:"status"`
	Label    string          `json:"label,omitempty"`
	Selected bool            `json:"selected,omitempty"`
	Hovered  bool            `json:"hovered,omitempty"`
	Center   *astro.GeoPoint `json:"center,omitempty"` // optional anchor for the selection arc
}

// Point returns the record position clamped to valid ranges.
func (r PlotRecord) Point() astro.GeoPoint {
	return astro.GeoPoint{Lat: r.Lat, Lng: r.Lng}.Clamp()
}

// MarkerPosition is the projection of one record on one frame.
type MarkerPosition struct {
	ID       string
	X, Y     float64
	Visible  bool
	Distance float64 // degrees from the view centre
}
