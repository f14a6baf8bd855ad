package globe

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/litescript/ls-globe/internal/astro"
)

// ErrNoGeometry is returned when a topology document holds no polygons.
var ErrNoGeometry = errors.New("no polygon geometry in topology")

// Country is a named landmass made of one or more outer rings.
type Country struct {
	Name  string
	Rings [][]astro.GeoPoint
}

// Topology is the immutable landmass geometry for a session.
type Topology struct {
	countries []Country
	vertices  int
}

// Countries returns the loaded countries.
func (t *Topology) Countries() []Country {
	if t == nil {
		return nil
	}
	return t.countries
}

// VertexCount returns the total number of ring vertices.
func (t *Topology) VertexCount() int {
	if t == nil {
		return 0
	}
	return t.vertices
}

// ParseTopology decodes a GeoJSON FeatureCollection of Polygon and
// MultiPolygon features. Only outer rings are kept; holes are not rendered.
func ParseTopology(data []byte) (*Topology, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode topology geojson: %w", err)
	}

	t := &Topology{}
	for _, f := range fc.Features {
		var polys []orb.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{g}
		case orb.MultiPolygon:
			polys = g
		default:
			continue
		}

		country := Country{Name: countryName(f.Properties)}
		for _, poly := range polys {
			if len(poly) == 0 || len(poly[0]) < 3 {
				continue
			}
			ring := make([]astro.GeoPoint, 0, len(poly[0]))
			for _, pt := range poly[0] {
				ring = append(ring, astro.GeoPoint{Lat: pt.Lat(), Lng: pt.Lon()}.Clamp())
			}
			country.Rings = append(country.Rings, ring)
			t.vertices += len(ring)
		}
		if len(country.Rings) > 0 {
			t.countries = append(t.countries, country)
		}
	}

	if len(t.countries) == 0 {
		return nil, ErrNoGeometry
	}
	return t, nil
}

func countryName(props geojson.Properties) string {
	for _, key := range []string{"name", "NAME", "ADMIN", "admin"} {
		if s := props.MustString(key, ""); s != "" {
			return s
		}
	}
	return ""
}
