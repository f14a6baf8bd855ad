package globe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/litescript/ls-globe/internal/astro"
)

// ErrNoPlaces is returned when a places document holds no usable points.
var ErrNoPlaces = errors.New("no populated places in dataset")

// Place is one entry of a populated-places dataset.
type Place struct {
	Lng        float64 `json:"lng"`
	Lat        float64 `json:"lat"`
	Population float64 `json:"population"`
}

// CityLight is a renderable light source. Its trig terms are computed once
// with the position and never change.
type CityLight struct {
	Lat, Lng       float64
	LatRad, LngRad float64
	SinLat, CosLat float64
	Size           float64 // radius in pixels at zoom 1
	Opacity        float64 // 0-1
}

func newCityLight(lat, lng, size, opacity float64) CityLight {
	p := astro.GeoPoint{Lat: lat, Lng: lng}.Clamp()
	latRad := astro.DegToRad(p.Lat)
	sinLat, cosLat := math.Sincos(latRad)
	return CityLight{
		Lat:     p.Lat,
		Lng:     p.Lng,
		LatRad:  latRad,
		LngRad:  astro.DegToRad(p.Lng),
		SinLat:  sinLat,
		CosLat:  cosLat,
		Size:    math.Max(size, 0.1),
		Opacity: clamp(opacity, 0, 1),
	}
}

// Point returns the light's position.
func (l CityLight) Point() astro.GeoPoint {
	return astro.GeoPoint{Lat: l.Lat, Lng: l.Lng}
}

// cosDistance returns the cosine of the angular distance from l to a point
// given by its latitude sine/cosine and longitude in radians.
func (l CityLight) cosDistance(sinLat, cosLat, lngRad float64) float64 {
	return l.SinLat*sinLat + l.CosLat*cosLat*math.Cos(l.LngRad-lngRad)
}

// CatalogConfig controls how places become lights.
type CatalogConfig struct {
	MinPopulation    float64 // places below this are dropped
	SprawlPopulation float64 // places at or above this grow suburbs
	MaxSuburbs       int
	SprawlRadius     float64 // degrees of jitter per sqrt(million people)
	Seed             uint64  // suburb jitter seed
}

// DefaultCatalogConfig returns the thresholds used for Natural Earth data.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		MinPopulation:    50_000,
		SprawlPopulation: 1_000_000,
		MaxSuburbs:       10,
		SprawlRadius:     0.35,
		Seed:             0x6c73676c6f6265,
	}
}

// CityCatalog is the immutable set of lights for a session.
type CityCatalog struct {
	lights  []CityLight
	primary int
}

// NewCityCatalog builds lights from places. Suburb synthesis is seeded, so a
// given dataset and config always produce the same layout.
func NewCityCatalog(places []Place, cfg CatalogConfig) *CityCatalog {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	c := &CityCatalog{}

	for _, pl := range places {
		if pl.Population < cfg.MinPopulation || !finite(pl.Lat) || !finite(pl.Lng) {
			continue
		}
		mag := math.Log10(pl.Population / cfg.MinPopulation) // 0 at threshold
		size := 0.6 + 0.45*mag
		opacity := 0.35 + 0.25*mag
		c.lights = append(c.lights, newCityLight(pl.Lat, pl.Lng, size, opacity))
		c.primary++

		if pl.Population < cfg.SprawlPopulation || cfg.MaxSuburbs <= 0 {
			continue
		}
		millions := pl.Population / 1e6
		n := min(cfg.MaxSuburbs, 2+int(millions*2))
		radius := cfg.SprawlRadius * math.Sqrt(millions)
		origin := astro.GeoPoint{Lat: pl.Lat, Lng: pl.Lng}
		for range n {
			// sqrt keeps the jitter uniform over the disc area
			dist := radius * math.Sqrt(rng.Float64())
			sub := astro.Destination(origin, rng.Float64()*360, dist)
			c.lights = append(c.lights, newCityLight(sub.Lat, sub.Lng, size*0.5, opacity*0.55))
		}
	}
	return c
}

// Lights returns all lights, primaries and suburbs alike.
func (c *CityCatalog) Lights() []CityLight {
	if c == nil {
		return nil
	}
	return c.lights
}

// Len returns the number of lights.
func (c *CityCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lights)
}

// PrimaryCount returns how many lights came directly from places.
func (c *CityCatalog) PrimaryCount() int {
	if c == nil {
		return 0
	}
	return c.primary
}

// ParsePlaces decodes a populated-places document: either a GeoJSON
// FeatureCollection of points carrying a population property, or a JSON
// array of {lng, lat, population}.
func ParsePlaces(data []byte) ([]Place, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrNoPlaces
	}

	var places []Place
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &places); err != nil {
			return nil, fmt.Errorf("decode places array: %w", err)
		}
	} else {
		fc, err := geojson.UnmarshalFeatureCollection(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decode places geojson: %w", err)
		}
		for _, f := range fc.Features {
			pt, ok := f.Geometry.(orb.Point)
			if !ok {
				continue
			}
			places = append(places, Place{
				Lng:        pt.Lon(),
				Lat:        pt.Lat(),
				Population: placePopulation(f.Properties),
			})
		}
	}

	if len(places) == 0 {
		return nil, ErrNoPlaces
	}
	return places, nil
}

func placePopulation(props geojson.Properties) float64 {
	for _, key := range []string{"population", "pop_max", "POP_MAX", "pop"} {
		if v := props.MustFloat64(key, -1); v >= 0 {
			return v
		}
	}
	return 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
