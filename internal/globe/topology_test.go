package globe

import (
	"errors"
	"testing"
)

const topologyFixture = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"name":"Squareland"},
	 "geometry":{"type":"Polygon","coordinates":[
		[[0,0],[10,0],[10,10],[0,10],[0,0]],
		[[2,2],[3,2],[3,3],[2,2]]
	 ]}},
	{"type":"Feature","properties":{"ADMIN":"Archipelago"},
	 "geometry":{"type":"MultiPolygon","coordinates":[
		[[[20,0],[21,0],[21,1],[20,0]]],
		[[[30,5],[31,5],[31,6],[30,5]]]
	 ]}},
	{"type":"Feature","properties":{"name":"Road"},
	 "geometry":{"type":"LineString","coordinates":[[0,0],[5,5]]}}
]}`

func TestParseTopology(t *testing.T) {
	topo, err := ParseTopology([]byte(topologyFixture))
	if err != nil {
		t.Fatalf("ParseTopology: %v", err)
	}

	countries := topo.Countries()
	if len(countries) != 2 {
		t.Fatalf("got %d countries, want 2", len(countries))
	}
	if countries[0].Name != "Squareland" || countries[1].Name != "Archipelago" {
		t.Errorf("names = %q, %q", countries[0].Name, countries[1].Name)
	}
	if len(countries[0].Rings) != 1 {
		t.Errorf("Squareland rings = %d, want holes dropped", len(countries[0].Rings))
	}
	if len(countries[1].Rings) != 2 {
		t.Errorf("Archipelago rings = %d, want 2", len(countries[1].Rings))
	}
	if got := topo.VertexCount(); got != 5+4+4 {
		t.Errorf("VertexCount = %d, want 13", got)
	}

	corner := countries[0].Rings[0][1]
	if corner.Lng != 10 || corner.Lat != 0 {
		t.Errorf("vertex = %+v, want lng 10 lat 0", corner)
	}
}

func TestParseTopology_NoGeometry(t *testing.T) {
	tests := map[string]string{
		"no features": `{"type":"FeatureCollection","features":[]}`,
		"only lines":  `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}]}`,
		"degenerate":  `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,1]]]}}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseTopology([]byte(data)); !errors.Is(err, ErrNoGeometry) {
				t.Errorf("err = %v, want ErrNoGeometry", err)
			}
		})
	}
}

func TestParseTopology_Malformed(t *testing.T) {
	_, err := ParseTopology([]byte("{"))
	if err == nil || errors.Is(err, ErrNoGeometry) {
		t.Errorf("err = %v, want decode error", err)
	}
}

func TestTopology_NilSafe(t *testing.T) {
	var topo *Topology
	if topo.Countries() != nil || topo.VertexCount() != 0 {
		t.Error("nil topology should be empty")
	}
}
