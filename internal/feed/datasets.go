package feed

import (
	"context"
	"fmt"

	"github.com/litescript/ls-globe/internal/globe"
)

// FetchTopology retrieves and parses a landmass GeoJSON document.
func (f *Fetcher) FetchTopology(ctx context.Context, source string) (*globe.Topology, error) {
	raw, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load topology: %w", err)
	}
	topo, err := globe.ParseTopology(raw)
	if err != nil {
		return nil, fmt.Errorf("load topology %s: %w", source, err)
	}
	f.log.Info("topology: %d countries, %d vertices", len(topo.Countries()), topo.VertexCount())
	return topo, nil
}

// FetchCities retrieves a populated-places document and builds the city
// light catalog from it.
func (f *Fetcher) FetchCities(ctx context.Context, source string, cfg globe.CatalogConfig) (*globe.CityCatalog, error) {
	raw, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load places: %w", err)
	}
	places, err := globe.ParsePlaces(raw)
	if err != nil {
		return nil, fmt.Errorf("load places %s: %w", source, err)
	}
	cat := globe.NewCityCatalog(places, cfg)
	f.log.Info("places: %d of %d above threshold, %d lights", cat.PrimaryCount(), len(places), cat.Len())
	return cat, nil
}
