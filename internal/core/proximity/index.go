package proximity

import (
	"github.com/localmart/storefront/internal/pkg/geospatial"
)

// Index answers proximity queries over a fixed catalog snapshot.
// Implementations return the same match set as Query; order is unspecified.
type Index[E Entity] interface {
	Nearby(req SearchRequest) ([]Match[E], error)
	Len() int
}

// LinearIndex scans the whole catalog on every query.
type LinearIndex[E Entity] struct {
	catalog []E
}

// NewLinearIndex wraps catalog. The slice must not be modified afterwards.
func NewLinearIndex[E Entity](catalog []E) *LinearIndex[E] {
	return &LinearIndex[E]{catalog: catalog}
}

func (l *LinearIndex[E]) Nearby(req SearchRequest) ([]Match[E], error) {
	return Query(l.catalog, req)
}

func (l *LinearIndex[E]) Len() int { return len(l.catalog) }

// GeohashIndex buckets located entities by geohash at every precision so a
// query only inspects the 3×3 cells around its center at the precision that
// matches its radius. Queries whose circle cannot be covered that way fall
// back to scanning every located entity.
type GeohashIndex[E Entity] struct {
	buckets []map[string][]E // indexed by precision
	located []E
	total   int
}

// NewGeohashIndex builds an index over catalog. Entities without a
// coordinate are counted but never bucketed.
func NewGeohashIndex[E Entity](catalog []E) *GeohashIndex[E] {
	idx := &GeohashIndex[E]{
		buckets: make([]map[string][]E, geospatial.MaxPrecision+1),
		total:   len(catalog),
	}
	for p := 1; p <= geospatial.MaxPrecision; p++ {
		idx.buckets[p] = make(map[string][]E)
	}
	for _, e := range catalog {
		c, ok := e.Coordinate()
		if !ok {
			continue
		}
		idx.located = append(idx.located, e)
		full := geospatial.Encode(c.Lat, c.Lon, geospatial.MaxPrecision)
		for p := 1; p <= geospatial.MaxPrecision; p++ {
			idx.buckets[p][full[:p]] = append(idx.buckets[p][full[:p]], e)
		}
	}
	return idx
}

func (g *GeohashIndex[E]) Nearby(req SearchRequest) ([]Match[E], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := geospatial.PrecisionForRadius(req.Center.Lat, req.RadiusKm)
	if p == 0 {
		return scan(g.located, req), nil
	}

	var out []Match[E]
	for _, cell := range geospatial.Neighbors(geospatial.Encode(req.Center.Lat, req.Center.Lon, p)) {
		out = append(out, scan(g.buckets[p][cell], req)...)
	}
	return out, nil
}

func (g *GeohashIndex[E]) Len() int { return g.total }
