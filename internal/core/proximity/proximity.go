// Package proximity finds catalog entities around a point: distance,
// radius filtering, deterministic ranking, pagination and explicit
// radius expansion. Everything here is pure and safe for concurrent use.
package proximity

import (
	"math"
	"slices"
	"strings"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/pkg/geospatial"
)

// Entity is anything that can take part in a proximity search.
// Entities without a coordinate are never matched.
type Entity interface {
	EntityID() string
	Coordinate() (domain.Coordinate, bool)
}

// Match pairs an entity with its distance from the search center.
type Match[E Entity] struct {
	Entity     E       `json:"entity"`
	DistanceKm float64 `json:"distance_km"`
}

// SearchRequest describes a single proximity query. Limit 0 means unbounded.
type SearchRequest struct {
	Center   domain.Coordinate `json:"center"`
	RadiusKm float64           `json:"radius_km"`
	Limit    int               `json:"limit,omitempty"`
}

// Validate rejects malformed centers and non-positive radii or limits.
func (r SearchRequest) Validate() error {
	if err := r.Center.Validate(); err != nil {
		return err
	}
	if math.IsNaN(r.RadiusKm) || math.IsInf(r.RadiusKm, 0) || r.RadiusKm <= 0 {
		return domain.InvalidArgument("radius must be a positive number of kilometers, got %v", r.RadiusKm)
	}
	if r.Limit < 0 {
		return domain.InvalidArgument("limit must be positive, got %d", r.Limit)
	}
	return nil
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b domain.Coordinate) float64 {
	return geospatial.HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Query scans catalog and returns every located entity within req.RadiusKm
// of req.Center, in catalog order. req.Limit is not applied here.
func Query[E Entity](catalog []E, req SearchRequest) ([]Match[E], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return scan(catalog, req), nil
}

func scan[E Entity](catalog []E, req SearchRequest) []Match[E] {
	var out []Match[E]
	for _, e := range catalog {
		c, ok := e.Coordinate()
		if !ok {
			continue
		}
		d := DistanceKm(req.Center, c)
		if d <= req.RadiusKm {
			out = append(out, Match[E]{Entity: e, DistanceKm: d})
		}
	}
	return out
}

// Rank returns a copy of matches ordered by distance, ties broken by entity ID.
func Rank[E Entity](matches []Match[E]) []Match[E] {
	ranked := slices.Clone(matches)
	slices.SortStableFunc(ranked, compare[E])
	return ranked
}

func compare[E Entity](a, b Match[E]) int {
	switch {
	case a.DistanceKm < b.DistanceKm:
		return -1
	case a.DistanceKm > b.DistanceKm:
		return 1
	}
	return strings.Compare(a.Entity.EntityID(), b.Entity.EntityID())
}

// Paginate truncates ranked to at most limit items, preserving order.
func Paginate[E Entity](ranked []Match[E], limit int) ([]Match[E], error) {
	if limit <= 0 {
		return nil, domain.InvalidArgument("limit must be positive, got %d", limit)
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	return ranked[:limit:limit], nil
}

// Page returns the window [offset, offset+limit) of ranked.
func Page[E Entity](ranked []Match[E], offset, limit int) ([]Match[E], error) {
	if offset < 0 {
		return nil, domain.InvalidArgument("offset must not be negative, got %d", offset)
	}
	if offset >= len(ranked) {
		if limit <= 0 {
			return nil, domain.InvalidArgument("limit must be positive, got %d", limit)
		}
		return []Match[E]{}, nil
	}
	return Paginate(ranked[offset:], limit)
}
