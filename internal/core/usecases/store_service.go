package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/proximity"
	"github.com/localmart/storefront/internal/pkg/logging"
	"github.com/localmart/storefront/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/localmart/storefront/internal/core/usecases")

// NearbyQuery describes one page of a proximity search.
type NearbyQuery struct {
	Center   domain.Coordinate
	RadiusKm float64
	Limit    int
	Offset   int
	// Expand widens an empty search step by step up to the configured ceiling.
	Expand bool
}

type catalogSnapshot struct {
	index    proximity.Index[domain.Store]
	located  int
	loadedAt time.Time
}

// StoreService answers "which stores are near this point".
type StoreService struct {
	stores    ports.StoreRepository
	cache     ports.CacheService
	locations *LocationService
	opts      DiscoveryOptions

	snapshot   atomic.Pointer[catalogSnapshot]
	generation atomic.Uint64
	loads      singleflight.Group
	now        func() time.Time
}

// NewStoreService creates a new StoreService. cache and locations may be nil.
func NewStoreService(stores ports.StoreRepository, cache ports.CacheService, locations *LocationService, opts DiscoveryOptions) *StoreService {
	return &StoreService{
		stores:    stores,
		cache:     cache,
		locations: locations,
		opts:      opts,
		now:       time.Now,
	}
}

// FindNearby returns one page of active stores within q.RadiusKm of q.Center,
// nearest first.
func (s *StoreService) FindNearby(ctx context.Context, q NearbyQuery) (*domain.NearbyResult, error) {
	ctx, span := tracer.Start(ctx, "StoreService.FindNearby")
	defer span.End()

	q, err := s.normalize(q)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64("discovery.radius_km", q.RadiusKm),
		attribute.Bool("discovery.expand", q.Expand),
	)

	// Try cache
	cacheKey := s.nearbyCacheKey("stores", q)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res domain.NearbyResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("stores_nearby").Inc()
				return &res, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("stores_nearby").Inc()
	}

	found, degraded, err := s.search(ctx, q)
	if err != nil {
		metrics.NearbySearches.WithLabelValues("stores", "error").Inc()
		return nil, err
	}
	recordSearch("stores", len(found.Matches), found.Expanded)

	page, err := proximity.Page(found.Matches, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}
	res := &domain.NearbyResult{
		Stores:            make([]domain.NearbyStore, 0, len(page)),
		Center:            q.Center,
		RequestedRadiusKm: found.RequestedRadiusKm,
		RadiusKm:          found.RadiusKm,
		Expanded:          found.Expanded,
		Offset:            q.Offset,
		Limit:             q.Limit,
		Total:             len(found.Matches),
	}
	for _, m := range page {
		res.Stores = append(res.Stores, domain.NearbyStore{Store: m.Entity, DistanceKm: m.DistanceKm})
	}
	span.SetAttributes(attribute.Int("discovery.total", res.Total))

	// A degraded empty answer must not outlive the outage.
	if s.cache != nil && !degraded {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.ResultCacheTTL)
		}
	}

	return res, nil
}

// FindNearbyByAddress geocodes address and searches around the result.
func (s *StoreService) FindNearbyByAddress(ctx context.Context, address string, q NearbyQuery) (*domain.NearbyResult, error) {
	if s.locations == nil {
		return nil, fmt.Errorf("%w: address search is not configured", domain.ErrGeocodeServiceError)
	}
	center, err := s.locations.ResolveFromAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	q.Center = center
	return s.FindNearby(ctx, q)
}

// GetByID returns a single store.
func (s *StoreService) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	if id == "" {
		return nil, domain.InvalidArgument("store id must not be empty")
	}

	cacheKey := storeCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var store domain.Store
			if err := json.Unmarshal(data, &store); err == nil {
				return &store, nil
			}
		}
	}

	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(store); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return store, nil
}

// GetByIDs returns multiple stores by their IDs.
func (s *StoreService) GetByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.stores.GetByIDs(ctx, ids)
}

// Invalidate drops the catalog snapshot so the next search reloads it.
func (s *StoreService) Invalidate() {
	s.generation.Add(1)
	s.snapshot.Store(nil)
}

// Forget drops the cached copy of a single store.
func (s *StoreService) Forget(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, storeCacheKey(id))
	}
}

// CatalogSize reports the located stores in the current snapshot.
func (s *StoreService) CatalogSize() int {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.located
	}
	return 0
}

func (s *StoreService) normalize(q NearbyQuery) (NearbyQuery, error) {
	if q.Limit == 0 {
		q.Limit = s.opts.DefaultLimit
	}
	if q.Limit < 0 {
		return q, domain.InvalidArgument("limit must be positive, got %d", q.Limit)
	}
	if s.opts.MaxLimit > 0 && q.Limit > s.opts.MaxLimit {
		q.Limit = s.opts.MaxLimit
	}
	if q.Offset < 0 {
		return q, domain.InvalidArgument("offset must not be negative, got %d", q.Offset)
	}
	req := proximity.SearchRequest{Center: q.Center, RadiusKm: q.RadiusKm}
	if err := req.Validate(); err != nil {
		return q, err
	}
	if s.opts.MaxRadiusKm > 0 && q.RadiusKm > s.opts.MaxRadiusKm {
		return q, domain.InvalidArgument("radius must not exceed %v km, got %v", s.opts.MaxRadiusKm, q.RadiusKm)
	}
	return q, nil
}

// search runs the ranked query over the whole snapshot. degraded reports that
// the catalog could not be fetched and an empty catalog was searched instead.
func (s *StoreService) search(ctx context.Context, q NearbyQuery) (proximity.Result[domain.Store], bool, error) {
	idx, err := s.catalog(ctx)
	degraded := false
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "catalog fetch failed, searching empty catalog", "error", err)
		metrics.CatalogFetchErrors.Inc()
		idx = proximity.NewLinearIndex[domain.Store](nil)
		degraded = true
	}

	var policy *proximity.ExpansionPolicy
	if q.Expand {
		p := s.opts.Expansion
		policy = &p
	}
	res, err := proximity.Search(idx, proximity.SearchRequest{Center: q.Center, RadiusKm: q.RadiusKm}, policy)
	return res, degraded, err
}

// catalog returns the current index, reloading it when stale. A failed reload
// keeps serving the previous snapshot if there is one.
func (s *StoreService) catalog(ctx context.Context) (proximity.Index[domain.Store], error) {
	snap := s.snapshot.Load()
	if snap != nil && s.now().Sub(snap.loadedAt) < s.opts.CatalogTTL {
		return snap.index, nil
	}

	gen := s.generation.Load()
	v, err, _ := s.loads.Do(fmt.Sprintf("catalog:%d", gen), func() (any, error) {
		ctx, span := tracer.Start(context.WithoutCancel(ctx), "StoreService.loadCatalog")
		defer span.End()

		stores, err := s.stores.ListActive(ctx)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
		}
		fresh := buildSnapshot(stores, s.opts.GeohashThreshold, s.now())
		if s.generation.Load() == gen {
			s.snapshot.Store(fresh)
		}
		metrics.CatalogReloads.Inc()
		metrics.CatalogStores.Set(float64(fresh.located))
		span.SetAttributes(attribute.Int("catalog.located", fresh.located))
		return fresh, nil
	})
	if err != nil {
		if snap != nil {
			logging.FromContext(ctx).WarnContext(ctx, "catalog reload failed, serving stale snapshot", "error", err)
			return snap.index, nil
		}
		return nil, err
	}
	return v.(*catalogSnapshot).index, nil
}

func buildSnapshot(stores []domain.Store, geohashThreshold int, now time.Time) *catalogSnapshot {
	located := 0
	for _, st := range stores {
		if _, ok := st.Coordinate(); ok {
			located++
		}
	}
	snap := &catalogSnapshot{located: located, loadedAt: now}
	if located >= geohashThreshold {
		snap.index = proximity.NewGeohashIndex(stores)
	} else {
		snap.index = proximity.NewLinearIndex(stores)
	}
	return snap
}

func recordSearch(kind string, found int, expanded bool) {
	outcome := "found"
	if found == 0 {
		outcome = "empty"
	}
	metrics.NearbySearches.WithLabelValues(kind, outcome).Inc()
	if expanded {
		metrics.RadiusExpansions.WithLabelValues(kind).Inc()
	}
}

// nearbyCacheKey keys a page on the exact center, since distances and order
// depend on it, and on the catalog generation so that pages cached before a
// catalog change are never served after it.
func (s *StoreService) nearbyCacheKey(kind string, q NearbyQuery) string {
	return fmt.Sprintf("%s:nearby:g%d:%s:%s:%s:%d:%d:%t",
		kind, s.generation.Load(),
		strconv.FormatFloat(q.Center.Lat, 'f', -1, 64), strconv.FormatFloat(q.Center.Lon, 'f', -1, 64),
		formatRadius(q.RadiusKm), q.Limit, q.Offset, q.Expand)
}

func formatRadius(km float64) string {
	return fmt.Sprintf("%.3f", math.Round(km*1000)/1000)
}

func storeCacheKey(id string) string {
	return "stores:id:" + id
}
