package usecases

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/proximity"
	"github.com/localmart/storefront/internal/pkg/metrics"
)

// ProductService answers "which products are for sale near this point".
//
// Every store in range is ranked first; products are then fetched in ranked
// order, at most ProductBatchSize stores per repository call, so no nearby
// store is dropped before ranking.
type ProductService struct {
	stores   *StoreService
	products ports.ProductRepository
	opts     DiscoveryOptions
}

// NewProductService creates a new ProductService.
func NewProductService(stores *StoreService, products ports.ProductRepository, opts DiscoveryOptions) *ProductService {
	return &ProductService{stores: stores, products: products, opts: opts}
}

// FindNearby returns one page of active products sold by stores within range,
// ordered by store distance, then store ID, product name and product ID.
func (s *ProductService) FindNearby(ctx context.Context, q NearbyQuery, filter ports.ProductFilter) (*domain.NearbyProductResult, error) {
	ctx, span := tracer.Start(ctx, "ProductService.FindNearby")
	defer span.End()

	q, err := s.stores.normalize(q)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	found, _, err := s.stores.search(ctx, q)
	if err != nil {
		metrics.NearbySearches.WithLabelValues("products", "error").Inc()
		return nil, err
	}

	items, err := s.collect(ctx, found.Matches, filter)
	if err != nil {
		metrics.NearbySearches.WithLabelValues("products", "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	recordSearch("products", len(items), found.Expanded)

	res := &domain.NearbyProductResult{
		Products:          window(items, q.Offset, q.Limit),
		Center:            q.Center,
		RequestedRadiusKm: found.RequestedRadiusKm,
		RadiusKm:          found.RadiusKm,
		Expanded:          found.Expanded,
		StoresScanned:     len(found.Matches),
		Offset:            q.Offset,
		Limit:             q.Limit,
		Total:             len(items),
	}
	span.SetAttributes(
		attribute.Int("discovery.stores_scanned", res.StoresScanned),
		attribute.Int("discovery.total", res.Total),
	)
	return res, nil
}

func (s *ProductService) collect(ctx context.Context, ranked []proximity.Match[domain.Store], filter ports.ProductFilter) ([]domain.NearbyProduct, error) {
	batch := s.opts.ProductBatchSize
	if batch <= 0 {
		batch = 10
	}

	byStore := make(map[string]proximity.Match[domain.Store], len(ranked))
	for _, m := range ranked {
		byStore[m.Entity.ID] = m
	}

	var out []domain.NearbyProduct
	for start := 0; start < len(ranked); start += batch {
		chunk := ranked[start:min(start+batch, len(ranked))]
		ids := make([]string, len(chunk))
		for i, m := range chunk {
			ids[i] = m.Entity.ID
		}

		products, err := s.products.ListActiveByStores(ctx, ids, filter)
		if err != nil {
			return nil, fmt.Errorf("list products for stores %d-%d: %w", start, start+len(chunk), err)
		}
		for _, p := range products {
			m, ok := byStore[p.StoreID]
			if !ok || p.Status != domain.ProductActive {
				continue
			}
			if filter.InStockOnly && p.Stock <= 0 {
				continue
			}
			loc, _ := m.Entity.Coordinate()
			out = append(out, domain.NearbyProduct{
				Product: p,
				Store: domain.StoreSummary{
					ID:       m.Entity.ID,
					Name:     m.Entity.Name,
					Slug:     m.Entity.Slug,
					Location: loc,
				},
				DistanceKm: m.DistanceKm,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b domain.NearbyProduct) int {
		return cmp.Or(
			cmp.Compare(a.DistanceKm, b.DistanceKm),
			cmp.Compare(a.Store.ID, b.Store.ID),
			cmp.Compare(a.Product.Name, b.Product.Name),
			cmp.Compare(a.Product.ID, b.Product.ID),
		)
	})
	return out, nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
