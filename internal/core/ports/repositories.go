package ports

import (
	"context"

	"github.com/localmart/storefront/internal/core/domain"
)

// StoreRepository persists stores. It is the catalog provider for discovery:
// results are eventually consistent and carry no ordering guarantee.
type StoreRepository interface {
	Upsert(ctx context.Context, store *domain.Store) error
	UpsertBatch(ctx context.Context, stores []domain.Store) error
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Store, error)
	// ListActive returns every active store, including stores without a location.
	ListActive(ctx context.Context) ([]domain.Store, error)
	ListMissingLocation(ctx context.Context, limit int) ([]domain.Store, error)
	UpdateLocation(ctx context.Context, id string, c domain.Coordinate) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Query    string
	// InStockOnly hides products with no stock left.
	InStockOnly bool
}

// ProductRepository persists products.
type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) error
	UpsertBatch(ctx context.Context, products []domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// ListActiveByStores returns active products of the given stores. Callers
	// must keep len(storeIDs) within the batch size the backend supports.
	ListActiveByStores(ctx context.Context, storeIDs []string, filter ProductFilter) ([]domain.Product, error)
}
