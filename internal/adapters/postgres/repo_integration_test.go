//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmart/storefront/internal/adapters/postgres"
	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/pkg/config"
)

// setupTestDB connects to the database named by LOCALMART_DATABASE_* and
// expects migrations to have been applied.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Setenv("LOCALMART_GEOCODER_PROVIDER", "none")
	cfg, err := config.Load("storefront-test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func seedStore(t *testing.T, db *postgres.DB, name string, loc *domain.Coordinate) domain.Store {
	repo := postgres.NewStoreRepo(db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	s := domain.Store{
		ID:        uuid.NewString(),
		Slug:      "it-" + uuid.NewString(),
		Name:      name,
		Address:   "1 Test Street",
		Status:    domain.StoreActive,
		Location:  loc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Upsert(context.Background(), &s))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM stores WHERE id = $1`, s.ID)
	})
	return s
}

func TestStoreRepo_NullableLocation(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewStoreRepo(db)
	ctx := context.Background()

	located := seedStore(t, db, "Located", &domain.Coordinate{Lat: 40.4168, Lon: -3.7038})
	unlocated := seedStore(t, db, "Unlocated", nil)

	got, err := repo.GetByID(ctx, located.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.True(t, got.Location.Equal(*located.Location, 1e-9))

	got, err = repo.GetByID(ctx, unlocated.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Location)

	missing, err := repo.ListMissingLocation(ctx, 1000)
	require.NoError(t, err)
	assert.Contains(t, ids(missing), unlocated.ID)
	assert.NotContains(t, ids(missing), located.ID)

	require.NoError(t, repo.UpdateLocation(ctx, unlocated.ID, domain.Coordinate{Lat: 1, Lon: 2}))
	got, err = repo.GetByID(ctx, unlocated.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 2.0, got.Location.Lon, 1e-9)
}

func TestStoreRepo_NotFound(t *testing.T) {
	repo := postgres.NewStoreRepo(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.UpdateLocation(context.Background(), uuid.NewString(), domain.Coordinate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepo_ListActiveByStores(t *testing.T) {
	db := setupTestDB(t)
	products := postgres.NewProductRepo(db)
	ctx := context.Background()

	store := seedStore(t, db, "Bakery", &domain.Coordinate{Lat: 1, Lon: 1})
	now := time.Now().UTC()
	require.NoError(t, products.UpsertBatch(ctx, []domain.Product{
		{ID: uuid.NewString(), StoreID: store.ID, Name: "Sourdough loaf", Category: "bread", PriceCents: 450, Currency: "USD", Stock: 3, Status: domain.ProductActive, CreatedAt: now},
		{ID: uuid.NewString(), StoreID: store.ID, Name: "Rye loaf", Category: "bread", PriceCents: 400, Currency: "USD", Stock: 0, Status: domain.ProductActive, CreatedAt: now},
		{ID: uuid.NewString(), StoreID: store.ID, Name: "Secret loaf", Category: "bread", PriceCents: 999, Currency: "USD", Status: domain.ProductDraft, CreatedAt: now},
	}))

	all, err := products.ListActiveByStores(ctx, []string{store.ID}, ports.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	inStock, err := products.ListActiveByStores(ctx, []string{store.ID}, ports.ProductFilter{InStockOnly: true})
	require.NoError(t, err)
	require.Len(t, inStock, 1)
	assert.Equal(t, "Sourdough loaf", inStock[0].Name)

	byQuery, err := products.ListActiveByStores(ctx, []string{store.ID}, ports.ProductFilter{Query: "rye"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, "Rye loaf", byQuery[0].Name)
}

func ids(stores []domain.Store) []string {
	out := make([]string, len(stores))
	for i, s := range stores {
		out[i] = s.ID
	}
	return out
}
