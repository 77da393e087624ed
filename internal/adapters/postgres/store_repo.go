package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/localmart/storefront/internal/core/domain"
)

// StoreRepo implements ports.StoreRepository with pgx and PostGIS.
type StoreRepo struct {
	db *DB
}

// NewStoreRepo creates a new StoreRepo.
func NewStoreRepo(db *DB) *StoreRepo {
	return &StoreRepo{db: db}
}

const upsertStoreSQL = `
	INSERT INTO stores (id, seller_id, slug, name, description, category, address, phone, image_url,
	                    status, location, metadata, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	        CASE WHEN $11::float8 IS NULL OR $12::float8 IS NULL THEN NULL
	             ELSE ST_SetSRID(ST_MakePoint($11, $12), 4326)::geography END,
	        $13, $14, $15)
	ON CONFLICT (id) DO UPDATE
	SET seller_id = EXCLUDED.seller_id, slug = EXCLUDED.slug, name = EXCLUDED.name,
	    description = EXCLUDED.description, category = EXCLUDED.category,
	    address = EXCLUDED.address, phone = EXCLUDED.phone, image_url = EXCLUDED.image_url,
	    status = EXCLUDED.status,
	    location = COALESCE(EXCLUDED.location, stores.location),
	    metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at
`

// storeColumns must stay in step with scanStore.
const storeColumns = `
	id, COALESCE(seller_id, ''), slug, name, COALESCE(description, ''), COALESCE(category, ''),
	COALESCE(address, ''), COALESCE(phone, ''), COALESCE(image_url, ''), status,
	ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon,
	COALESCE(metadata, '{}'), created_at, updated_at
`

func storeArgs(s *domain.Store) []any {
	lon, lat := lonLat(s.Location)
	return []any{
		s.ID, nilIfEmpty(s.SellerID), s.Slug, s.Name, s.Description, s.Category,
		s.Address, s.Phone, s.ImageURL, s.Status, lon, lat,
		s.Metadata, s.CreatedAt, s.UpdatedAt,
	}
}

func scanStore(row pgx.Row) (domain.Store, error) {
	var s domain.Store
	var lat, lon *float64
	err := row.Scan(
		&s.ID, &s.SellerID, &s.Slug, &s.Name, &s.Description, &s.Category,
		&s.Address, &s.Phone, &s.ImageURL, &s.Status,
		&lat, &lon,
		&s.Metadata, &s.CreatedAt, &s.UpdatedAt,
	)
	s.Location = coordinate(lat, lon)
	return s, err
}

// Upsert inserts or updates a single store. A nil location never erases a
// stored one.
func (r *StoreRepo) Upsert(ctx context.Context, s *domain.Store) error {
	_, err := r.db.Pool.Exec(ctx, upsertStoreSQL, storeArgs(s)...)
	return err
}

// UpsertBatch inserts many stores using pgx.Batch.
func (r *StoreRepo) UpsertBatch(ctx context.Context, stores []domain.Store) error {
	batch := &pgx.Batch{}
	for i := range stores {
		batch.Queue(upsertStoreSQL, storeArgs(&stores[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range stores {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a store by ID.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	s, err := scanStore(r.db.Pool.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "store", id)
	}
	return &s, nil
}

// GetByIDs returns multiple stores by ID, ordered by name.
func (r *StoreRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ANY($1) ORDER BY name`, ids)
}

// ListActive returns every active store, located or not.
func (r *StoreRepo) ListActive(ctx context.Context) ([]domain.Store, error) {
	return r.list(ctx, `SELECT `+storeColumns+` FROM stores WHERE status = $1`, domain.StoreActive)
}

// ListMissingLocation returns stores that have an address but no coordinate yet.
func (r *StoreRepo) ListMissingLocation(ctx context.Context, limit int) ([]domain.Store, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `
		SELECT `+storeColumns+`
		FROM stores
		WHERE location IS NULL AND COALESCE(address, '') <> ''
		ORDER BY created_at
		LIMIT $1
	`, limit)
}

// UpdateLocation sets the coordinate of a store.
func (r *StoreRepo) UpdateLocation(ctx context.Context, id string, c domain.Coordinate) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE stores
		SET location = ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, updated_at = now()
		WHERE id = $1
	`, id, c.Lon, c.Lat)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *StoreRepo) list(ctx context.Context, query string, args ...any) ([]domain.Store, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}
