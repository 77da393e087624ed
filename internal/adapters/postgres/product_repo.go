package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
)

// ProductRepo implements ports.ProductRepository with pgx.
type ProductRepo struct {
	db *DB
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const upsertProductSQL = `
	INSERT INTO products (id, store_id, name, description, category, price_cents, currency,
	                      stock, status, image_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE
	SET store_id = EXCLUDED.store_id, name = EXCLUDED.name, description = EXCLUDED.description,
	    category = EXCLUDED.category, price_cents = EXCLUDED.price_cents,
	    currency = EXCLUDED.currency, stock = EXCLUDED.stock, status = EXCLUDED.status,
	    image_url = EXCLUDED.image_url
`

const productColumns = `
	id, store_id, name, COALESCE(description, ''), COALESCE(category, ''), price_cents, currency,
	stock, status, COALESCE(image_url, ''), created_at
`

func productArgs(p *domain.Product) []any {
	return []any{
		p.ID, p.StoreID, p.Name, p.Description, p.Category, p.PriceCents, p.Currency,
		p.Stock, p.Status, p.ImageURL, p.CreatedAt,
	}
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Category, &p.PriceCents, &p.Currency,
		&p.Stock, &p.Status, &p.ImageURL, &p.CreatedAt,
	)
	return p, err
}

// Upsert inserts or updates a single product.
func (r *ProductRepo) Upsert(ctx context.Context, p *domain.Product) error {
	_, err := r.db.Pool.Exec(ctx, upsertProductSQL, productArgs(p)...)
	return err
}

// UpsertBatch inserts many products using pgx.Batch.
func (r *ProductRepo) UpsertBatch(ctx context.Context, products []domain.Product) error {
	batch := &pgx.Batch{}
	for i := range products {
		batch.Queue(upsertProductSQL, productArgs(&products[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range products {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

// ListActiveByStores returns active products of the given stores matching filter.
// Query matches the name or description with full-text search or a substring.
func (r *ProductRepo) ListActiveByStores(ctx context.Context, storeIDs []string, filter ports.ProductFilter) ([]domain.Product, error) {
	if len(storeIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE store_id = ANY($1)
		  AND status = $2
		  AND ($3 = '' OR category = $3)
		  AND ($4 = '' OR search_vector @@ plainto_tsquery('simple', $4) OR name ILIKE '%' || $4 || '%')
		  AND (NOT $5 OR stock > 0)
		ORDER BY store_id, name, id
	`, storeIDs, domain.ProductActive, filter.Category, filter.Query, filter.InStockOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
