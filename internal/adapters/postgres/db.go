package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localmart/storefront/internal/core/domain"
)

// DB wraps pgxpool.Pool and provides a shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 50

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return err
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// lonLat splits an optional coordinate into nullable query parameters.
func lonLat(c *domain.Coordinate) (lon, lat *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Lon, &c.Lat
}

// coordinate rebuilds an optional coordinate from nullable columns.
func coordinate(lat, lon *float64) *domain.Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &domain.Coordinate{Lat: *lat, Lon: *lon}
}
