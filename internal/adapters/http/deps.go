package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/localmart/storefront/internal/core/usecases"
)

// Pinger is a backing service that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all injected services for handlers.
type Dependencies struct {
	Stores    *usecases.StoreService
	Products  *usecases.ProductService
	Locations *usecases.LocationService
	Catalog   *usecases.CatalogService

	// DefaultRadiusKm applies when a nearby query omits radius_km.
	DefaultRadiusKm float64

	NATS  *nats.Conn
	DB    Pinger
	Cache Pinger
}

func (d *Dependencies) defaultRadius() float64 {
	if d.DefaultRadiusKm > 0 {
		return d.DefaultRadiusKm
	}
	return 5
}
