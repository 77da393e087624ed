package ports

import (
	"context"
	"errors"

	"github.com/localmart/storefront/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder converts between free-text addresses and coordinates.
// Implementations report domain.ErrGeocodeNotFound when nothing matches and
// domain.ErrGeocodeServiceError for transport or quota failures.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeocodeResult, error)
	ReverseGeocode(ctx context.Context, c domain.Coordinate) (string, error)
}

// DeviceLocator reads the position of the device the service runs on.
// Locate must return promptly once ctx is done.
type DeviceLocator interface {
	Locate(ctx context.Context) (domain.Coordinate, error)
}

// EventPublisher publishes catalog events to a message broker.
type EventPublisher interface {
	PublishStoreEvent(ctx context.Context, event *domain.StoreEvent) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to catalog events from a message broker.
type EventSubscriber interface {
	SubscribeStoreEvents(ctx context.Context, handler func(ctx context.Context, event *domain.StoreEvent) error) error
}
