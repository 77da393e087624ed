package usecases

import (
	"time"

	"github.com/localmart/storefront/internal/core/proximity"
)

// DiscoveryOptions tunes the store and product discovery services.
type DiscoveryOptions struct {
	DefaultLimit int
	MaxLimit     int
	MaxRadiusKm  float64
	// CatalogTTL bounds how long a catalog snapshot is served before reloading.
	CatalogTTL time.Duration
	// GeohashThreshold is the located-store count at which snapshots switch
	// from a linear scan to a geohash index. Zero always uses the geohash index.
	GeohashThreshold int
	ProductBatchSize int
	Expansion        proximity.ExpansionPolicy
	// ResultCacheTTL is the lifetime of cached nearby pages, in seconds.
	ResultCacheTTL int
}

// DefaultDiscoveryOptions returns the production defaults.
func DefaultDiscoveryOptions() DiscoveryOptions {
	return DiscoveryOptions{
		DefaultLimit:     20,
		MaxLimit:         100,
		MaxRadiusKm:      proximity.DefaultMaxRadiusKm,
		CatalogTTL:       30 * time.Second,
		GeohashThreshold: 500,
		ProductBatchSize: 10,
		Expansion:        proximity.DefaultExpansionPolicy(),
		ResultCacheTTL:   60,
	}
}

// LocationOptions tunes the LocationService.
type LocationOptions struct {
	DeviceTimeout time.Duration
	// GeocodeAttempts caps forward geocoding attempts, including the first.
	GeocodeAttempts int
	GeocodeBackoff  time.Duration
	GeocodeCacheTTL time.Duration
}

// DefaultLocationOptions returns the production defaults.
func DefaultLocationOptions() LocationOptions {
	return LocationOptions{
		DeviceTimeout:   12 * time.Second,
		GeocodeAttempts: 3,
		GeocodeBackoff:  200 * time.Millisecond,
		GeocodeCacheTTL: 24 * time.Hour,
	}
}
