package googlemaps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/localmart/storefront/internal/core/domain"
)

// GeolocationLocator implements ports.DeviceLocator with the Google
// Geolocation API, estimating the position from the caller's IP address.
type GeolocationLocator struct {
	client *maps.Client
}

// NewGeolocationLocator creates a GeolocationLocator.
func NewGeolocationLocator(opts Options) (*GeolocationLocator, error) {
	c, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return &GeolocationLocator{client: c}, nil
}

// Locate asks the Geolocation API for the current position.
func (l *GeolocationLocator) Locate(ctx context.Context) (domain.Coordinate, error) {
	resp, err := l.client.Geolocate(ctx, &maps.GeolocationRequest{ConsiderIP: true})
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: geolocate: %w", domain.ErrLocationUnavailable, err)
	}
	return domain.Coordinate{Lat: resp.Location.Lat, Lon: resp.Location.Lng}, nil
}
