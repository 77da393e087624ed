package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/usecases"
)

// Application error types raised by the geocoding activities.
const (
	ErrTypeGeocodeNotFound = "GeocodeNotFound"
	ErrTypeInvalidArgument = "InvalidArgument"
)

// GeocodingActivities holds the activity implementations for GeocodeStoreWorkflow.
type GeocodingActivities struct {
	Geocoder ports.Geocoder
	Catalog  *usecases.CatalogService
}

// GeocodeAddress resolves a store address. Addresses that cannot match are
// reported as non-retryable application errors; everything else is left to
// the retry policy.
func (a *GeocodingActivities) GeocodeAddress(ctx context.Context, address string) (domain.GeocodeResult, error) {
	address = usecases.NormalizeAddress(address)
	if address == "" {
		return domain.GeocodeResult{}, temporal.NewNonRetryableApplicationError("empty address", ErrTypeInvalidArgument, nil)
	}
	if a.Geocoder == nil {
		return domain.GeocodeResult{}, errors.New("no geocoder configured")
	}

	res, err := a.Geocoder.Geocode(ctx, address)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrGeocodeNotFound):
		return domain.GeocodeResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeGeocodeNotFound, err)
	case errors.Is(err, domain.ErrInvalidArgument):
		return domain.GeocodeResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidArgument, err)
	default:
		activity.GetLogger(ctx).Warn("geocode failed", "attempt", activity.GetInfo(ctx).Attempt, "error", err)
		return domain.GeocodeResult{}, fmt.Errorf("geocode %q: %w", address, err)
	}

	if err := res.Location.Validate(); err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocoder returned %w", err)
	}
	return res, nil
}

// SaveStoreLocation persists the coordinate and announces it on the catalog stream.
func (a *GeocodingActivities) SaveStoreLocation(ctx context.Context, storeID string, c domain.Coordinate) error {
	err := a.Catalog.SaveStoreLocation(ctx, storeID, c)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidArgument, err)
	default:
		return fmt.Errorf("save location of store %s: %w", storeID, err)
	}
}
