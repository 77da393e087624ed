package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/codes"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/pkg/logging"
	"github.com/localmart/storefront/internal/pkg/metrics"
)

// LocationService turns device readings and free-text addresses into coordinates.
type LocationService struct {
	locator  ports.DeviceLocator
	geocoder ports.Geocoder
	cache    ports.CacheService
	opts     LocationOptions
}

// NewLocationService creates a new LocationService. Any dependency may be nil;
// the matching operation then reports the capability as unavailable.
func NewLocationService(locator ports.DeviceLocator, geocoder ports.Geocoder, cache ports.CacheService, opts LocationOptions) *LocationService {
	if opts.GeocodeAttempts < 1 {
		opts.GeocodeAttempts = 1
	}
	return &LocationService{locator: locator, geocoder: geocoder, cache: cache, opts: opts}
}

type deviceFix struct {
	coord domain.Coordinate
	err   error
}

// ResolveFromDevice asks the device locator for a single fix. It returns
// once the locator answers, the timeout elapses or ctx is cancelled; the
// locator sees the same cancellation.
func (s *LocationService) ResolveFromDevice(ctx context.Context) (domain.Coordinate, error) {
	ctx, span := tracer.Start(ctx, "LocationService.ResolveFromDevice")
	defer span.End()

	if s.locator == nil {
		metrics.DeviceLocates.WithLabelValues("unsupported").Inc()
		return domain.Coordinate{}, fmt.Errorf("%w: no location device configured", domain.ErrLocationUnavailable)
	}

	if s.opts.DeviceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DeviceTimeout)
		defer cancel()
	}

	fixes := make(chan deviceFix, 1)
	go func() {
		c, err := s.locator.Locate(ctx)
		fixes <- deviceFix{coord: c, err: err}
	}()

	select {
	case <-ctx.Done():
		outcome := "cancelled"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.DeviceLocates.WithLabelValues(outcome).Inc()
		span.SetStatus(codes.Error, outcome)
		return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, ctx.Err())
	case fix := <-fixes:
		if fix.err != nil {
			metrics.DeviceLocates.WithLabelValues("error").Inc()
			span.SetStatus(codes.Error, fix.err.Error())
			if errors.Is(fix.err, domain.ErrLocationUnavailable) {
				return domain.Coordinate{}, fix.err
			}
			return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, fix.err)
		}
		if err := fix.coord.Validate(); err != nil {
			metrics.DeviceLocates.WithLabelValues("invalid").Inc()
			return domain.Coordinate{}, fmt.Errorf("%w: device reported %s", domain.ErrLocationUnavailable, err)
		}
		metrics.DeviceLocates.WithLabelValues("ok").Inc()
		return fix.coord, nil
	}
}

// ResolveFromAddress geocodes a free-text address to a coordinate.
func (s *LocationService) ResolveFromAddress(ctx context.Context, address string) (domain.Coordinate, error) {
	res, err := s.Geocode(ctx, address)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return res.Location, nil
}

// Geocode is ResolveFromAddress returning the full geocoder answer.
// Service errors are retried with exponential backoff; not-found is final.
func (s *LocationService) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	ctx, span := tracer.Start(ctx, "LocationService.Geocode")
	defer span.End()

	address = NormalizeAddress(address)
	if address == "" {
		return domain.GeocodeResult{}, domain.InvalidArgument("address must not be empty")
	}
	if s.geocoder == nil {
		return domain.GeocodeResult{}, fmt.Errorf("%w: no geocoder configured", domain.ErrGeocodeServiceError)
	}

	cacheKey := "geocode:fwd:" + strings.ToLower(address)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res domain.GeocodeResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return res, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	var res domain.GeocodeResult
	lookup := func() error {
		r, err := s.geocoder.Geocode(ctx, address)
		if err != nil {
			err = classifyGeocodeError(err)
			if !errors.Is(err, domain.ErrGeocodeServiceError) {
				return backoff.Permanent(err)
			}
			logging.FromContext(ctx).WarnContext(ctx, "geocode attempt failed", "error", err)
			return err
		}
		if err := r.Location.Validate(); err != nil {
			return fmt.Errorf("%w: geocoder returned %s", domain.ErrGeocodeServiceError, err)
		}
		res = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.GeocodeBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.GeocodeAttempts-1)), ctx)
	if err := backoff.Retry(lookup, policy); err != nil {
		err = classifyGeocodeError(err)
		metrics.GeocodeRequests.WithLabelValues("forward", geocodeOutcome(err)).Inc()
		span.SetStatus(codes.Error, err.Error())
		return domain.GeocodeResult{}, err
	}
	metrics.GeocodeRequests.WithLabelValues("forward", "ok").Inc()

	if s.cache != nil && s.opts.GeocodeCacheTTL > 0 {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, int(s.opts.GeocodeCacheTTL.Seconds()))
		}
	}
	return res, nil
}

// DescribeCoordinate returns a human-readable label for c. It never fails:
// without a usable reverse-geocoding answer the label is the formatted
// coordinate itself.
func (s *LocationService) DescribeCoordinate(ctx context.Context, c domain.Coordinate) string {
	if s.geocoder == nil || c.Validate() != nil {
		return c.String()
	}

	label, err := s.geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("reverse", geocodeOutcome(classifyGeocodeError(err))).Inc()
		logging.FromContext(ctx).DebugContext(ctx, "reverse geocode failed", "coordinate", c.String(), "error", err)
		return c.String()
	}
	label = strings.TrimSpace(label)
	if label == "" {
		metrics.GeocodeRequests.WithLabelValues("reverse", "not_found").Inc()
		return c.String()
	}
	metrics.GeocodeRequests.WithLabelValues("reverse", "ok").Inc()
	return label
}

// NormalizeAddress trims address and collapses internal whitespace.
func NormalizeAddress(address string) string {
	return strings.Join(strings.Fields(address), " ")
}

func classifyGeocodeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrGeocodeNotFound),
		errors.Is(err, domain.ErrGeocodeServiceError),
		errors.Is(err, domain.ErrInvalidArgument):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrGeocodeServiceError, err)
	}
}

func geocodeOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrGeocodeNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}
