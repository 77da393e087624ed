package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/localmart/storefront/internal/core/domain"
)

// Options configures the Google Maps client.
type Options struct {
	APIKey string
	// BaseURL overrides the API host, for tests and proxies.
	BaseURL   string
	Region    string
	RateLimit int
	Timeout   time.Duration
}

func newClient(opts Options) (*maps.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(opts.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if opts.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(opts.RateLimit))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}
	c, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return c, nil
}

// Geocoder implements ports.Geocoder with the Google Geocoding API.
type Geocoder struct {
	client *maps.Client
	region string
}

// NewGeocoder creates a Geocoder.
func NewGeocoder(opts Options) (*Geocoder, error) {
	c, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return &Geocoder{client: c, region: opts.Region}, nil
}

// Geocode returns the best match for address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address, Region: g.region})
	if err != nil {
		return domain.GeocodeResult{}, classify(err)
	}
	if len(results) == 0 {
		return domain.GeocodeResult{}, fmt.Errorf("%w: %q", domain.ErrGeocodeNotFound, address)
	}

	best := results[0]
	return domain.GeocodeResult{
		Location: domain.Coordinate{
			Lat: best.Geometry.Location.Lat,
			Lon: best.Geometry.Location.Lng,
		},
		FormattedAddress: best.FormattedAddress,
		PlaceID:          best.PlaceID,
		Partial:          best.PartialMatch,
	}, nil
}

// ReverseGeocode returns the formatted address closest to c.
func (g *Geocoder) ReverseGeocode(ctx context.Context, c domain.Coordinate) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: c.Lat, Lng: c.Lon},
	})
	if err != nil {
		return "", classify(err)
	}
	for _, r := range results {
		if r.FormattedAddress != "" {
			return r.FormattedAddress, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrGeocodeNotFound, c)
}

// classify maps client errors onto the domain taxonomy. The client reports
// API statuses as "maps: STATUS - message".
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrGeocodeServiceError, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "INVALID_REQUEST"):
		return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, msg)
	case strings.Contains(msg, "NOT_FOUND"):
		return fmt.Errorf("%w: %s", domain.ErrGeocodeNotFound, msg)
	default:
		return fmt.Errorf("%w: %w", domain.ErrGeocodeServiceError, err)
	}
}
