package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed input. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidCoordinate is an ErrInvalidArgument for out-of-range lat/lon.
	ErrInvalidCoordinate = fmt.Errorf("%w: invalid coordinate", ErrInvalidArgument)

	ErrNotFound = errors.New("not found")

	// ErrLocationUnavailable means the device position could not be obtained:
	// no capability, permission denied, no fix, timeout or cancellation.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrGeocodeNotFound is terminal for the address that produced it.
	ErrGeocodeNotFound = errors.New("geocode: no match")

	// ErrGeocodeServiceError is transient; callers may retry with backoff.
	ErrGeocodeServiceError = errors.New("geocode: service error")

	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// InvalidArgument wraps a message as ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
