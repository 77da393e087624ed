package domain

import (
	"fmt"
	"math"
)

// Coordinate is a WGS 84 position in signed decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate builds a validated Coordinate.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate reports ErrInvalidCoordinate when either component is out of range
// or not a finite number.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// String formats the coordinate as "lat, lng". It doubles as the label used
// when reverse geocoding is unavailable.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lon)
}

// Equal reports whether both coordinates are within tol degrees of each other.
func (c Coordinate) Equal(o Coordinate, tol float64) bool {
	return math.Abs(c.Lat-o.Lat) <= tol && math.Abs(c.Lon-o.Lon) <= tol
}

// GeocodeResult is a forward geocoding hit.
type GeocodeResult struct {
	Location         Coordinate `json:"location"`
	FormattedAddress string     `json:"formatted_address,omitempty"`
	PlaceID          string     `json:"place_id,omitempty"`
	Partial          bool       `json:"partial,omitempty"`
}
