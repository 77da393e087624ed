package geospatial

import "math"

// EarthRadiusKm is the mean Earth radius used by every distance in this package.
const EarthRadiusKm = 6371.0

// KmPerDegree is the length of one degree of arc on the mean-radius sphere.
const KmPerDegree = EarthRadiusKm * math.Pi / 180

// HaversineKm calculates the great-circle distance in kilometers between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a a hair above 1 for antipodal points.
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// MaxLonDeltaDeg returns the largest longitude difference, in degrees, of any
// point within radiusKm of a point at latitude lat. ok is false when the circle
// reaches a pole, in which case every longitude is reachable.
func MaxLonDeltaDeg(lat, radiusKm float64) (deg float64, ok bool) {
	s := math.Sin(radiusKm/EarthRadiusKm) / math.Cos(toRad(lat))
	if radiusKm/EarthRadiusKm >= math.Pi/2 || s >= 1 || s < 0 {
		return 180, false
	}
	return toDeg(math.Asin(s)), true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
