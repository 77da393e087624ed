package geospatial

import (
	"math"
	"strings"
)

// Geohash cell sizes by precision (approximate, at the equator):
//
//	1 → ~5000 km    4 → ~39 km     7 → ~153 m
//	2 → ~1250 km    5 → ~5 km      8 → ~38 m
//	3 → ~156 km     6 → ~1.2 km    9 → ~5 m
const (
	base32       = "0123456789bcdefghjkmnpqrstuvwxyz"
	MaxPrecision = 9
)

var base32Index [256]int8

func init() {
	for i := range base32Index {
		base32Index[i] = -1
	}
	for i := 0; i < len(base32); i++ {
		base32Index[base32[i]] = int8(i)
	}
}

// Encode converts latitude and longitude to a geohash of the given precision.
// Precision is clamped to [1, MaxPrecision].
func Encode(lat, lon float64, precision int) string {
	precision = clampPrecision(precision)

	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0

	var hash strings.Builder
	hash.Grow(precision)
	isLon := true
	bit, ch := 0, 0

	for hash.Len() < precision {
		if isLon {
			mid := (minLon + maxLon) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				minLon = mid
			} else {
				maxLon = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		isLon = !isLon
		bit++
		if bit == 5 {
			hash.WriteByte(base32[ch])
			bit, ch = 0, 0
		}
	}
	return hash.String()
}

// DecodeBounds returns the cell covered by hash. Unknown characters are skipped.
func DecodeBounds(hash string) (minLat, minLon, maxLat, maxLon float64) {
	minLat, maxLat = -90.0, 90.0
	minLon, maxLon = -180.0, 180.0
	isLon := true

	for i := 0; i < len(hash); i++ {
		cd := base32Index[hash[i]]
		if cd < 0 {
			continue
		}
		for j := 4; j >= 0; j-- {
			bit := (cd >> j) & 1
			if isLon {
				mid := (minLon + maxLon) / 2
				if bit == 1 {
					minLon = mid
				} else {
					maxLon = mid
				}
			} else {
				mid := (minLat + maxLat) / 2
				if bit == 1 {
					minLat = mid
				} else {
					maxLat = mid
				}
			}
			isLon = !isLon
		}
	}
	return minLat, minLon, maxLat, maxLon
}

// Decode returns the center of the cell covered by hash.
func Decode(hash string) (lat, lon float64) {
	minLat, minLon, maxLat, maxLon := DecodeBounds(hash)
	return (minLat + maxLat) / 2, (minLon + maxLon) / 2
}

// CellSize returns the height and width in degrees of a cell at precision.
func CellSize(precision int) (latDeg, lonDeg float64) {
	bits := 5 * clampPrecision(precision)
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Exp2(float64(latBits)), 360 / math.Exp2(float64(lonBits))
}

// Neighbors returns the center cell followed by its existing neighbours
// (up to 8). Longitude wraps across the antimeridian; cells beyond a pole
// are omitted. The result has no duplicates.
func Neighbors(hash string) []string {
	if hash == "" {
		return nil
	}
	lat, lon := Decode(hash)
	h, w := CellSize(len(hash))

	out := make([]string, 0, 9)
	seen := make(map[string]struct{}, 9)
	out = append(out, hash)
	seen[hash] = struct{}{}

	for _, dy := range []float64{-1, 0, 1} {
		nLat := lat + dy*h
		if nLat > 90 || nLat < -90 {
			continue
		}
		for _, dx := range []float64{-1, 0, 1} {
			if dx == 0 && dy == 0 {
				continue
			}
			nLon := wrapLon(lon + dx*w)
			gh := Encode(nLat, nLon, len(hash))
			if _, dup := seen[gh]; dup {
				continue
			}
			seen[gh] = struct{}{}
			out = append(out, gh)
		}
	}
	return out
}

// PrecisionForRadius returns the finest precision whose 3×3 neighbourhood
// around a point at lat is guaranteed to contain every point within radiusKm.
// It returns 0 when no precision can guarantee that (very large radii or
// circles that reach a pole); callers should scan linearly in that case.
func PrecisionForRadius(lat, radiusKm float64) int {
	if radiusKm <= 0 {
		return MaxPrecision
	}
	dLon, ok := MaxLonDeltaDeg(lat, radiusKm)
	if !ok {
		return 0
	}
	dLat := radiusKm / KmPerDegree
	for p := MaxPrecision; p >= 1; p-- {
		h, w := CellSize(p)
		if h >= dLat && w >= dLon {
			return p
		}
	}
	return 0
}

func wrapLon(lon float64) float64 {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func clampPrecision(p int) int {
	if p <= 0 {
		return 6
	}
	if p > MaxPrecision {
		return MaxPrecision
	}
	return p
}
