package proximity_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/proximity"
)

func randomCatalog(rng *rand.Rand, n int, lat, lon, spread float64) []place {
	catalog := make([]place, 0, n)
	for i := 0; i < n; i++ {
		if i%17 == 0 {
			catalog = append(catalog, place{id: fmt.Sprintf("nowhere-%d", i)})
			continue
		}
		catalog = append(catalog, at(fmt.Sprintf("s-%04d", i),
			lat+(rng.Float64()*2-1)*spread,
			lon+(rng.Float64()*2-1)*spread))
	}
	return catalog
}

func TestGeohashIndex_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	catalog := randomCatalog(rng, 2000, 43.26, -2.93, 0.5)

	linear := proximity.NewLinearIndex(catalog)
	geo := proximity.NewGeohashIndex(catalog)
	assert.Equal(t, len(catalog), geo.Len())
	assert.Equal(t, len(catalog), linear.Len())

	for i := 0; i < 50; i++ {
		req := proximity.SearchRequest{
			Center:   domain.Coordinate{Lat: 43.26 + (rng.Float64()*2-1)*0.5, Lon: -2.93 + (rng.Float64()*2-1)*0.5},
			RadiusKm: []float64{0.2, 1, 3, 10, 80}[i%5],
		}
		want, err := linear.Nearby(req)
		require.NoError(t, err)
		got, err := geo.Nearby(req)
		require.NoError(t, err)

		assert.Equal(t, ids(proximity.Rank(want)), ids(proximity.Rank(got)), "radius %v", req.RadiusKm)
	}
}

func TestGeohashIndex_Antimeridian(t *testing.T) {
	catalog := []place{at("east", 0, 179.99), at("west", 0, -179.99), at("far", 0, 170)}
	geo := proximity.NewGeohashIndex(catalog)

	got, err := geo.Nearby(proximity.SearchRequest{Center: domain.Coordinate{Lat: 0, Lon: 179.999}, RadiusKm: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "west"}, ids(proximity.Rank(got)))
}

func TestGeohashIndex_LargeRadiusFallsBack(t *testing.T) {
	catalog := []place{at("ny", newYork.Lat, newYork.Lon), at("ldn", london.Lat, london.Lon)}
	geo := proximity.NewGeohashIndex(catalog)

	got, err := geo.Nearby(proximity.SearchRequest{Center: newYork, RadiusKm: 6000})
	require.NoError(t, err)
	assert.Equal(t, []string{"ny", "ldn"}, ids(proximity.Rank(got)))
}

func TestGeohashIndex_InvalidRequest(t *testing.T) {
	geo := proximity.NewGeohashIndex([]place{at("a", 0, 0)})
	_, err := geo.Nearby(proximity.SearchRequest{Center: newYork})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
