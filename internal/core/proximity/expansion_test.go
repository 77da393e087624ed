package proximity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/proximity"
)

func TestExpansionPolicy_Next(t *testing.T) {
	p := proximity.DefaultExpansionPolicy()

	tests := []struct {
		current float64
		want    float64
		ok      bool
	}{
		{0.001, 1, true},
		{1, 2, true},
		{3, 5, true},
		{25, 50, true},
		{49, 50, true},
		{50, 0, false},
		{75, 0, false},
	}
	for _, tt := range tests {
		got, ok := p.Next(tt.current)
		assert.Equal(t, tt.ok, ok, "current %v", tt.current)
		assert.Equal(t, tt.want, got, "current %v", tt.current)
	}
}

func TestExpansionPolicy_CeilingBelowSteps(t *testing.T) {
	p := proximity.ExpansionPolicy{StepsKm: []float64{5, 1, 20}, MaxRadiusKm: 8}
	next, ok := p.Next(1)
	require.True(t, ok)
	assert.Equal(t, 5.0, next)
	next, ok = p.Next(5)
	require.True(t, ok)
	assert.Equal(t, 8.0, next)
	_, ok = p.Next(8)
	assert.False(t, ok)
}

func TestSearch_NoExpansionWithoutPolicy(t *testing.T) {
	idx := proximity.NewLinearIndex([]place{at("A", 40.70, -74.00)})
	res, err := proximity.Search[place](idx, proximity.SearchRequest{Center: domain.Coordinate{Lat: 40.71, Lon: -74.01}, RadiusKm: 0.001}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.False(t, res.Expanded)
	assert.Equal(t, 0.001, res.RadiusKm)
}

func TestSearch_ExpandsUntilFound(t *testing.T) {
	catalog := []place{at("A", 40.70, -74.00), at("B", 40.75, -74.10), {id: "C"}}
	idx := proximity.NewGeohashIndex(catalog)
	policy := proximity.DefaultExpansionPolicy()

	res, err := proximity.Search[place](idx, proximity.SearchRequest{Center: domain.Coordinate{Lat: 40.71, Lon: -74.01}, RadiusKm: 0.001}, &policy)
	require.NoError(t, err)
	assert.True(t, res.Expanded)
	assert.Equal(t, 0.001, res.RequestedRadiusKm)
	// A is ~1.4 km away, so the 2 km step is the first to find it.
	assert.Equal(t, 2.0, res.RadiusKm)
	assert.Equal(t, []string{"A"}, ids(res.Matches))
}

func TestSearch_ExpansionStopsAtCeiling(t *testing.T) {
	idx := proximity.NewLinearIndex([]place{at("far", 0, 10)})
	policy := proximity.DefaultExpansionPolicy()

	res, err := proximity.Search[place](idx, proximity.SearchRequest{Center: domain.Coordinate{Lat: 0, Lon: 0}, RadiusKm: 0.5}, &policy)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.True(t, res.Expanded)
	assert.Equal(t, proximity.DefaultMaxRadiusKm, res.RadiusKm)
}

func TestSearch_NonEmptyIsNotExpanded(t *testing.T) {
	idx := proximity.NewLinearIndex([]place{at("A", 40.70, -74.00)})
	policy := proximity.DefaultExpansionPolicy()

	res, err := proximity.Search[place](idx, proximity.SearchRequest{Center: domain.Coordinate{Lat: 40.71, Lon: -74.01}, RadiusKm: 10}, &policy)
	require.NoError(t, err)
	assert.False(t, res.Expanded)
	assert.Equal(t, 10.0, res.RadiusKm)
	assert.Len(t, res.Matches, 1)
}

func TestSearch_InvalidPolicy(t *testing.T) {
	idx := proximity.NewLinearIndex([]place{})
	bad := proximity.ExpansionPolicy{StepsKm: []float64{-1}, MaxRadiusKm: 10}
	_, err := proximity.Search[place](idx, proximity.SearchRequest{Center: newYork, RadiusKm: 1}, &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
