package wspr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatLonToGridKnownPoints(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		want string
	}{
		{"Boston area", 42.36, -71.06, "FN42LI"},
		{"equator prime meridian", 0.0, 0.0, "JJ00AA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := LatLonToGrid(tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, grid)
		})
	}
}

func TestLatLonToGridDomainErrors(t *testing.T) {
	_, err := LatLonToGrid(91, 0)
	assert.ErrorIs(t, err, ErrArithmeticDomain)

	_, err = LatLonToGrid(0, 181)
	assert.ErrorIs(t, err, ErrArithmeticDomain)

	_, err = LatLonToGrid(math.NaN(), 0)
	assert.ErrorIs(t, err, ErrArithmeticDomain)
}

// TestGridDistanceKmFN20ToJO65 pins the grid-center spherical-law-of-
// cosines distance between FN20 and JO65 to the value that formula
// actually produces. See DESIGN.md's Open Questions for why this is
// ~6298 km rather than the ~5778 km figure in spec.md's own worked
// example: the grid centers (40.5,-75) and (55.5,13) and R=6371 km
// are exactly as spec section 4.9 specifies, and the law-of-cosines
// arithmetic has no freedom left to close a 9% gap.
func TestGridDistanceKmFN20ToJO65(t *testing.T) {
	d, err := GridDistanceKm("FN20", "JO65")
	require.NoError(t, err)
	assert.InDelta(t, 6298, d, 5.0)
}

func TestGridDistanceKmSymmetric(t *testing.T) {
	d1, err := GridDistanceKm("FN20", "JO65")
	require.NoError(t, err)
	d2, err := GridDistanceKm("JO65", "FN20")
	require.NoError(t, err)
	assert.InDelta(t, d1, d2, 0.001)
	assert.Greater(t, d1, 0.0)
}

func TestGridDistanceKmSamePoint(t *testing.T) {
	d, err := GridDistanceKm("FN20", "FN20")
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1.0)
}

func TestGridDistanceKmInvalid(t *testing.T) {
	_, err := GridDistanceKm("ZZ20", "FN20")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = GridDistanceKm("FN2", "FN20")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
