package kernel_test

import (
	"math"
	"testing"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("accepts boundary values", func(t *testing.T) {
		for _, tc := range []struct{ lat, lon float64 }{
			{-90, -180}, {90, 180}, {0, 0}, {-12.0464, -77.0428},
		} {
			p, err := kernel.NewGeoPoint(tc.lat, tc.lon)
			require.NoError(t, err)
			require.NoError(t, p.Validate())
			assert.InDelta(t, tc.lat, p.Latitude(), 1e-9)
			assert.InDelta(t, tc.lon, p.Longitude(), 1e-9)
		}
	})

	t.Run("joins both range errors", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(91, -181)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Contains(t, err.Error(), "latitude")
		assert.Contains(t, err.Error(), "longitude")
	})

	t.Run("rejects NaN", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(math.NaN(), 0)
		require.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var p kernel.GeoPoint
		require.ErrorIs(t, p.Validate(), kernel.ErrGeoPointIsNotConstructed)
	})
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	miraflores, _ := kernel.NewGeoPoint(-12.1211, -77.0297)
	barranco, _ := kernel.NewGeoPoint(-12.1499, -77.0219)

	d, err := miraflores.DistanceKm(barranco)

	require.NoError(t, err)
	assert.InDelta(t, 3.3, d, 0.2)

	same, err := miraflores.DistanceKm(miraflores)
	require.NoError(t, err)
	assert.InDelta(t, 0, same, 1e-9)

	_, err = miraflores.DistanceKm(kernel.GeoPoint{})
	require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
}
