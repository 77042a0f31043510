package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactorviz/impactor-cli/internal/geo"
)

func TestPredictImpactPoint_MovesSouth(t *testing.T) {
	// 20 km/s at a 30 degree entry angle over 10N 80E: vertical
	// component 10 km/s, 12 s to ground, ~207.8 km downrange due south.
	lat, lon, err := PredictImpactPoint(10.0, 80.0, 20.0, 30.0)
	require.NoError(t, err)

	assert.Less(t, lat, 10.0)
	assert.InDelta(t, 80.0, lon, 1e-6)

	wantDownrange := 20.0 * 0.8660254037844387 * (120.0 / 10.0)
	assert.InDelta(t, wantDownrange, geo.HaversineKM(10.0, 80.0, lat, lon), 0.01)
}

func TestPredictImpactPoint_SteeperEntryLandsShorter(t *testing.T) {
	shallowLat, _, err := PredictImpactPoint(10.0, 80.0, 20.0, 15.0)
	require.NoError(t, err)
	steepLat, _, err := PredictImpactPoint(10.0, 80.0, 20.0, 75.0)
	require.NoError(t, err)

	// Steeper entry means less downrange travel, so a smaller
	// southward displacement.
	assert.Greater(t, steepLat, shallowLat)
}

func TestPredictImpactPoint_DomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		angleDeg float64
	}{
		{"level flight", 0},
		{"ascending", -10},
		{"retrograde level", 180},
		{"past vertical going up", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PredictImpactPoint(10.0, 80.0, 20.0, tt.angleDeg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDomain)
		})
	}
}

func TestSimulateDeflectionEffect(t *testing.T) {
	t.Run("shift grows with delta-v", func(t *testing.T) {
		lat1, _, err := SimulateDeflectionEffect(10.0, 80.0, 1.0, 60, 20.0)
		require.NoError(t, err)
		lat2, _, err := SimulateDeflectionEffect(10.0, 80.0, 5.0, 60, 20.0)
		require.NoError(t, err)

		assert.Greater(t, shiftKM(lat2), shiftKM(lat1))
	})

	t.Run("reference scenario magnitude", func(t *testing.T) {
		// 5 m/s applied 60 days out against a 20 km/s approach:
		// (5*5184000/1000) * (5/20000) = 6.48 km, walked backwards
		// along the track (northward for the due-south azimuth).
		lat, lon, err := SimulateDeflectionEffect(10.0, 80.0, 5.0, 60, 20.0)
		require.NoError(t, err)

		assert.Greater(t, lat, 10.0)
		assert.InDelta(t, 6.48, geo.HaversineKM(10.0, 80.0, lat, lon), 0.01)
		assert.InDelta(t, 80.0, lon, 1e-6)
	})

	t.Run("zero delta-v is a no-op", func(t *testing.T) {
		lat, lon, err := SimulateDeflectionEffect(10.0, 80.0, 0.0, 60, 20.0)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, lat, 1e-12)
		assert.InDelta(t, 80.0, lon, 1e-12)
	})

	t.Run("non-positive original velocity", func(t *testing.T) {
		_, _, err := SimulateDeflectionEffect(10.0, 80.0, 5.0, 60, 0.0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDomain)
	})
}

func shiftKM(lat float64) float64 {
	return geo.HaversineKM(10.0, 80.0, lat, 80.0)
}
