package ocean

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMeasurementValidateBoundaries(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		ok       bool
	}{
		{"north pole", 90, 0, true},
		{"south pole", -90, 0, true},
		{"antimeridian east", 0, 180, true},
		{"antimeridian west", 0, -180, true},
		{"lat too high", 90.01, 0, false},
		{"lat too low", -90.01, 0, false},
		{"lon too high", 0, 180.5, false},
		{"lon too low", 0, -180.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Measurement{Latitude: tc.lat, Longitude: tc.lon}
			err := m.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestHasObservation(t *testing.T) {
	require.False(t, Measurement{}.HasObservation())
	require.True(t, Measurement{Temperature: Float64(12.5)}.HasObservation())
	require.True(t, Measurement{Salinity: Float64(35)}.HasObservation())
}

func TestBoundsOf(t *testing.T) {
	_, ok := BoundsOf(nil)
	require.False(t, ok)

	box, ok := BoundsOf([]Measurement{
		{Latitude: 10, Longitude: -20},
		{Latitude: -5, Longitude: 40},
		{Latitude: 3, Longitude: 0},
	})
	require.True(t, ok)
	require.Equal(t, BoundingBox{MinLat: -5, MaxLat: 10, MinLon: -20, MaxLon: 40}, box)

	for _, m := range []Measurement{{Latitude: 10, Longitude: -20}, {Latitude: -5, Longitude: 40}} {
		require.True(t, box.Contains(m.Latitude, m.Longitude))
	}
}

func TestFetchResult(t *testing.T) {
	require.True(t, Fetched([]Measurement{{Latitude: 1}}).OK())
	require.Equal(t, FetchEmpty, Fetched(nil).Outcome)
	require.False(t, NoData().OK())

	failed := FetchFailed("all upstream providers unavailable")
	require.Equal(t, FetchFailure, failed.Outcome)
	require.False(t, failed.OK())
	require.Equal(t, "all upstream providers unavailable", failed.Reason)
}
