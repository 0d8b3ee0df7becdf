package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHaversineDistance(t *testing.T) {
	oneDegree := earthRadiusKM * 1000 * math.Pi / 180

	testCases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{name: "same point", lat1: -7.77, lon1: 110.37, lat2: -7.77, lon2: 110.37, want: 0, tolerance: 1e-9},
		{name: "one degree of latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, want: oneDegree, tolerance: 1e-6},
		{name: "one degree of longitude on the equator", lat1: 0, lon1: 10, lat2: 0, lon2: 11, want: oneDegree, tolerance: 1e-6},
		{name: "antipodal", lat1: 0, lon1: 0, lat2: 0, lon2: 180, want: earthRadiusKM * 1000 * math.Pi, tolerance: 1e-3},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateHaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
			back := CalculateHaversineDistance(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			assert.InDelta(t, got, back, 1e-9)
		})
	}
}

func TestPolylineLength(t *testing.T) {
	coords := []Coordinate{
		NewCoordinate(0, 0),
		NewCoordinate(0, 0.5),
		NewCoordinate(0, 1),
	}
	assert.InDelta(t, Distance(coords[0], coords[2]), PolylineLength(coords), 1e-6)
	assert.Zero(t, PolylineLength(coords[:1]))
	assert.Zero(t, PolylineLength(nil))
}

func TestGetDestinationPoint(t *testing.T) {
	lat, lon := GetDestinationPoint(-7.7956, 110.3695, 45, 1.0)
	dist := CalculateHaversineDistance(-7.7956, 110.3695, lat, lon)
	assert.InDelta(t, 1000.0, dist, 0.5)
	assert.Greater(t, lat, -7.7956)
	assert.Greater(t, lon, 110.3695)
}

func TestPointLinePerpendicularDistance(t *testing.T) {
	a := NewCoordinate(0, 0)
	b := NewCoordinate(0, 0.01)
	snap := NewCoordinate(0.001, 0.005)

	got := PointLinePerpendicularDistance(a, b, snap)
	assert.InDelta(t, Distance(snap, NewCoordinate(0, 0.005)), got, 0.5)

	poly := []Coordinate{NewCoordinate(1, 1), a, b}
	assert.InDelta(t, got, PointPolylineDistance(poly, snap), 1e-6)
	assert.InDelta(t, Distance(a, snap), PointPolylineDistance([]Coordinate{a}, snap), 1e-9)
}

func TestEncodePolyline(t *testing.T) {
	coords := []Coordinate{
		NewCoordinate(38.5, -120.2),
		NewCoordinate(40.7, -120.95),
		NewCoordinate(43.252, -126.453),
	}
	encoded := EncodePolyline(coords)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := DecodePolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i := range coords {
		assert.InDelta(t, coords[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, coords[i].Lon, decoded[i].Lon, 1e-5)
	}
}
