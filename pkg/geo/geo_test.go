package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	p := Point{Latitude: -6.2, Longitude: 106.816666}
	assert.InDelta(t, 0, DistanceKm(p, p), 1e-9)
}

func TestDistanceKmKnownCities(t *testing.T) {
	jakarta := Point{Latitude: -6.2, Longitude: 106.816666}
	bandung := Point{Latitude: -6.914744, Longitude: 107.609810}

	// Jakarta to Bandung is roughly 118 km great-circle.
	d := DistanceKm(jakarta, bandung)
	assert.InDelta(t, 118, d, 5)

	assert.InDelta(t, d, DistanceKm(bandung, jakarta), 1e-9)
}

func TestIsWithinRadius(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	// ~0.09 degrees latitude is about 10 km.
	near := Point{Latitude: 0.0899, Longitude: 0}
	far := Point{Latitude: 0.72, Longitude: 0}

	assert.True(t, IsWithinRadius(origin, near, 50))
	assert.False(t, IsWithinRadius(origin, far, 50))
}

func TestBoxAroundContainsRadius(t *testing.T) {
	center := Point{Latitude: 10, Longitude: 20}
	box := BoxAround(center, 50)

	assert.Less(t, box.MinLat, center.Latitude)
	assert.Greater(t, box.MaxLat, center.Latitude)
	assert.Less(t, box.MinLon, center.Longitude)
	assert.Greater(t, box.MaxLon, center.Longitude)

	// Points on the edge of the radius stay inside the box.
	edge := Point{Latitude: 10 + 50/111.195, Longitude: 20}
	assert.True(t, box.Contains(edge))
	assert.True(t, box.Contains(center))
	assert.False(t, box.Contains(Point{Latitude: 12, Longitude: 20}))
}
