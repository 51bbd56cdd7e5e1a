package geo

import (
	"testing"

	"issuex/models"

	"github.com/stretchr/testify/assert"
)

func TestHaversineIdentity(t *testing.T) {
	points := []models.Location{
		{Lat: 0, Lng: 0},
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: -179.9},
	}
	for _, p := range points {
		assert.Zero(t, HaversineKm(p, p))
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := models.Location{Lat: 12.9716, Lng: 77.5946}
	b := models.Location{Lat: 13.0827, Lng: 80.2707}
	assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Bengaluru to Chennai is roughly 290 km great-circle.
	a := models.Location{Lat: 12.9716, Lng: 77.5946}
	b := models.Location{Lat: 13.0827, Lng: 80.2707}
	d := HaversineKm(a, b)
	assert.InDelta(t, 290, d, 10)

	// The spec scenario point is about 0.6 km east of the center.
	center := models.Location{Lat: 12.9716, Lng: 77.5946}
	point := models.Location{Lat: 12.9716, Lng: 77.6000}
	assert.Less(t, HaversineKm(center, point), 5.0)
}

func TestIsWithinRadius(t *testing.T) {
	center := models.Location{Lat: 12.9716, Lng: 77.5946}
	near := models.Location{Lat: 12.9716, Lng: 77.6000}
	far := models.Location{Lat: 13.0827, Lng: 80.2707}

	assert.True(t, IsWithinRadius(&near, &center, 5))
	assert.False(t, IsWithinRadius(&far, &center, 5))

	// Membership matches the raw distance comparison.
	assert.Equal(t, HaversineKm(center, near) <= 5, IsWithinRadius(&near, &center, 5))

	// Absent locations are never within any radius.
	assert.False(t, IsWithinRadius(nil, &center, 5))
	assert.False(t, IsWithinRadius(&near, nil, 5))
	assert.False(t, IsWithinRadius(nil, nil, 5))
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	center := models.Location{Lat: 12.9716, Lng: 77.5946}
	box := BoundingBox(center, 5)

	inside := models.Location{Lat: 12.9716, Lng: 77.6000}
	assert.GreaterOrEqual(t, inside.Lat, box.MinLat)
	assert.LessOrEqual(t, inside.Lat, box.MaxLat)
	assert.GreaterOrEqual(t, inside.Lng, box.MinLng)
	assert.LessOrEqual(t, inside.Lng, box.MaxLng)
}
