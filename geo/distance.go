package geo

import (
	"math"

	"issuex/models"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(a, b models.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsWithinRadius reports whether point lies within radiusKm of center.
// Absent locations are never within any radius.
func IsWithinRadius(point, center *models.Location, radiusKm float64) bool {
	if point == nil || center == nil {
		return false
	}
	return HaversineKm(*center, *point) <= radiusKm
}

// Box is a latitude/longitude bounding box.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a box that contains every point within radiusKm of
// center. It over-approximates near the poles; callers re-check membership
// with HaversineKm.
func BoundingBox(center models.Location, radiusKm float64) Box {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	dLng := dLat
	if cosLat > 1e-9 {
		dLng = dLat / cosLat
	} else {
		dLng = 180
	}
	return Box{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLng: math.Max(center.Lng-dLng, -180),
		MaxLng: math.Min(center.Lng+dLng, 180),
	}
}
