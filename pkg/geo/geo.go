// Package geo provides great-circle distance helpers used to filter donor
// candidates by search radius. All functions are pure.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceKm returns the haversine distance between a and b in kilometers.
func DistanceKm(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsWithinRadius reports whether point lies within radiusKm of origin.
func IsWithinRadius(origin, point Point, radiusKm float64) bool {
	return DistanceKm(origin, point) <= radiusKm
}

// BoundingBox is a latitude/longitude rectangle enclosing a search circle,
// useful as a cheap prefilter before exact distance checks.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether p lies inside the box.
func (b BoundingBox) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

// BoxAround returns the bounding box for the given search radius. The box must
// enclose the full circle, so the degree span uses 111 km per degree, slightly
// under the true ~111.195, and longitude shrinks with the cosine of the
// latitude.
func BoxAround(center Point, radiusKm float64) BoundingBox {
	latOffset := radiusKm / 111.0
	lonOffset := radiusKm / (111.0 * math.Cos(toRadians(center.Latitude)))

	return BoundingBox{
		MinLat: center.Latitude - latOffset,
		MaxLat: center.Latitude + latOffset,
		MinLon: center.Longitude - lonOffset,
		MaxLon: center.Longitude + lonOffset,
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
