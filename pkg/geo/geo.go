// Package geo provides great-circle distance and containment helpers used
// across the incident and safety packages.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for haversine distances.
const EarthRadiusMeters = 6371000.0

// Point represents a geographic point in WGS84 degrees.
type Point struct {
	Lat float64
	Lon float64
}

// DistanceMeters returns the great-circle (haversine) distance between two
// points in meters. The result is symmetric and zero for identical points.
func DistanceMeters(a, b Point) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// WithinRadius reports whether point is within radiusMeters of center.
func WithinRadius(point, center Point, radiusMeters float64) bool {
	return DistanceMeters(point, center) <= radiusMeters
}
