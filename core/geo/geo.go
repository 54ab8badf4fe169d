// Package geo verifies check-in proximity: great-circle distance between
// device and class coordinates, and the geofence predicate built on it.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether c carries no GPS fix at all. (0, 0) is in the
// Gulf of Guinea, not in any school yard; it is what a device reports
// before the first fix.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Coordinates) float64 {
	phi1 := radians(a.Latitude)
	phi2 := radians(b.Latitude)
	dPhi := radians(b.Latitude - a.Latitude)
	dLambda := radians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// IsWithinGeofence reports whether point lies within radiusMeters of center.
// The boundary itself counts as inside.
func IsWithinGeofence(point, center Coordinates, radiusMeters float64) bool {
	return DistanceMeters(point, center) <= radiusMeters
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
