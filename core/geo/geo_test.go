package geo

import (
	"math"
	"testing"
)

var officeCenter = Coordinates{Latitude: -6.200000, Longitude: 106.816666} // Jakarta

// pointAtMeters returns a point due north of origin at the given distance.
// A pure latitude offset of d/R radians is exactly d meters along the
// great circle, so expected distances need no tolerance fudging.
func pointAtMeters(origin Coordinates, meters float64) Coordinates {
	dLat := (meters / 6371000.0) * 180 / math.Pi
	return Coordinates{Latitude: origin.Latitude + dLat, Longitude: origin.Longitude}
}

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Coordinates
		want   float64
		within float64
	}{
		{name: "same point", a: officeCenter, b: officeCenter, want: 0, within: 0},
		{name: "100m apart", a: officeCenter, b: pointAtMeters(officeCenter, 100), want: 100, within: 0.001},
		{name: "1km apart", a: officeCenter, b: pointAtMeters(officeCenter, 1000), want: 1000, within: 0.01},
		{
			name:   "Jakarta to Surabaya",
			a:      officeCenter,
			b:      Coordinates{Latitude: -7.257472, Longitude: 112.752090},
			want:   663000,
			within: 5000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.within {
				t.Errorf("DistanceMeters() = %v, want %v (±%v)", got, tt.want, tt.within)
			}
			// symmetry
			if rev := DistanceMeters(tt.b, tt.a); rev != got {
				t.Errorf("DistanceMeters() not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestDistanceMetersNonNegative(t *testing.T) {
	points := []Coordinates{
		{},
		officeCenter,
		{Latitude: 90, Longitude: 0},
		{Latitude: -90, Longitude: 180},
		{Latitude: 0.5, Longitude: -179.5},
	}
	for _, a := range points {
		for _, b := range points {
			if d := DistanceMeters(a, b); d < 0 {
				t.Errorf("DistanceMeters(%v, %v) = %v; want >= 0", a, b, d)
			}
		}
		if d := DistanceMeters(a, a); d != 0 {
			t.Errorf("DistanceMeters(%v, %v) = %v; want 0", a, a, d)
		}
	}
}

func TestIsWithinGeofence(t *testing.T) {
	tests := []struct {
		name   string
		point  Coordinates
		radius float64
		want   bool
	}{
		{name: "at center", point: officeCenter, radius: 100, want: true},
		{name: "50m inside", point: pointAtMeters(officeCenter, 50), radius: 100, want: true},
		{name: "just past boundary", point: pointAtMeters(officeCenter, 100.1), radius: 100, want: false},
		{name: "150m outside", point: pointAtMeters(officeCenter, 150), radius: 100, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithinGeofence(tt.point, officeCenter, tt.radius); got != tt.want {
				t.Errorf("IsWithinGeofence() = %v, want %v", got, tt.want)
			}
		})
	}
}

// The exact boundary counts as inside: a point whose computed distance is the
// radius itself must pass.
func TestIsWithinGeofenceBoundaryInclusive(t *testing.T) {
	point := pointAtMeters(officeCenter, 100)
	radius := DistanceMeters(point, officeCenter)
	if !IsWithinGeofence(point, officeCenter, radius) {
		t.Errorf("IsWithinGeofence() = false at the exact boundary, want true")
	}
}

func TestCoordinatesIsZero(t *testing.T) {
	if !(Coordinates{}).IsZero() {
		t.Error("IsZero() = false for zero value, want true")
	}
	if officeCenter.IsZero() {
		t.Error("IsZero() = true for real coordinates, want false")
	}
}
