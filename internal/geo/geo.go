// Package geo holds the coordinate math used by matching: a cheap bounding
// box for candidate selection and haversine distance for display.
package geo

import (
	"math"
)

const earthRadiusKm = 6371.0

// Box is an axis-aligned range around a point, in degrees.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoxAround returns the ±delta box around (lat, lng).
func BoxAround(lat, lng, delta float64) Box {
	return Box{
		MinLat: lat - delta,
		MaxLat: lat + delta,
		MinLng: lng - delta,
		MaxLng: lng + delta,
	}
}

// Contains reports whether (lat, lng) is inside the box, edges included.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Distance returns the great-circle distance in kilometres, or nil when any
// coordinate is missing.
func Distance(lat1, lng1, lat2, lng2 *float64) *float64 {
	if lat1 == nil || lng1 == nil || lat2 == nil || lng2 == nil {
		return nil
	}
	d := Haversine(*lat1, *lng1, *lat2, *lng2)
	return &d
}

// Haversine formula for distance in km.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLng := (lng2 - lng1) * (math.Pi / 180)
	lat1 = lat1 * (math.Pi / 180)
	lat2 = lat2 * (math.Pi / 180)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Asin(math.Sqrt(a))
	return earthRadiusKm * c
}

// ValidCoordinate reports whether lat/lng are finite and inside the usual
// WGS84 ranges.
func ValidCoordinate(lat, lng float64) bool {
	return ValidLatitude(lat) && ValidLongitude(lng)
}

func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

func ValidLongitude(lng float64) bool {
	return !math.IsNaN(lng) && lng >= -180 && lng <= 180
}
