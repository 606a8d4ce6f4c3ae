// Package geo contains pure geographic computation helpers.
package geo

import (
	"math"

	"pronto/internal/types"
)

const earthRadiusMiles = 3959.0

// Miles returns the great-circle distance in miles between two points,
// computed with the haversine formula. It is total: identical points yield 0
// and the result is never negative.
func Miles(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

// ClampMiles guards downstream pricing against a zero or negative distance.
func ClampMiles(miles float64) float64 {
	if miles <= 0 || math.IsNaN(miles) {
		return 0
	}
	return miles
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
