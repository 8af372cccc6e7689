// Package geo provides great-circle distance calculations between airports.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used for all station distances.
const EarthRadiusKM = 6372.8

// Point is a position in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Distance returns the haversine distance in kilometers between a and b.
//
// a = sin²(Δφ/2) + cos φ1 ⋅ cos φ2 ⋅ sin²(Δλ/2)
// d = 2R ⋅ asin(√a)
func Distance(a, b Point) float64 {
	lat1 := degreesToRadians(a.Latitude)
	lat2 := degreesToRadians(b.Latitude)
	deltaLat := degreesToRadians(b.Latitude - a.Latitude)
	deltaLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Pow(math.Sin(deltaLon/2), 2)*math.Cos(lat1)*math.Cos(lat2)

	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(h, 1)

	return EarthRadiusKM * 2 * math.Asin(math.Sqrt(h))
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
