// Package geo holds the coordinate primitives shared by storage and the hotspot aggregator.
package geo

import "math"

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// MetersPerDegree approximates one degree of latitude (and of longitude at the equator).
const MetersPerDegree = 111_000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Round-off can push a slightly outside [0,1] for identical or antipodal points.
	if a < 0 {
		a = 0
	} else if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Distance is Haversine over two Points.
func Distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// WithinApprox is a cheap bounding test: it reports false when the latitude or
// longitude delta between query and center alone already exceeds radius meters.
// Longitude degrees are scaled by cos(query latitude).
func WithinApprox(query, center Point, radius float64) bool {
	latDiff := math.Abs(query.Lat - center.Lat)
	if latDiff*MetersPerDegree > radius {
		return false
	}
	lonDiff := math.Abs(query.Lon - center.Lon)
	return lonDiff*MetersPerDegree*math.Cos(query.Lat*math.Pi/180) <= radius
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Valid reports whether p holds in-range coordinates.
func (p Point) Valid() bool {
	return ValidateCoordinates(p.Lat, p.Lon)
}
