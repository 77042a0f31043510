// Package geo provides spherical-earth distance and displacement math
// shared by the exposure, physics, and export packages.
package geo

import "math"

const (
	// EarthRadiusKM is the mean Earth radius used for all great-circle math.
	EarthRadiusKM = 6371.0

	// KMPerDegree is the approximate surface distance of one degree of
	// latitude. Used only for loose bounding-box sizing; the exact
	// haversine filter decides membership.
	KMPerDegree = 111.0
)

// HaversineKM returns the great-circle distance in kilometers between two
// points given in degrees, assuming a spherical Earth.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dphi := (lat2 - lat1) * math.Pi / 180
	dlambda := (lon2 - lon1) * math.Pi / 180

	s1 := math.Sin(dphi / 2)
	s2 := math.Sin(dlambda / 2)
	a := s1*s1 + math.Cos(phi1)*math.Cos(phi2)*s2*s2

	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(a))
}

// Destination returns the point reached by travelling distanceKM from
// (lat, lon) along the given initial azimuth (degrees clockwise from
// north), on a spherical Earth. Negative distances travel backwards
// along the same azimuth.
func Destination(lat, lon, azimuthDeg, distanceKM float64) (destLat, destLon float64) {
	phi1 := lat * math.Pi / 180
	lambda1 := lon * math.Pi / 180
	theta := azimuthDeg * math.Pi / 180
	delta := distanceKM / EarthRadiusKM

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(sinPhi2)

	y := math.Sin(theta) * math.Sin(delta) * math.Cos(phi1)
	x := math.Cos(delta) - math.Sin(phi1)*sinPhi2
	lambda2 := lambda1 + math.Atan2(y, x)

	destLat = phi2 * 180 / math.Pi
	destLon = lambda2 * 180 / math.Pi

	// Normalize longitude into [-180, 180].
	if destLon > 180 {
		destLon -= 360
	} else if destLon < -180 {
		destLon += 360
	}
	return destLat, destLon
}
