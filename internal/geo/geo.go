// Package geo validates that a scan happened on-site: a haversine
// great-circle distance against a circular radius around the work site.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// DefaultRadiusMeters is the acceptance radius applied when a deployment
// does not override it in configuration.
const DefaultRadiusMeters = 100.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the great-circle distance between a and b in meters.
// Identical points yield exactly 0.
func Distance(a, b Point) float64 {
	return DistanceWithRadius(a, b, EarthRadiusMeters)
}

// DistanceWithRadius computes the haversine distance on a sphere of the
// given radius.
func DistanceWithRadius(a, b Point, sphereRadius float64) float64 {
	if a == b {
		return 0
	}

	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lng - a.Lng)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// floating error can push h a hair outside [0,1] for near-coincident
	// or antipodal points; clamp before the sqrt
	if h < 0 {
		h = 0
	} else if h > 1 {
		h = 1
	}

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return sphereRadius * c
}

// WithinRadius reports whether p is no farther than radiusMeters from site.
func WithinRadius(p, site Point, radiusMeters float64) bool {
	return Distance(p, site) <= radiusMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
