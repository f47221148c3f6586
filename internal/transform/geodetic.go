package transform

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Geodetic is a sub-satellite point: latitude and longitude in degrees and
// height above the ellipsoid in km.
type Geodetic struct {
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
	AltKm  float64 `json:"alt_km"`
}

// ECIToGeodetic converts an inertial position (km) to geodetic coordinates
// using the sidereal angle gmst (radians). Longitude is normalised to
// [-180, 180).
func ECIToGeodetic(p Vec3, gmst float64) Geodetic {
	alt, _, ll := satellite.ECIToLLA(satellite.Vector3{X: p.X, Y: p.Y, Z: p.Z}, gmst)
	return Geodetic{
		LatDeg: ll.Latitude * 180.0 / math.Pi,
		LonDeg: NormalizeLongitude(ll.Longitude * 180.0 / math.Pi),
		AltKm:  alt,
	}
}

// NormalizeLongitude wraps a longitude in degrees into [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180.0, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon - 180.0
}
