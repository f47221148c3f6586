package transform

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WGS-84 ellipsoid.
const (
	wgs84A  = 6378137.0             // semi-major axis (m)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared

	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// ObserverPosition is a ground site prepared for repeated look-angle
// queries: its Earth-fixed position and local horizon basis are computed
// once.
type ObserverPosition struct {
	LatDeg, LonDeg, AltM float64

	// ECEF is the site in metres.
	ECEF r3.Vec

	east, north, up r3.Vec
}

// LookAngles is the direction and distance from an observer to an object.
type LookAngles struct {
	AzimuthDeg   float64 `json:"azimuth"`   // from north, clockwise, [0, 360)
	ElevationDeg float64 `json:"elevation"` // above the horizon
	RangeKm      float64 `json:"range_km"`
}

// NewObserverPosition places an observer at geodetic latitude and longitude
// (degrees) and altitude (metres above the ellipsoid).
func NewObserverPosition(latDeg, lonDeg, altM float64) ObserverPosition {
	sinLat, cosLat := math.Sincos(latDeg * deg2rad)
	sinLon, cosLon := math.Sincos(lonDeg * deg2rad)

	// Prime vertical radius of curvature.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return ObserverPosition{
		LatDeg: latDeg,
		LonDeg: lonDeg,
		AltM:   altM,
		ECEF: r3.Vec{
			X: (n + altM) * cosLat * cosLon,
			Y: (n + altM) * cosLat * sinLon,
			Z: (n*(1-wgs84E2) + altM) * sinLat,
		},
		east:  r3.Vec{X: -sinLon, Y: cosLon},
		north: r3.Vec{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat},
		up:    r3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat},
	}
}

// ECEFToLookAngles returns the look angles from obs to an Earth-fixed
// position in metres. The slant range is projected onto the observer's
// east/north/up axes.
func ECEFToLookAngles(obs ObserverPosition, target r3.Vec) LookAngles {
	d := r3.Sub(target, obs.ECEF)
	rng := r3.Norm(d)
	if rng == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	e, n, u := r3.Dot(d, obs.east), r3.Dot(d, obs.north), r3.Dot(d, obs.up)
	az := math.Atan2(e, n) * rad2deg
	if az < 0 {
		az += 360
	}
	return LookAngles{
		AzimuthDeg:   az,
		ElevationDeg: math.Asin(u/rng) * rad2deg,
		RangeKm:      rng / 1000,
	}
}

// LookAnglesFromECI computes look angles from obs to an inertial position
// (km) at sidereal angle gmst (radians).
func LookAnglesFromECI(obs ObserverPosition, pos Vec3, gmst float64) LookAngles {
	p := ECIToECEF(pos, Vec3{}, gmst)
	return ECEFToLookAngles(obs, r3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}
