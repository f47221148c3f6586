// Package transform converts object state between the frames AstraSim uses:
// the inertial frame SGP4 produces, Earth-fixed coordinates for observer
// geometry, geodetic coordinates for the map view and the scaled, axis
// remapped render space of the 3D globe.
//
// The inertial → Earth-fixed rotation is GMST only (TEME → PEF ≈ ECEF). It
// ignores polar motion and the equation of the equinoxes, which is at most
// tens of metres and invisible at globe scale.
package transform

import "math"

// PositionECEF represents a position and velocity in the ECEF frame.
type PositionECEF struct {
	X, Y, Z    float64 // meters
	VX, VY, VZ float64 // m/s
}

// ECIToECEF rotates an inertial position/velocity (km, km/s) into ECEF
// (meters, m/s) using a precomputed GMST angle in radians.
//
// Position transform: r_ECEF = R3(θ) * r_ECI
// Velocity transform: v_ECEF = R3(θ) * v_ECI - ω × r_ECEF
func ECIToECEF(pos, vel Vec3, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := pos.X*cosG + pos.Y*sinG
	y := -pos.X*sinG + pos.Y*cosG
	z := pos.Z

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	vx := vel.X*cosG + vel.Y*sinG + OmegaEarth*y
	vy := -vel.X*sinG + vel.Y*cosG - OmegaEarth*x
	vz := vel.Z

	return PositionECEF{
		X:  x * 1000.0,
		Y:  y * 1000.0,
		Z:  z * 1000.0,
		VX: vx * 1000.0,
		VY: vy * 1000.0,
		VZ: vz * 1000.0,
	}
}
