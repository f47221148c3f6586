package transform

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// jdJ2000 is the Julian date of 2000-01-01 12:00 TT.
	jdJ2000 = 2451545.0

	secondsPerDay = 86400.0
)

// OmegaEarth is the earth rotation rate in rad/s.
const OmegaEarth = 7.292115146706979e-5

// gmstCoeffs are the IAU-82 polynomial terms in seconds of time, lowest
// order first, over Julian centuries since J2000. The linear term folds in
// the 876600 h of a full century of sidereal days.
var gmstCoeffs = [4]float64{67310.54841, 876600*3600 + 8640184.812866, 0.093104, -6.2e-6}

// JulianDate returns the Julian date of t taken as UTC.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// GMST returns Greenwich mean sidereal time at t in radians in [0, 2π),
// treating UTC as UT1 (Vallado eq. 3-47).
func GMST(t time.Time) float64 {
	c := (JulianDate(t) - jdJ2000) / 36525
	sec := gmstCoeffs[0] + c*(gmstCoeffs[1]+c*(gmstCoeffs[2]+c*gmstCoeffs[3]))
	sec = math.Mod(sec, secondsPerDay)
	if sec < 0 {
		sec += secondsPerDay
	}
	return 2 * math.Pi * sec / secondsPerDay
}
