package propagation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/cheeseburger9309/AstraSim/internal/tle"
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

// go-satellite's Propagate takes the Satellite by value, so SGP4 error codes
// raised during propagation never reach us. Failures are detected from the
// output instead: non-finite components or a radius no orbit can have.

// ErrInitFailed marks an element set the SGP4 model refused to initialise.
var ErrInitFailed = errors.New("sgp4 init failed")

const (
	minRadiusKm = 6200.0
	maxRadiusKm = 1.0e6
)

// Elements is an initialised SGP4 record for one object. It is immutable
// once built and safe to propagate from many goroutines at once.
type Elements struct {
	sat        satellite.Satellite
	noradID    int
	meanMotion float64 // rev/day
}

// NewElements initialises the SGP4 model from a parsed element-set record.
//
// The lines are validated again before they reach go-satellite, which calls
// log.Fatal on malformed input.
func NewElements(rec tle.Record) (*Elements, error) {
	line1 := strings.TrimSpace(rec.Line1)
	line2 := strings.TrimSpace(rec.Line2)
	if err := tle.ValidateLines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", rec.NORADID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w for NORAD %d: code=%d %s", ErrInitFailed, rec.NORADID, sat.Error, sat.ErrorStr)
	}
	return &Elements{sat: sat, noradID: rec.NORADID, meanMotion: rec.MeanMotion}, nil
}

// NORADID returns the catalog number of the element set.
func (e *Elements) NORADID() int {
	return e.noradID
}

// MeanMotion returns the mean motion in revolutions per day.
func (e *Elements) MeanMotion() float64 {
	return e.meanMotion
}

// Period returns the orbital period derived from the mean motion.
func (e *Elements) Period() time.Duration {
	return time.Duration(1440.0 / e.meanMotion * float64(time.Minute))
}

// Propagate computes the state of el at t. It never fails: an unusable
// result comes back as a state with Valid false. The result depends only on
// el and t.
func Propagate(el *Elements, t time.Time) OrbitalState {
	if el == nil {
		return OrbitalState{}
	}
	t = t.UTC()
	pos, vel := satellite.Propagate(el.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return stateFrom(pos, vel)
}

// stateFrom unwraps raw propagator output into an OrbitalState.
func stateFrom(pos, vel satellite.Vector3) OrbitalState {
	p := transform.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z}
	if !p.Finite() {
		return OrbitalState{}
	}
	if r := p.Norm(); r < minRadiusKm || r > maxRadiusKm {
		return OrbitalState{}
	}

	v := transform.Vec3{X: vel.X, Y: vel.Y, Z: vel.Z}
	st := OrbitalState{Position: p, Valid: true}
	if v.Finite() {
		st.Velocity = v
		st.HasVelocity = true
	}
	return st
}
