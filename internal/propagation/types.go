package propagation

import (
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

// OrbitalState is an object's inertial state at one instant. Position is in
// km, velocity in km/s, both in the TEME/ECI frame SGP4 produces.
//
// A state with Valid false is a propagation miss: the object has no position
// at that instant and the caller keeps whatever it rendered before.
type OrbitalState struct {
	Position    transform.Vec3
	Velocity    transform.Vec3
	HasVelocity bool
	Valid       bool
}

// Config holds propagation settings.
type Config struct {
	Workers int // Worker pool size (default: runtime.NumCPU())
}
