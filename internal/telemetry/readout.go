// Package telemetry builds the technical readout shown for the selected
// object.
package telemetry

import (
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

// Readout is an object's state and orbit summary at one instant. Position,
// AltitudeKm and SpeedKmS are only meaningful when Valid is true.
type Readout struct {
	Index          int                `json:"index"`
	Name           string             `json:"name"`
	NORADID        int                `json:"norad_id"`
	Category       catalog.Category   `json:"category"`
	Time           time.Time          `json:"time"`
	Valid          bool               `json:"valid"`
	Position       transform.Geodetic `json:"position"`
	AltitudeKm     float64            `json:"altitude_km"`
	SpeedKmS       float64            `json:"speed_km_s"`
	PeriodMin      float64            `json:"period_min"`
	InclinationDeg float64            `json:"inclination_deg"`
	Eccentricity   float64            `json:"eccentricity"`
	IntlDesignator string             `json:"intl_designator"`
	LaunchYear     int                `json:"launch_year,omitempty"`
	Epoch          time.Time          `json:"epoch"`
}

// Read propagates o to t and fills in its readout.
func Read(o *catalog.Object, t time.Time) Readout {
	t = t.UTC()
	r := Readout{
		Index:          o.Index,
		Name:           o.Name,
		NORADID:        o.Record.NORADID,
		Category:       o.Category,
		Time:           t,
		InclinationDeg: o.Record.InclinationDeg,
		Eccentricity:   o.Record.Eccentricity,
		IntlDesignator: o.Record.IntlDesignator,
		Epoch:          o.Record.Epoch,
	}
	if o.Record.MeanMotion > 0 {
		r.PeriodMin = 1440 / o.Record.MeanMotion
	}
	if y, ok := LaunchYear(o.Record.IntlDesignator); ok {
		r.LaunchYear = y
	}

	st := propagation.Propagate(o.Elements, t)
	if !st.Valid {
		return r
	}
	r.Valid = true
	r.Position = transform.ECIToGeodetic(st.Position, transform.GMST(t))
	r.AltitudeKm = r.Position.AltKm
	if st.HasVelocity {
		r.SpeedKmS = floats.Norm(st.Velocity.Slice(), 2)
	}
	return r
}

// LaunchYear returns the four-digit launch year encoded in the first two
// characters of an international designator.
func LaunchYear(designator string) (int, bool) {
	if len(designator) < 2 {
		return 0, false
	}
	yy, err := strconv.Atoi(designator[:2])
	if err != nil {
		return 0, false
	}
	return tle.FullYear(yy), true
}
