// Package passes predicts when an object is above an observer's horizon.
package passes

import (
	"context"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

// PassEvent describes a single pass over an observer location. A pass still
// above the threshold when the window ends is InProgress and has no end.
type PassEvent struct {
	StartTime        time.Time  `json:"start_time"`
	MaxElevationTime time.Time  `json:"max_elevation_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	DurationSeconds  float64    `json:"duration_seconds,omitempty"`
	MaxElevation     float64    `json:"max_elevation"`
	AzimuthAtMax     float64    `json:"azimuth_at_max"`
	StartAzimuth     float64    `json:"start_azimuth"`
	EndAzimuth       float64    `json:"end_azimuth,omitempty"`
	InProgress       bool       `json:"in_progress"`
}

// LookFunc returns the look angles of the object at t, or false when the
// object has no position at t.
type LookFunc func(t time.Time) (transform.LookAngles, bool)

// Config bounds a prediction. The zero Config means DefaultConfig. Otherwise
// unset Step, Samples and MaxPasses take their defaults and MinElevation is
// used as given, so 0 predicts passes over the horizon.
type Config struct {
	Step         time.Duration // time between samples
	Samples      int           // number of samples
	MinElevation float64       // degrees; a pass starts strictly above it
	MaxPasses    int
}

// DefaultConfig scans 24 hours at one-minute resolution for up to ten passes
// above 10°.
func DefaultConfig() Config {
	return Config{
		Step:         time.Minute,
		Samples:      1440,
		MinElevation: 10,
		MaxPasses:    10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}
	if c.Step <= 0 {
		c.Step = d.Step
	}
	if c.Samples <= 0 {
		c.Samples = d.Samples
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = d.MaxPasses
	}
	return c
}

// Predict samples look from start and returns the passes found, in time
// order. A pass rises on the first sample strictly above MinElevation and
// sets on the first later sample at or below it. Samples without a value
// are skipped and do not end a pass. The error is non-nil only when ctx is
// cancelled; the passes found so far are returned with it.
func Predict(ctx context.Context, look LookFunc, start time.Time, cfg Config) ([]PassEvent, error) {
	cfg = cfg.withDefaults()

	passes := []PassEvent{}
	var (
		cur    PassEvent
		inPass bool
	)

	for i := 0; i < cfg.Samples; i++ {
		if i%60 == 0 && ctx.Err() != nil {
			return passes, ctx.Err()
		}

		t := start.Add(time.Duration(i) * cfg.Step)
		la, ok := look(t)
		if !ok {
			continue
		}
		el := la.ElevationDeg

		if !inPass {
			if el > cfg.MinElevation {
				inPass = true
				cur = PassEvent{
					StartTime:        t,
					StartAzimuth:     la.AzimuthDeg,
					MaxElevationTime: t,
					MaxElevation:     el,
					AzimuthAtMax:     la.AzimuthDeg,
				}
			}
			continue
		}

		if el > cur.MaxElevation {
			cur.MaxElevation = el
			cur.MaxElevationTime = t
			cur.AzimuthAtMax = la.AzimuthDeg
		}
		if el <= cfg.MinElevation {
			end := t
			cur.EndTime = &end
			cur.EndAzimuth = la.AzimuthDeg
			cur.DurationSeconds = end.Sub(cur.StartTime).Seconds()
			passes = append(passes, cur)
			inPass = false
			if len(passes) == cfg.MaxPasses {
				return passes, nil
			}
		}
	}

	if inPass {
		cur.InProgress = true
		passes = append(passes, cur)
	}
	return passes, nil
}

// ElevationFor builds the LookFunc of one object seen from obs by
// propagating it and rotating the result into the observer's frame.
func ElevationFor(el *propagation.Elements, obs transform.ObserverPosition) LookFunc {
	return func(t time.Time) (transform.LookAngles, bool) {
		st := propagation.Propagate(el, t)
		if !st.Valid {
			return transform.LookAngles{}, false
		}
		return transform.LookAnglesFromECI(obs, st.Position, transform.GMST(t)), true
	}
}
