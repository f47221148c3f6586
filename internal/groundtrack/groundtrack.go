// Package groundtrack samples an object's trajectory over a time window: the
// orbit path around the globe and its footprint on the map.
package groundtrack

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

const (
	pathSteps       = 400 // samples per orbital period
	pathPeriodSpan  = 1.1 // periods covered by the orbit path
	trackHalfWindow = 90 * time.Minute
	trackStep       = time.Minute
)

// Point is one sub-object sample of a ground track.
type Point struct {
	Time time.Time `json:"time"`
	transform.Geodetic
}

// OrbitPath samples the orbit from start over 1.1 periods, 400 samples per
// period, and returns the render-space polyline. Samples without a valid
// state are dropped. The result is nil when fewer than two points remain.
func OrbitPath(el *propagation.Elements, start time.Time, renderRadius float64) []mgl32.Vec3 {
	if el == nil || el.MeanMotion() <= 0 {
		return nil
	}
	periodMin := 1440 / el.MeanMotion()
	stepMin := periodMin / pathSteps
	n := int(math.Round(pathPeriodSpan * pathSteps))

	path := make([]mgl32.Vec3, 0, n+1)
	for i := 0; i <= n; i++ {
		t := start.Add(time.Duration(float64(i) * stepMin * float64(time.Minute)))
		st := propagation.Propagate(el, t)
		if !st.Valid {
			continue
		}
		path = append(path, transform.ToRender(st.Position, renderRadius))
	}
	if len(path) < 2 {
		return nil
	}
	return path
}

// GroundTrack returns the geodetic track from 90 minutes before now to 90
// minutes after, one point per minute. Samples without a valid state are
// dropped.
func GroundTrack(el *propagation.Elements, now time.Time) []Point {
	return Track(el, now.Add(-trackHalfWindow), now.Add(trackHalfWindow), trackStep)
}

// Track samples the geodetic position of el from start to end inclusive.
func Track(el *propagation.Elements, start, end time.Time, step time.Duration) []Point {
	if el == nil || step <= 0 || end.Before(start) {
		return nil
	}
	var pts []Point
	for t := start; !t.After(end); t = t.Add(step) {
		st := propagation.Propagate(el, t)
		if !st.Valid {
			continue
		}
		pts = append(pts, Point{
			Time:     t.UTC(),
			Geodetic: transform.ECIToGeodetic(st.Position, transform.GMST(t)),
		})
	}
	return pts
}

// Split cuts a track into runs that do not jump across the antimeridian, so
// each run can be drawn as one map polyline.
func Split(pts []Point) [][]Point {
	if len(pts) == 0 {
		return nil
	}
	var (
		runs [][]Point
		from int
	)
	for i := 1; i < len(pts); i++ {
		if math.Abs(pts[i].LonDeg-pts[i-1].LonDeg) > 180 {
			runs = append(runs, pts[from:i])
			from = i
		}
	}
	return append(runs, pts[from:])
}
