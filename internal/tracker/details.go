package tracker

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cheeseburger9309/AstraSim/internal/groundtrack"
	"github.com/cheeseburger9309/AstraSim/internal/metrics"
	"github.com/cheeseburger9309/AstraSim/internal/observer"
	"github.com/cheeseburger9309/AstraSim/internal/passes"
	"github.com/cheeseburger9309/AstraSim/internal/render"
	"github.com/cheeseburger9309/AstraSim/internal/telemetry"
)

// Details is everything derived for the current selection.
type Details struct {
	Selection     render.Selection      `json:"selection"`
	Observer      observer.Location     `json:"observer"`
	Telemetry     *telemetry.Readout    `json:"telemetry,omitempty"`
	OrbitPath     []mgl32.Vec3          `json:"orbit_path,omitempty"`
	GroundTrack   [][]groundtrack.Point `json:"ground_track,omitempty"` // one run per map polyline
	Passes        []passes.PassEvent    `json:"passes"`
	PassesPending bool                  `json:"passes_pending"`
	PassesFrom    time.Time             `json:"passes_from,omitempty"`
}

func (d Details) clone() Details {
	out := d
	if d.Telemetry != nil {
		r := *d.Telemetry
		out.Telemetry = &r
	}
	out.OrbitPath = append([]mgl32.Vec3(nil), d.OrbitPath...)
	out.GroundTrack = nil
	for _, run := range d.GroundTrack {
		out.GroundTrack = append(out.GroundTrack, append([]groundtrack.Point(nil), run...))
	}
	out.Passes = append([]passes.PassEvent{}, d.Passes...)
	return out
}

// selectionChanged rebuilds the selection's details and restarts pass
// prediction. Runs on the session goroutine.
func (s *Session) selectionChanged(now time.Time) {
	sel := s.view.Selection
	s.details = Details{Selection: sel, Observer: s.observer, Passes: []passes.PassEvent{}}

	if !sel.Active() {
		s.cancelPassJob()
		return
	}
	o := s.cat.At(sel.Index)
	r := telemetry.Read(o, now)
	s.details.Telemetry = &r
	s.details.OrbitPath = groundtrack.OrbitPath(o.Elements, now, s.cfg.RenderRadius)
	s.details.GroundTrack = groundtrack.Split(groundtrack.GroundTrack(o.Elements, now))
	s.startPassJob(now)
}

// refreshClock updates the parts of the readout that follow the clock.
func (s *Session) refreshClock(now time.Time) {
	sel := s.view.Selection
	if !sel.Active() {
		return
	}
	r := telemetry.Read(s.cat.At(sel.Index), now)
	s.details.Telemetry = &r
}

// startPassJob cancels any running prediction and starts one for the current
// selection and observer. A result from a superseded job is dropped.
func (s *Session) startPassJob(now time.Time) {
	s.cancelPassJob()

	sel := s.view.Selection
	o := s.cat.At(sel.Index)
	obs := s.observer
	cfg := s.cfg.Passes

	s.passGen++
	gen := s.passGen
	ctx, cancel := context.WithCancel(s.runCtx)
	s.passCancel = cancel
	s.details.PassesPending = true
	s.details.PassesFrom = now

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		defer cancel()

		ctx, span := tracer.Start(ctx, "passes.Predict")
		span.SetAttributes(
			attribute.String("object.name", o.Name),
			attribute.Int("object.norad_id", o.Record.NORADID),
		)
		started := time.Now()
		result, err := passes.Predict(ctx, passes.ElevationFor(o.Elements, obs.Position()), now, cfg)
		metrics.ObservePassPrediction(time.Since(started))
		span.SetAttributes(attribute.Int("passes.count", len(result)))
		span.End()
		if err != nil {
			return
		}

		s.post(ctx, func() {
			if gen != s.passGen {
				return
			}
			s.details.Passes = result
			s.details.PassesPending = false
			s.logger.Debug("pass prediction finished",
				"name", o.Name,
				"passes", len(result),
				"duration_ms", time.Since(started).Milliseconds(),
			)
		})
	}()
}

func (s *Session) cancelPassJob() {
	if s.passCancel != nil {
		s.passCancel()
		s.passCancel = nil
	}
	s.passGen++
	s.details.PassesPending = false
}
