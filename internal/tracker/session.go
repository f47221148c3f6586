// Package tracker runs the live tracking session: a single goroutine that
// owns the view state, propagates the catalog every tick, writes the render
// batch and publishes immutable frames for renderers.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/metrics"
	"github.com/cheeseburger9309/AstraSim/internal/observer"
	"github.com/cheeseburger9309/AstraSim/internal/passes"
	"github.com/cheeseburger9309/AstraSim/internal/picking"
	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/render"
)

var tracer = otel.Tracer("github.com/cheeseburger9309/AstraSim/internal/tracker")

var (
	// ErrNotRunning is returned by commands sent to a session whose Run
	// loop has not started or has returned.
	ErrNotRunning = errors.New("tracking session not running")

	// ErrNoSuchObject is returned for a catalog index out of range.
	ErrNoSuchObject = errors.New("no such object")
)

// Config holds session settings.
type Config struct {
	Tick         time.Duration // propagation period
	ClockRefresh time.Duration // telemetry readout refresh period
	RenderRadius float64
	BaseScale    float32
	MarkerRadius float32
	Passes       passes.Config
}

// DefaultConfig ticks every second and refreshes the readout every five.
func DefaultConfig() Config {
	return Config{
		Tick:         time.Second,
		ClockRefresh: 5 * time.Second,
		RenderRadius: render.DefaultRenderRadius,
		BaseScale:    render.DefaultBaseScale,
		MarkerRadius: picking.DefaultMarkerRadius,
		Passes:       passes.DefaultConfig(),
	}
}

// Session tracks one catalog for one viewer.
type Session struct {
	cfg    Config
	cat    *catalog.Catalog
	pool   *propagation.WorkerPool
	engine *render.Engine
	picker *picking.Picker
	logger *slog.Logger
	now    func() time.Time

	// Owned by the Run goroutine.
	view       *render.ViewState
	batch      *render.Batch
	states     []propagation.OrbitalState
	lastStats  render.ApplyStats
	observer   observer.Location
	details    Details
	passCancel context.CancelFunc
	passGen    uint64
	runCtx     context.Context
	seq        uint64

	frame    atomic.Pointer[Frame]
	notify   *notifier
	cmds     chan func()
	running  atomic.Bool
	stopped  chan struct{}
	jobs     sync.WaitGroup
	stopOnce sync.Once
}

// New creates a session for cat. The render batch is sized to the catalog
// here and never resized.
func New(cat *catalog.Catalog, pool *propagation.WorkerPool, cfg Config, obs observer.Location, logger *slog.Logger) *Session {
	d := DefaultConfig()
	if cfg.Tick <= 0 {
		cfg.Tick = d.Tick
	}
	if cfg.ClockRefresh <= 0 {
		cfg.ClockRefresh = d.ClockRefresh
	}
	if cfg.Passes == (passes.Config{}) {
		cfg.Passes = d.Passes
	}
	engine := render.NewEngine(cfg.RenderRadius, cfg.BaseScale)
	cfg.RenderRadius = engine.RenderRadius
	cfg.BaseScale = engine.BaseScale

	s := &Session{
		cfg:      cfg,
		cat:      cat,
		pool:     pool,
		engine:   engine,
		picker:   picking.NewPicker(cfg.MarkerRadius),
		logger:   logger,
		now:      time.Now,
		view:     render.NewViewState(),
		batch:    render.NewBatch(cat.Len()),
		states:   make([]propagation.OrbitalState, cat.Len()),
		observer: obs,
		runCtx:   context.Background(),
		notify:   newNotifier(),
		cmds:     make(chan func()),
		stopped:  make(chan struct{}),
	}
	s.details = Details{Selection: render.NoSelection, Observer: obs, Passes: []passes.PassEvent{}}
	return s
}

// Catalog returns the tracked catalog.
func (s *Session) Catalog() *catalog.Catalog {
	return s.cat
}

// Frame returns the most recently published frame, or nil before the first
// tick.
func (s *Session) Frame() *Frame {
	return s.frame.Load()
}

// Changed returns a channel that is closed when the next frame is published.
func (s *Session) Changed() <-chan struct{} {
	return s.notify.wait()
}

// Run drives the session until ctx is cancelled. It ticks once immediately.
// When it returns both timers are stopped, any pass prediction has
// finished, and no further session callback runs.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("tracking session already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.runCtx = ctx
	defer func() {
		cancel()
		s.cancelPassJob()
		s.jobs.Wait()
		s.stopOnce.Do(func() { close(s.stopped) })
	}()

	tick := time.NewTicker(s.cfg.Tick)
	defer tick.Stop()
	clock := time.NewTicker(s.cfg.ClockRefresh)
	defer clock.Stop()

	s.logger.Info("tracking session started",
		"objects", s.cat.Len(),
		"tick_ms", s.cfg.Tick.Milliseconds(),
		"clock_refresh_ms", s.cfg.ClockRefresh.Milliseconds(),
	)
	s.Tick(ctx, s.now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracking session stopped", "frames", s.seq)
			return nil
		case <-tick.C:
			s.Tick(ctx, s.now())
		case <-clock.C:
			s.refreshClock(s.now())
		case fn := <-s.cmds:
			fn()
		}
	}
}

// Tick propagates every object to now, applies the view and publishes a
// frame. It runs on the Run goroutine; outside of Run it may be called
// only from the goroutine that owns the session.
func (s *Session) Tick(ctx context.Context, now time.Time) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "tracker.Tick")
	defer span.End()

	misses := s.pool.PropagateInto(ctx, s.cat.Elements(), now, s.states)
	stats, err := s.engine.Apply(s.batch, s.cat, s.states, s.view)
	if err != nil {
		// The batch is sized from the catalog, so this is a programming error.
		s.logger.Error("applying render state failed", "error", err)
	}
	s.lastStats = stats
	s.publish(now)

	elapsed := time.Since(started)
	metrics.ObserveTick(elapsed)
	metrics.AddPropagationMisses(misses)
	metrics.SetObjectsVisible(stats.Visible)
	span.SetAttributes(
		attribute.Int("objects", s.cat.Len()),
		attribute.Int("misses", misses),
		attribute.Int("visible", stats.Visible),
	)
	if misses > 0 {
		s.logger.Debug("tick finished with misses", "misses", misses, "duration_ms", elapsed.Milliseconds())
	}
}

// restyle rewrites the batch from the last propagated states after the view
// changed, so selection and filters show without waiting for the next tick.
func (s *Session) restyle() {
	stats, err := s.engine.Apply(s.batch, s.cat, s.states, s.view)
	if err != nil {
		s.logger.Error("applying render state failed", "error", err)
		return
	}
	s.lastStats = stats
	s.publish(s.frameTime())
}

func (s *Session) frameTime() time.Time {
	if f := s.frame.Load(); f != nil {
		return f.Time
	}
	return s.now()
}

func (s *Session) publish(now time.Time) {
	s.seq++
	s.frame.Store(&Frame{
		Seq:       s.seq,
		Time:      now.UTC(),
		Batch:     s.batch.Clone(),
		Selection: s.view.Selection,
		Filters:   s.view.Filters.Clone(),
		Stats:     s.lastStats,
	})
	s.notify.broadcast()
}

// exec runs fn on the session goroutine and waits for it.
func (s *Session) exec(ctx context.Context, fn func()) error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	select {
	case s.cmds <- wrapped:
	case <-s.stopped:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// post queues fn for the session goroutine without waiting. It gives up when
// ctx is done, which happens at the latest when Run tears down.
func (s *Session) post(ctx context.Context, fn func()) {
	select {
	case s.cmds <- fn:
	case <-ctx.Done():
	}
}

// PickResult reports the outcome of a pointer click.
type PickResult struct {
	Hit       bool             `json:"hit"`
	Index     int              `json:"index"`
	Name      string           `json:"name,omitempty"`
	Selection render.Selection `json:"selection"`
}

// Click picks at pixel (px, py) against the most recently published frame
// and applies the toggle rule to the selection.
func (s *Session) Click(ctx context.Context, px, py float32, vp picking.Viewport, cam picking.Camera) (PickResult, error) {
	var res PickResult
	err := s.exec(ctx, func() {
		res = s.click(px, py, vp, cam)
	})
	return res, err
}

func (s *Session) click(px, py float32, vp picking.Viewport, cam picking.Camera) PickResult {
	var batch *render.Batch
	if f := s.frame.Load(); f != nil {
		batch = f.Batch
	}

	res := PickResult{Index: -1}
	hit, ok := s.picker.PickAt(px, py, vp, cam, batch)
	var obj *catalog.Object
	if ok {
		obj = s.cat.At(hit.Index)
		res.Hit = true
		res.Index = hit.Index
		res.Name = obj.Name
	}

	prev := s.view.Selection
	res.Selection = s.view.Click(obj)

	switch {
	case !ok:
		metrics.IncPick("miss")
	case res.Selection.Active():
		metrics.IncPick("select")
	default:
		metrics.IncPick("deselect")
	}
	if res.Selection != prev {
		s.selectionChanged(s.now())
		s.restyle()
	}
	return res
}

// SelectIndex selects catalog object i. Selecting the current selection
// again leaves it in place; see ToggleIndex for list-click semantics.
func (s *Session) SelectIndex(ctx context.Context, i int) (render.Selection, error) {
	o := s.cat.At(i)
	if o == nil {
		return render.NoSelection, fmt.Errorf("%w: index %d", ErrNoSuchObject, i)
	}
	var sel render.Selection
	err := s.exec(ctx, func() {
		if !s.view.Selection.Is(i) {
			s.view.Select(o)
			s.selectionChanged(s.now())
			s.restyle()
		}
		sel = s.view.Selection
	})
	return sel, err
}

// ToggleIndex applies a catalog-list click on object i: it selects i, or
// clears the selection when i is already selected.
func (s *Session) ToggleIndex(ctx context.Context, i int) (render.Selection, error) {
	o := s.cat.At(i)
	if o == nil {
		return render.NoSelection, fmt.Errorf("%w: index %d", ErrNoSuchObject, i)
	}
	var sel render.Selection
	err := s.exec(ctx, func() {
		s.view.Click(o)
		s.selectionChanged(s.now())
		s.restyle()
		sel = s.view.Selection
	})
	return sel, err
}

// ClearSelection drops the selection.
func (s *Session) ClearSelection(ctx context.Context) error {
	return s.exec(ctx, func() {
		if !s.view.Selection.Active() {
			return
		}
		s.view.Clear()
		s.selectionChanged(s.now())
		s.restyle()
	})
}

// ToggleFilter flips the visibility of category c and returns its new state.
func (s *Session) ToggleFilter(ctx context.Context, c catalog.Category) (bool, error) {
	var on bool
	err := s.exec(ctx, func() {
		on = s.view.Filters.Toggle(c)
		s.restyle()
	})
	return on, err
}

// Filters returns a copy of the category filters.
func (s *Session) Filters(ctx context.Context) (render.FilterSet, error) {
	var f render.FilterSet
	err := s.exec(ctx, func() {
		f = s.view.Filters.Clone()
	})
	return f, err
}

// SetObserver moves the observer and restarts pass prediction for the
// selection.
func (s *Session) SetObserver(ctx context.Context, loc observer.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	return s.exec(ctx, func() {
		s.observer = loc
		s.details.Observer = loc
		if s.view.Selection.Active() {
			s.details.Passes = []passes.PassEvent{}
			s.startPassJob(s.now())
		}
	})
}

// Details returns a copy of the selection's derived data.
func (s *Session) Details(ctx context.Context) (Details, error) {
	var d Details
	err := s.exec(ctx, func() {
		d = s.details.clone()
	})
	return d, err
}
