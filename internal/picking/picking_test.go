package picking

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/render"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

var testViewport = Viewport{Left: 10, Top: 20, Width: 1600, Height: 1000}

// Inertial positions (km) chosen so every object is in front of the default
// camera and well apart on screen.
var spread = []transform.Vec3{
	{X: 0, Y: -6800, Z: 0},
	{X: 3000, Y: -6000, Z: 1500},
	{X: -3000, Y: -6000, Z: -1500},
	{X: 2000, Y: -5000, Z: -4000},
	{X: -3000, Y: -20000, Z: 2000},
	{X: 1000, Y: -7000, Z: -3000},
}

func fallbackCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cat := catalog.Ingest(tle.Fallback, catalog.SourceFallback, time.Now(), logger)
	if cat.Len() != len(spread) {
		t.Fatalf("fallback catalog has %d objects, want %d", cat.Len(), len(spread))
	}
	return cat
}

func batchFor(t *testing.T, cat *catalog.Catalog, positions []transform.Vec3, view *render.ViewState) *render.Batch {
	t.Helper()
	states := make([]propagation.OrbitalState, len(positions))
	for i, p := range positions {
		states[i] = propagation.OrbitalState{Position: p, Valid: true}
	}
	b := render.NewBatch(cat.Len())
	if _, err := render.NewEngine(1, 1).Apply(b, cat, states, view); err != nil {
		t.Fatal(err)
	}
	return b
}

// screenPos projects a render-space point to viewport pixels.
func screenPos(cam Camera, vp Viewport, p mgl32.Vec3) (float32, float32) {
	clip := cam.Projection(vp.Aspect()).Mul4(cam.View()).Mul4x1(p.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())
	return vp.Left + (ndc.X()+1)/2*vp.Width, vp.Top + (1-ndc.Y())/2*vp.Height
}

func TestViewportNDC(t *testing.T) {
	tests := []struct {
		name   string
		px, py float32
		want   mgl32.Vec2
	}{
		{"top left", 10, 20, mgl32.Vec2{-1, 1}},
		{"bottom right", 1610, 1020, mgl32.Vec2{1, -1}},
		{"centre", 810, 520, mgl32.Vec2{0, 0}},
		{"quarter", 410, 270, mgl32.Vec2{-0.5, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := testViewport.NDC(tt.px, tt.py)
			if !ok || !got.ApproxEqual(tt.want) {
				t.Errorf("NDC(%v, %v) = %v, %v; want %v", tt.px, tt.py, got, ok, tt.want)
			}
		})
	}

	if _, ok := (Viewport{Width: 0, Height: 10}).NDC(1, 1); ok {
		t.Error("empty viewport should not convert")
	}
}

func TestCameraRayThroughCentre(t *testing.T) {
	cam := DefaultCamera()
	ray, ok := cam.Ray(mgl32.Vec2{0, 0}, 1.6)
	if !ok {
		t.Fatal("Ray failed")
	}
	if !ray.Dir.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("centre ray direction = %v, want (0,0,-1)", ray.Dir)
	}
	// The origin is on the near plane in front of the eye.
	if math.Abs(float64(ray.Origin.Z()-(5-cam.Near))) > 1e-3 {
		t.Errorf("centre ray origin = %v, want z=%v", ray.Origin, 5-cam.Near)
	}
}

func TestPickCentreDefaultRadius(t *testing.T) {
	cat := fallbackCatalog(t)
	b := batchFor(t, cat, spread, render.NewViewState())

	hit, ok := NewPicker(0).PickAt(810, 520, testViewport, DefaultCamera(), b)
	if !ok || hit.Index != 0 {
		t.Fatalf("centre pick = %+v, %v; want index 0", hit, ok)
	}
	// Marker 0 sits at z = 6800/6371 in front of a camera at z = 5.
	want := 5 - float32(6800.0/6371.0) - DefaultMarkerRadius
	if math.Abs(float64(hit.Distance+DefaultCamera().Near-want)) > 1e-3 {
		t.Errorf("hit distance = %v, want ~%v from the near plane", hit.Distance, want-DefaultCamera().Near)
	}
}

// TestPickIndexStable: pointing at where object i is drawn picks index i.
func TestPickIndexStable(t *testing.T) {
	cat := fallbackCatalog(t)
	b := batchFor(t, cat, spread, render.NewViewState())
	cam := DefaultCamera()
	p := NewPicker(0.02)

	for i := 0; i < b.Len(); i++ {
		px, py := screenPos(cam, testViewport, b.State(i).Position)
		hit, ok := p.PickAt(px, py, testViewport, cam, b)
		if !ok || hit.Index != i {
			t.Errorf("pick at object %d (%s) returned %+v, %v", i, cat.At(i).Name, hit, ok)
		}
	}
}

func TestPickNearestWins(t *testing.T) {
	cat := fallbackCatalog(t)
	positions := append([]transform.Vec3(nil), spread...)
	positions[3] = transform.Vec3{X: 0, Y: 6800, Z: 0} // directly behind object 0

	b := batchFor(t, cat, positions, render.NewViewState())
	hit, ok := NewPicker(0).PickAt(810, 520, testViewport, DefaultCamera(), b)
	if !ok || hit.Index != 0 {
		t.Errorf("pick = %+v, want the nearer object 0", hit)
	}

	// Hiding object 0's category exposes the one behind it.
	view := render.NewViewState()
	view.Filters.Toggle(cat.At(0).Category)
	if cat.At(3).Category == cat.At(0).Category {
		t.Skip("objects 0 and 3 share a category")
	}
	b = batchFor(t, cat, positions, view)
	hit, ok = NewPicker(0).PickAt(810, 520, testViewport, DefaultCamera(), b)
	if !ok || hit.Index != 3 {
		t.Errorf("pick with object 0 hidden = %+v, want 3", hit)
	}
}

func TestPickMiss(t *testing.T) {
	cat := fallbackCatalog(t)
	b := batchFor(t, cat, spread, render.NewViewState())

	if hit, ok := NewPicker(0).PickAt(12, 22, testViewport, DefaultCamera(), b); ok {
		t.Errorf("corner pick hit %+v", hit)
	}
	if _, ok := NewPicker(0).PickAt(810, 520, testViewport, DefaultCamera(), render.NewBatch(0)); ok {
		t.Error("pick on an empty batch hit something")
	}
	// Never-written slots are not pickable.
	if _, ok := NewPicker(0).PickAt(810, 520, testViewport, DefaultCamera(), render.NewBatch(cat.Len())); ok {
		t.Error("pick on an unwritten batch hit something")
	}
}

// TestPickToggleSequence drives the pick → click chain the session uses.
func TestPickToggleSequence(t *testing.T) {
	cat := fallbackCatalog(t)
	b := batchFor(t, cat, spread, render.NewViewState())
	p := NewPicker(0)
	cam := DefaultCamera()
	view := render.NewViewState()

	click := func(px, py float32) render.Selection {
		hit, ok := p.PickAt(px, py, testViewport, cam, b)
		if !ok {
			return view.Click(nil)
		}
		return view.Click(cat.At(hit.Index))
	}

	if sel := click(810, 520); !sel.Is(0) {
		t.Fatalf("first click selected %+v", sel)
	}
	if sel := click(810, 520); sel.Active() {
		t.Fatalf("second click on the same object left %+v selected", sel)
	}
	click(810, 520)
	if sel := click(12, 22); sel.Active() {
		t.Errorf("click on empty space left %+v selected", sel)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := DefaultCamera()
	for i := 0; i < 10; i++ {
		cam.ZoomIn()
	}
	if d := cam.Eye.Len(); math.Abs(float64(d-MinDistance)) > 1e-5 {
		t.Errorf("zoomed-in distance = %v, want %v", d, MinDistance)
	}
	cam.ZoomOut()
	if d := cam.Eye.Len(); math.Abs(float64(d-3.5)) > 1e-5 {
		t.Errorf("distance after one zoom out = %v, want 3.5", d)
	}
	for i := 0; i < 30; i++ {
		cam.ZoomOut()
	}
	if d := cam.Eye.Len(); math.Abs(float64(d-MaxDistance)) > 1e-5 {
		t.Errorf("zoomed-out distance = %v, want %v", d, MaxDistance)
	}
	if !cam.Eye.Normalize().ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("zoom changed the view direction: %v", cam.Eye)
	}
}
