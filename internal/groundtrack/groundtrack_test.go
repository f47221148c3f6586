package groundtrack

import (
	"math"
	"testing"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

var epoch = time.Date(2026, 10, 7, 12, 0, 0, 0, time.UTC)

func mustElements(t *testing.T, name, line1, line2 string) *propagation.Elements {
	t.Helper()
	rec, err := tle.ParseRecord(name, line1, line2)
	if err != nil {
		t.Fatal(err)
	}
	el, err := propagation.NewElements(rec)
	if err != nil {
		t.Fatal(err)
	}
	return el
}

func iss(t *testing.T) *propagation.Elements {
	return mustElements(t, "ISS (ZARYA)",
		"1 25544U 98067A   26280.50000000  .00016717  00000-0  30270-3 0  9990",
		"2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.50377579470111")
}

func TestOrbitPath(t *testing.T) {
	el := iss(t)
	path := OrbitPath(el, epoch, 1)

	if len(path) != 441 {
		t.Fatalf("len(path) = %d, want 441", len(path))
	}

	// Every point sits a little above the unit globe.
	for i, p := range path {
		if r := p.Len(); r < 1.0 || r > 1.1 {
			t.Fatalf("point %d radius %.4f outside LEO shell", i, r)
		}
	}

	// 1.1 periods: the last point has passed the first one again and lies
	// near the point one tenth of a period in.
	tenth := path[40]
	if d := path[440].Sub(tenth).Len(); d > 0.05 {
		t.Errorf("end of path is %.4f from the point one period earlier", d)
	}
	if path[0].Sub(path[440]).Len() < 0.1 {
		t.Error("path should overrun its start by a tenth of an orbit")
	}
}

func TestOrbitPathScalesWithRadius(t *testing.T) {
	el := iss(t)
	a := OrbitPath(el, epoch, 1)
	b := OrbitPath(el, epoch, 15)
	if got := b[10].Len() / a[10].Len(); math.Abs(float64(got)-15) > 1e-3 {
		t.Errorf("radius ratio = %v, want 15", got)
	}
}

func TestOrbitPathNoElements(t *testing.T) {
	if OrbitPath(nil, epoch, 1) != nil {
		t.Error("nil elements should give a nil path")
	}
}

func TestGroundTrack(t *testing.T) {
	el := iss(t)
	pts := GroundTrack(el, epoch)
	if len(pts) != 181 {
		t.Fatalf("len = %d, want 181", len(pts))
	}
	if !pts[0].Time.Equal(epoch.Add(-90*time.Minute)) || !pts[180].Time.Equal(epoch.Add(90*time.Minute)) {
		t.Errorf("window %v to %v", pts[0].Time, pts[180].Time)
	}
	for i, p := range pts {
		if math.Abs(p.LatDeg) > 52 {
			t.Errorf("point %d latitude %.2f beyond the inclination", i, p.LatDeg)
		}
		if p.LonDeg < -180 || p.LonDeg >= 180 {
			t.Errorf("point %d longitude %.2f out of range", i, p.LonDeg)
		}
		if p.AltKm < 300 || p.AltKm > 500 {
			t.Errorf("point %d altitude %.1f km", i, p.AltKm)
		}
	}
}

func TestTrackInvalidWindow(t *testing.T) {
	el := iss(t)
	if Track(el, epoch, epoch.Add(-time.Minute), time.Minute) != nil {
		t.Error("reversed window should be empty")
	}
	if Track(el, epoch, epoch.Add(time.Hour), 0) != nil {
		t.Error("zero step should be empty")
	}
}

func TestSplit(t *testing.T) {
	pt := func(lon float64) Point {
		return Point{Geodetic: transform.Geodetic{LonDeg: lon}}
	}

	tests := []struct {
		name string
		lons []float64
		runs []int
	}{
		{"empty", nil, nil},
		{"no crossing", []float64{-10, 0, 10, 20}, []int{4}},
		{"one crossing", []float64{170, 176, -178, -172}, []int{2, 2}},
		{"two crossings", []float64{179, -179, -170, 175, 178}, []int{1, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pts []Point
			for _, l := range tt.lons {
				pts = append(pts, pt(l))
			}
			runs := Split(pts)
			if len(runs) != len(tt.runs) {
				t.Fatalf("got %d runs, want %d", len(runs), len(tt.runs))
			}
			for i, r := range runs {
				if len(r) != tt.runs[i] {
					t.Errorf("run %d has %d points, want %d", i, len(r), tt.runs[i])
				}
			}
		})
	}
}

func TestSplitRealTrack(t *testing.T) {
	// Three hours of ISS ground track crosses the antimeridian at least once.
	runs := Split(GroundTrack(iss(t), epoch))
	if len(runs) < 2 {
		t.Fatalf("got %d runs, want at least 2", len(runs))
	}
	total := 0
	for _, r := range runs {
		total += len(r)
		for i := 1; i < len(r); i++ {
			if math.Abs(r[i].LonDeg-r[i-1].LonDeg) > 180 {
				t.Error("run jumps across the antimeridian")
			}
		}
	}
	if total != 181 {
		t.Errorf("runs hold %d points, want 181", total)
	}
}
