package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/tle"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

var loadTime = time.Date(2026, 10, 7, 12, 0, 0, 0, time.UTC)

const (
	issText = "ISS (ZARYA)\n" +
		"1 25544U 98067A   26280.50000000  .00016717  00000-0  30270-3 0  9990\n" +
		"2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.50377579470111\n"
	starlinkText = "STARLINK-1007\n" +
		"1 44713U 19074A   26280.50000000  .00001000  00000-0  10000-4 0  9999\n" +
		"2 44713  53.0540 200.0000 0001500  90.0000 270.0000 15.06400000380023\n"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"ISS (ZARYA)", CategoryStation},
		{"TIANGONG (TIANHE)", CategoryStation},
		{"HST", CategoryStation},
		{"COSMOS 2251 DEB", CategoryDebris},
		{"FENGYUN 1C DEB", CategoryDebris},
		{"COSMOS 2545", CategoryDebris},
		{"NAVSTAR 81 (USA 319)", CategoryGPS},
		{"GPS BIIR-2  (PRN 13)", CategoryGPS},
		{"STARLINK-1007", CategoryStarlink},
		{"starlink-30012", CategoryStarlink},
		{"NOAA 19", CategoryOther},
		{"", CategoryOther},

		// Several keywords: the highest priority class wins.
		{"ISS DEB", CategoryStation},
		{"STARLINK DEB", CategoryDebris},
		{"GPS DEB", CategoryDebris},
		{"STARLINK GPS TESTBED", CategoryGPS},
		{"HST STARLINK", CategoryStation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCategoryText(t *testing.T) {
	for _, c := range Categories {
		b, err := c.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Category
		if err := back.UnmarshalText(b); err != nil || back != c {
			t.Errorf("category %v round-tripped to %v (err %v)", c, back, err)
		}
	}
	if _, err := ParseCategory("Debris "); err != nil {
		t.Errorf("ParseCategory should ignore case and space: %v", err)
	}
	if _, err := ParseCategory("asteroid"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestColors(t *testing.T) {
	tests := []struct {
		category Category
		hex      string
	}{
		{CategoryStarlink, "#FFFFFF"},
		{CategoryStation, "#00FFFF"},
		{CategoryDebris, "#FF0000"},
		{CategoryGPS, "#FFD700"},
		{CategoryOther, "#AAAAAA"},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.category).Hex(); got != tt.hex {
			t.Errorf("ColorFor(%v) = %s, want %s", tt.category, got, tt.hex)
		}
		parsed, err := ParseHex(tt.hex)
		if err != nil || parsed != ColorFor(tt.category) {
			t.Errorf("ParseHex(%s) = %v, %v", tt.hex, parsed, err)
		}
	}
	if EmphasisColor.Hex() != "#00FFFF" {
		t.Errorf("EmphasisColor = %s, want #00FFFF", EmphasisColor.Hex())
	}
	if _, err := ParseHex("00FFFF"); err == nil {
		t.Error("expected error for color without #")
	}
}

// TestIngestFallback is the cold-start scenario: seven records, one of them
// malformed, produce six objects with exactly one debris object.
func TestIngestFallback(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	cat := Ingest(tle.Fallback, SourceFallback, loadTime, logger)

	if cat.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", cat.Len())
	}
	counts := cat.Counts()
	if counts[CategoryDebris] != 1 {
		t.Errorf("debris = %d, want 1", counts[CategoryDebris])
	}
	if counts[CategoryStation] != 3 || counts[CategoryGPS] != 1 || counts[CategoryStarlink] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if !strings.Contains(logs.String(), "STARLINK-1008") {
		t.Error("malformed record was not logged")
	}
	if cat.Source() != SourceFallback || !cat.LoadedAt().Equal(loadTime) {
		t.Errorf("source/loaded_at = %v/%v", cat.Source(), cat.LoadedAt())
	}
}

// TestIngestIndexStable checks that index i always refers to the i-th kept
// object and that the propagator records line up with it.
func TestIngestIndexStable(t *testing.T) {
	cat := Ingest(tle.Fallback, SourceFallback, loadTime, testLogger())

	if len(cat.Elements()) != cat.Len() {
		t.Fatalf("elements %d, objects %d", len(cat.Elements()), cat.Len())
	}
	for i, o := range cat.Objects() {
		if o.Index != i {
			t.Errorf("object %q has index %d at position %d", o.Name, o.Index, i)
		}
		if cat.At(i).Name != o.Name {
			t.Errorf("At(%d) = %q, want %q", i, cat.At(i).Name, o.Name)
		}
		if cat.Elements()[i] != o.Elements {
			t.Errorf("elements misaligned at %d", i)
		}
		if o.Color != ColorFor(o.Category) {
			t.Errorf("object %q color %s, want %s", o.Name, o.Color.Hex(), ColorFor(o.Category).Hex())
		}
	}
	if cat.At(-1) != nil || cat.At(cat.Len()) != nil {
		t.Error("At out of range returned an object")
	}

	// The malformed STARLINK-1008 sits between STARLINK-1007 and the GPS
	// record; skipping it must not shift anything but the indices after it.
	if cat.At(3).Name != "STARLINK-1007" || cat.At(4).Name != "GPS BIIR-2  (PRN 13)" {
		t.Errorf("unexpected order: %q, %q", cat.At(3).Name, cat.At(4).Name)
	}
}

func TestIngestDuplicatesAndEmpty(t *testing.T) {
	cat := Ingest([]byte(issText+strings.ToLower(issText[:11])+issText[11:]), SourceNetwork, loadTime, testLogger())
	if cat.Len() != 1 {
		t.Errorf("duplicate names: Len() = %d, want 1", cat.Len())
	}
	if _, ok := cat.Lookup("iss (zarya)"); !ok {
		t.Error("Lookup should ignore case")
	}

	empty := Ingest([]byte("nothing useful here\n"), SourceNetwork, loadTime, testLogger())
	if empty.Len() != 0 {
		t.Errorf("garbage input: Len() = %d, want 0", empty.Len())
	}
	if empty.Search("", 0) == nil {
		t.Error("Search on an empty catalog should return an empty slice, not nil")
	}
}

func TestSearch(t *testing.T) {
	cat := Ingest(tle.Fallback, SourceFallback, loadTime, testLogger())

	got := cat.Search("star", 0)
	if len(got) != 1 || got[0].Name != "STARLINK-1007" {
		t.Errorf("Search(star) = %+v", got)
	}
	if got := cat.Search("", 0); len(got) != cat.Len() {
		t.Errorf("empty query returned %d, want all %d", len(got), cat.Len())
	}
	if got := cat.Search("", 2); len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Errorf("limit 2 returned %+v", got)
	}
	if got := cat.Search("voyager", 0); len(got) != 0 {
		t.Errorf("no-match query returned %+v", got)
	}
}

func TestStats(t *testing.T) {
	cat := Ingest(tle.Fallback, SourceFallback, loadTime, testLogger())
	st := cat.Stats()

	if st.Total != 6 || st.Debris != 1 || st.Stations != 3 {
		t.Errorf("stats = %+v", st)
	}
	// Everything but the GPS satellite is in LEO: 5 of 6.
	if want := 5.0 / 6.0 * 100; math.Abs(st.LEODensityPct-want) > 1e-9 {
		t.Errorf("LEODensityPct = %v, want %v", st.LEODensityPct, want)
	}

	var nilCat *Catalog
	if st := nilCat.Stats(); st.Total != 0 || st.LEODensityPct != 0 {
		t.Errorf("nil catalog stats = %+v", st)
	}
}

type stubFetcher struct {
	data []byte
	err  error
}

func (f stubFetcher) Fetch(context.Context) ([]byte, error) {
	return f.data, f.err
}

func TestLoaderNetwork(t *testing.T) {
	cache := tle.NewCache(t.TempDir(), 2)
	l := &Loader{
		Fetcher: stubFetcher{data: []byte(issText + starlinkText)},
		Cache:   cache,
		Logger:  testLogger(),
		Now:     func() time.Time { return loadTime },
	}

	cat := l.Load(context.Background())
	if cat.Source() != SourceNetwork || cat.Len() != 2 {
		t.Fatalf("source %v, len %d; want network, 2", cat.Source(), cat.Len())
	}

	data, ts, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("network load did not write the cache: %v", err)
	}
	if string(data) != issText+starlinkText || !ts.Equal(loadTime) {
		t.Errorf("cache holds %q at %v", data, ts)
	}
}

func TestLoaderFallsBackToCache(t *testing.T) {
	cache := tle.NewCache(t.TempDir(), 2)
	if err := cache.Write([]byte(starlinkText), loadTime.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	l := &Loader{
		Fetcher: stubFetcher{err: tle.ErrSourceUnavailable},
		Cache:   cache,
		Logger:  testLogger(),
	}

	cat := l.Load(context.Background())
	if cat.Source() != SourceCache || cat.Len() != 1 {
		t.Errorf("source %v, len %d; want cache, 1", cat.Source(), cat.Len())
	}
}

func TestLoaderFallsBackToBundled(t *testing.T) {
	tests := []struct {
		name    string
		fetcher Fetcher
	}{
		{"fetch disabled", nil},
		{"source unavailable", stubFetcher{err: errors.New("dial tcp: connection refused")}},
		{"no usable records", stubFetcher{data: []byte("<html>maintenance</html>")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loader{
				Fetcher: tt.fetcher,
				Cache:   tle.NewCache(t.TempDir(), 2),
				Logger:  testLogger(),
				Now:     func() time.Time { return loadTime },
			}
			cat := l.Load(context.Background())
			if cat.Source() != SourceFallback || cat.Len() != 6 {
				t.Errorf("source %v, len %d; want fallback, 6", cat.Source(), cat.Len())
			}
		})
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Get() != nil || s.AgeSeconds() != -1 {
		t.Fatal("new store should be empty")
	}
	cat := Ingest(tle.Fallback, SourceFallback, time.Now().Add(-10*time.Second), testLogger())
	s.Set(cat)
	if s.Get() != cat {
		t.Error("Get did not return the stored catalog")
	}
	if age := s.AgeSeconds(); age < 9 || age > 60 {
		t.Errorf("AgeSeconds = %v, want ~10", age)
	}
}
