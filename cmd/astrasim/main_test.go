package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cheeseburger9309/AstraSim/internal/config"
	"github.com/cheeseburger9309/AstraSim/internal/observer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// run executes the CLI against an empty cache directory so that offline
// runs always fall back to the bundled elements.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ASTRASIM_TLE_CACHE_DIR", t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	out, err := run(t, "catalog", "--offline", "starlink")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"source:      fallback", "objects:     6", "debris:      1", "STARLINK-1007", "starlink=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ISS (ZARYA)") {
		t.Errorf("search for starlink listed the ISS:\n%s", out)
	}

	out, err = run(t, "catalog", "--offline", "voyager")
	if err != nil || !strings.Contains(out, `no objects match "voyager"`) {
		t.Errorf("empty search = %v:\n%s", err, out)
	}

	if _, err := run(t, "catalog", "--offline", "--limit", "0"); err == nil {
		t.Error("--limit 0 accepted")
	}
}

func TestPassesCommand(t *testing.T) {
	out, err := run(t, "passes", "iss (zarya)", "--offline",
		"--lat", "40.7128", "--lon", "-74.006",
		"--start", "2026-10-07T12:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ISS (ZARYA) (NORAD 25544, station)", "observer 40.7128, -74.0060", "(config)", "START"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPassesCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown object", []string{"passes", "--offline", "STARLINK"}, "STARLINK-1007"},
		{"bad start", []string{"passes", "--offline", "HST", "--start", "tomorrow"}, "--start"},
		{"no name", []string{"passes", "--offline"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestConfiguredObserver(t *testing.T) {
	if got := configuredObserver(config.ObserverConfig{}); got != observer.Default {
		t.Errorf("unset observer = %+v, want default", got)
	}
	got := configuredObserver(config.ObserverConfig{LatDeg: 51.5, LonDeg: -0.12, AltM: 20})
	if got.Source != "config" || got.LatDeg != 51.5 || got.AltM != 20 {
		t.Errorf("observer = %+v", got)
	}
}

func TestTrackerConfigFromDefaults(t *testing.T) {
	cfg, err := config.Load(config.New(), "", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	tc := trackerConfig(cfg)
	if tc.Tick != cfg.Tracker.Tick || tc.Passes.Samples != cfg.Passes.Samples || tc.Passes.MinElevation != 10 {
		t.Errorf("tracker config = %+v", tc)
	}
}
