// Package observer resolves the ground location pass predictions are made
// for.
package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

// ErrLocationUnavailable is returned by a Locator that cannot place the
// caller.
var ErrLocationUnavailable = errors.New("observer location unavailable")

// Location is an observer on the ground.
type Location struct {
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
	AltM   float64 `json:"alt_m"`
	Source string  `json:"source"`
}

// Default is used whenever no better location is known.
var Default = Location{Source: "default"}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if l.LatDeg < -90 || l.LatDeg > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", l.LatDeg)
	}
	if l.LonDeg < -180 || l.LonDeg > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", l.LonDeg)
	}
	return nil
}

// Position returns the observer's Earth-fixed position.
func (l Location) Position() transform.ObserverPosition {
	return transform.NewObserverPosition(l.LatDeg, l.LonDeg, l.AltM)
}

// Locator places a client on the globe.
type Locator interface {
	Locate(ctx context.Context, ip net.IP) (Location, error)
}

// Static always answers with the same location.
type Static struct {
	Location Location
}

// Locate implements Locator.
func (s Static) Locate(context.Context, net.IP) (Location, error) {
	return s.Location, nil
}

// Resolve asks loc for the caller's location and falls back to Default when
// it cannot answer. The failure is logged, never returned.
func Resolve(ctx context.Context, loc Locator, ip net.IP, logger *slog.Logger) Location {
	if loc == nil {
		return Default
	}
	l, err := loc.Locate(ctx, ip)
	if err == nil {
		err = l.Validate()
	}
	if err != nil {
		logger.Info("observer location unavailable, using default", "ip", ip.String(), "error", err)
		return Default
	}
	return l
}
