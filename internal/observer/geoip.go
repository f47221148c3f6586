package observer

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// GeoIP locates clients by address using a MaxMind-format city database.
type GeoIP struct {
	reader *maxminddb.Reader
}

type cityRecord struct {
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// OpenGeoIP opens the database file at path.
func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening GeoIP database: %w", err)
	}
	return &GeoIP{reader: r}, nil
}

// NewGeoIP reads a database held in memory.
func NewGeoIP(db []byte) (*GeoIP, error) {
	r, err := maxminddb.FromBytes(db)
	if err != nil {
		return nil, fmt.Errorf("reading GeoIP database: %w", err)
	}
	return &GeoIP{reader: r}, nil
}

// Locate implements Locator. Addresses that cannot be on the public
// internet are not looked up.
func (g *GeoIP) Locate(_ context.Context, ip net.IP) (Location, error) {
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return Location{}, fmt.Errorf("%w: %v is not a public address", ErrLocationUnavailable, ip)
	}
	if g == nil || g.reader == nil {
		return Location{}, fmt.Errorf("%w: no GeoIP database", ErrLocationUnavailable)
	}

	var rec cityRecord
	if err := g.reader.Lookup(ip, &rec); err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return Location{}, fmt.Errorf("%w: %v not in database", ErrLocationUnavailable, ip)
	}
	return Location{
		LatDeg: rec.Location.Latitude,
		LonDeg: rec.Location.Longitude,
		Source: "geoip",
	}, nil
}

// Close releases the database.
func (g *GeoIP) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}
