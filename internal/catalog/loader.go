package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cheeseburger9309/AstraSim/internal/metrics"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
)

var tracer = otel.Tracer("github.com/cheeseburger9309/AstraSim/internal/catalog")

// Fetcher pulls raw element-set text from a remote source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Loader produces the session catalog. It tries the network source, then the
// newest disk snapshot, then the bundled fallback text; every path goes
// through Ingest. Load always returns a catalog.
type Loader struct {
	Fetcher Fetcher          // nil disables the network pull
	Cache   *tle.Cache       // nil disables the disk snapshot
	Logger  *slog.Logger
	Now     func() time.Time // defaults to time.Now
}

// Load runs the source chain once.
func (l *Loader) Load(ctx context.Context) *Catalog {
	ctx, span := tracer.Start(ctx, "catalog.Load")
	defer span.End()

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	cat := l.load(ctx, now().UTC())

	span.SetAttributes(
		attribute.String("catalog.source", string(cat.Source())),
		attribute.Int("catalog.objects", cat.Len()),
	)
	metrics.IncCatalogLoad(string(cat.Source()))
	for category, n := range cat.Counts() {
		metrics.SetCatalogObjects(category.String(), n)
	}
	return cat
}

func (l *Loader) load(ctx context.Context, now time.Time) *Catalog {
	if l.Fetcher != nil {
		cat, err := l.fromNetwork(ctx, now)
		if err == nil {
			return cat
		}
		l.Logger.Warn("element set source unavailable, falling back", "error", err)
	}

	if l.Cache != nil {
		data, ts, err := l.Cache.LoadLatest()
		switch {
		case err == nil:
			if cat := Ingest(data, SourceCache, ts, l.Logger); cat.Len() > 0 {
				return cat
			}
			l.Logger.Warn("cached element sets held no usable objects", "cached_at", ts.Format(time.RFC3339))
		case errors.Is(err, tle.ErrNoCache):
			l.Logger.Info("no element set cache found", "dir", l.Cache.Dir())
		default:
			l.Logger.Warn("reading element set cache failed", "error", err)
		}
	}

	l.Logger.Info("using bundled fallback element sets")
	return Ingest(tle.Fallback, SourceFallback, now, l.Logger)
}

func (l *Loader) fromNetwork(ctx context.Context, now time.Time) (*Catalog, error) {
	data, err := l.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	cat := Ingest(data, SourceNetwork, now, l.Logger)
	if cat.Len() == 0 {
		return nil, fmt.Errorf("%w: response held no usable element sets", tle.ErrSourceUnavailable)
	}

	if l.Cache != nil {
		if err := l.Cache.Write(data, now); err != nil {
			l.Logger.Warn("writing element set cache failed", "error", err)
		}
	}
	return cat, nil
}
