package catalog

import (
	"bytes"
	"log/slog"
	"strings"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
)

// Ingest parses element-set text into a catalog. It never fails: malformed
// records, records the propagator cannot initialise and duplicate names are
// logged and left out, so the result may hold fewer objects than the text
// has records (possibly none).
func Ingest(data []byte, source Source, loadedAt time.Time, logger *slog.Logger) *Catalog {
	records, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		logger.Warn("reading element sets failed", "source", source, "error", err)
	}

	cat := &Catalog{
		objects:  make([]Object, 0, len(records)),
		elements: make([]*propagation.Elements, 0, len(records)),
		byName:   make(map[string]int, len(records)),
		source:   source,
		loadedAt: loadedAt,
	}

	kept := make([]tle.Record, 0, len(records))
	for _, rec := range records {
		key := strings.ToUpper(rec.Name)
		if _, dup := cat.byName[key]; dup {
			logger.Warn("skipping duplicate object name", "name", rec.Name, "norad_id", rec.NORADID)
			continue
		}

		el, err := propagation.NewElements(rec)
		if err != nil {
			logger.Warn("skipping element set", "name", rec.Name, "norad_id", rec.NORADID, "error", err)
			continue
		}

		category := Classify(rec.Name)
		idx := len(cat.objects)
		cat.objects = append(cat.objects, Object{
			Index:    idx,
			Name:     rec.Name,
			Record:   rec,
			Elements: el,
			Category: category,
			Color:    ColorFor(category),
		})
		cat.elements = append(cat.elements, el)
		cat.byName[key] = idx
		kept = append(kept, rec)
	}
	cat.epochs = tle.RangeOf(kept)

	logger.Info("catalog ingested",
		"source", source,
		"records", len(records),
		"objects", len(cat.objects),
		"loaded_at", loadedAt.UTC().Format(time.RFC3339),
	)
	return cat
}
