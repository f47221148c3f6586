// Package catalog holds the ordered, read-only set of tracked objects. An
// object's position in the catalog is its render and pick index for the
// catalog's whole lifetime; catalogs are replaced wholesale, never edited.
package catalog

import (
	"strings"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
)

// Source records where a catalog's element sets came from.
type Source string

const (
	SourceNetwork  Source = "network"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Object is one tracked object. It is immutable once ingested.
type Object struct {
	Index    int
	Name     string
	Record   tle.Record
	Elements *propagation.Elements
	Category Category
	Color    Color
}

// Catalog is an ordered set of objects loaded from one source.
type Catalog struct {
	objects  []Object
	elements []*propagation.Elements
	byName   map[string]int
	source   Source
	loadedAt time.Time
	epochs   tle.EpochRange
}

// Len returns the number of objects.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.objects)
}

// At returns the object at index i, or nil when i is out of range.
func (c *Catalog) At(i int) *Object {
	if c == nil || i < 0 || i >= len(c.objects) {
		return nil
	}
	return &c.objects[i]
}

// Objects returns the objects in index order. Callers must not modify the slice.
func (c *Catalog) Objects() []Object {
	if c == nil {
		return nil
	}
	return c.objects
}

// Elements returns the propagator records index-aligned with Objects.
func (c *Catalog) Elements() []*propagation.Elements {
	if c == nil {
		return nil
	}
	return c.elements
}

// Lookup finds an object by exact name, ignoring case.
func (c *Catalog) Lookup(name string) (*Object, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return &c.objects[i], true
}

// Source returns where the catalog was loaded from.
func (c *Catalog) Source() Source {
	if c == nil {
		return ""
	}
	return c.source
}

// LoadedAt returns when the underlying text was fetched.
func (c *Catalog) LoadedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.loadedAt
}

// Epochs returns the element-set epoch range of the catalog.
func (c *Catalog) Epochs() tle.EpochRange {
	if c == nil {
		return tle.EpochRange{}
	}
	return c.epochs
}
