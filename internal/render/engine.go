// Package render turns propagated object states into the per-object render
// batch: position in globe space, visibility, scale and color.
package render

import (
	"fmt"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/transform"
)

const (
	// DefaultRenderRadius is the globe radius in render units.
	DefaultRenderRadius = 1.0

	// DefaultBaseScale is the scale of an unselected, visible marker.
	DefaultBaseScale = 1.0

	selectedFactor = 2
)

// Engine writes render states into a batch.
type Engine struct {
	RenderRadius float64
	BaseScale    float32
}

// NewEngine returns an engine for a globe of renderRadius units. Non-positive
// arguments select the defaults.
func NewEngine(renderRadius float64, baseScale float32) *Engine {
	if renderRadius <= 0 {
		renderRadius = DefaultRenderRadius
	}
	if baseScale <= 0 {
		baseScale = DefaultBaseScale
	}
	return &Engine{RenderRadius: renderRadius, BaseScale: baseScale}
}

// ApplyStats counts what one Apply call did.
type ApplyStats struct {
	Written int
	Skipped int
	Visible int
}

// Apply computes the render state of every object from its propagated state
// and the view, writing slot i for catalog object i. A slot whose state is
// invalid is left as it was, so a transient propagation miss keeps the
// object's last position on screen.
func (e *Engine) Apply(b *Batch, cat *catalog.Catalog, states []propagation.OrbitalState, view *ViewState) (ApplyStats, error) {
	var stats ApplyStats
	if b.Len() != cat.Len() || len(states) != cat.Len() {
		return stats, fmt.Errorf("batch has %d slots, catalog %d objects, %d states", b.Len(), cat.Len(), len(states))
	}

	for i, st := range states {
		if !st.Valid {
			stats.Skipped++
			continue
		}
		o := cat.At(i)
		rs := e.stateFor(o, st, view)
		b.write(i, rs)
		stats.Written++
		if rs.Visible {
			stats.Visible++
		}
	}
	return stats, nil
}

func (e *Engine) stateFor(o *catalog.Object, st propagation.OrbitalState, view *ViewState) RenderState {
	selected := view.Selection.Is(o.Index)

	rs := RenderState{
		Position: transform.ToRender(st.Position, e.RenderRadius),
		Visible:  view.Filters.Visible(o.Category),
		Color:    o.Color,
		Written:  true,
	}
	switch {
	case !rs.Visible:
		rs.Scale = 0
	case selected:
		rs.Scale = e.BaseScale * selectedFactor
	default:
		rs.Scale = e.BaseScale
	}
	if selected {
		rs.Color = catalog.EmphasisColor
	}
	return rs
}
