package render

import (
	"github.com/cheeseburger9309/AstraSim/internal/catalog"
)

// FilterSet maps a category to whether its objects are shown. A category with
// no entry is shown.
type FilterSet map[catalog.Category]bool

// DefaultFilters returns a FilterSet with every category shown.
func DefaultFilters() FilterSet {
	f := make(FilterSet, len(catalog.Categories))
	for _, c := range catalog.Categories {
		f[c] = true
	}
	return f
}

// Visible reports whether objects of category c are shown.
func (f FilterSet) Visible(c catalog.Category) bool {
	on, ok := f[c]
	return !ok || on
}

// Toggle flips category c and returns its new state.
func (f FilterSet) Toggle(c catalog.Category) bool {
	on := !f.Visible(c)
	f[c] = on
	return on
}

// Clone returns an independent copy.
func (f FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(f))
	for c, on := range f {
		out[c] = on
	}
	return out
}

// Selection identifies at most one catalog object. It refers to the object by
// index and name and never holds the object itself.
type Selection struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// NoSelection is the empty selection.
var NoSelection = Selection{Index: -1}

// Active reports whether an object is selected.
func (s Selection) Active() bool {
	return s.Index >= 0
}

// Is reports whether index i is the selected object.
func (s Selection) Is(i int) bool {
	return s.Active() && s.Index == i
}

// ViewState is the user-controlled part of the view: category filters and the
// selection. It is owned by one goroutine and is not safe for concurrent use.
type ViewState struct {
	Filters   FilterSet
	Selection Selection
}

// NewViewState returns a view with every category shown and nothing selected.
func NewViewState() *ViewState {
	return &ViewState{
		Filters:   DefaultFilters(),
		Selection: NoSelection,
	}
}

// Select makes o the selection. A nil object clears it.
func (v *ViewState) Select(o *catalog.Object) {
	if o == nil {
		v.Selection = NoSelection
		return
	}
	v.Selection = Selection{Index: o.Index, Name: o.Name}
}

// Clear drops the selection.
func (v *ViewState) Clear() {
	v.Selection = NoSelection
}

// Click applies a pick result with toggle semantics: a hit on the selected
// object clears the selection, a hit on any other object selects it, and a
// miss (nil) clears. It returns the resulting selection.
func (v *ViewState) Click(hit *catalog.Object) Selection {
	switch {
	case hit == nil:
		v.Clear()
	case v.Selection.Is(hit.Index):
		v.Clear()
	default:
		v.Select(hit)
	}
	return v.Selection
}
