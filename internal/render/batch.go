package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
)

// RenderState is one object's per-tick render output. Visibility and scale
// are kept apart so a renderer may cull hidden objects instead of drawing
// them at zero size.
type RenderState struct {
	Position mgl32.Vec3    `json:"position"`
	Scale    float32       `json:"scale"`
	Color    catalog.Color `json:"color"`
	Visible  bool          `json:"visible"`
	// Written is false until the slot has had a valid state.
	Written bool `json:"written"`
}

// Batch holds the render state and instance matrix of every catalog object.
// Slot i belongs to catalog index i. The capacity is fixed when the batch is
// created.
type Batch struct {
	states     []RenderState
	transforms []mgl32.Mat4
}

// NewBatch allocates a batch with n slots.
func NewBatch(n int) *Batch {
	if n < 0 {
		n = 0
	}
	b := &Batch{
		states:     make([]RenderState, n),
		transforms: make([]mgl32.Mat4, n),
	}
	for i := range b.transforms {
		b.transforms[i] = mgl32.Scale3D(0, 0, 0)
	}
	return b
}

// Len returns the number of slots.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.states)
}

// State returns slot i.
func (b *Batch) State(i int) RenderState {
	return b.states[i]
}

// Transform returns the instance matrix of slot i.
func (b *Batch) Transform(i int) mgl32.Mat4 {
	return b.transforms[i]
}

// States returns the slots. Callers must not modify the result.
func (b *Batch) States() []RenderState {
	if b == nil {
		return nil
	}
	return b.states
}

// Clone returns a deep copy.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	out := &Batch{
		states:     make([]RenderState, len(b.states)),
		transforms: make([]mgl32.Mat4, len(b.transforms)),
	}
	copy(out.states, b.states)
	copy(out.transforms, b.transforms)
	return out
}

func (b *Batch) write(i int, s RenderState) {
	b.states[i] = s
	b.transforms[i] = mgl32.Translate3D(s.Position.X(), s.Position.Y(), s.Position.Z()).
		Mul4(mgl32.Scale3D(s.Scale, s.Scale, s.Scale))
}
