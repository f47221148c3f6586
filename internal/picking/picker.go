// Package picking maps pointer events onto catalog objects by casting a
// camera ray against the marker spheres of the current render batch.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/cheeseburger9309/AstraSim/internal/render"
)

// DefaultMarkerRadius is the radius of a marker sphere at scale 1.
const DefaultMarkerRadius = 0.005

// Viewport is the on-screen rectangle the renderer draws into, in pixels.
type Viewport struct {
	Left   float32 `json:"left"`
	Top    float32 `json:"top"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// NDC converts a pointer position to normalised device coordinates. It
// returns false for an empty viewport.
func (v Viewport) NDC(px, py float32) (mgl32.Vec2, bool) {
	if v.Width <= 0 || v.Height <= 0 {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{
		(px-v.Left)/v.Width*2 - 1,
		-(py-v.Top)/v.Height*2 + 1,
	}, true
}

// Aspect returns width / height.
func (v Viewport) Aspect() float32 {
	if v.Height <= 0 {
		return 1
	}
	return v.Width / v.Height
}

// Hit is a successful pick.
type Hit struct {
	Index    int
	Distance float32
}

// Picker finds the marker under a ray.
type Picker struct {
	MarkerRadius float32
}

// NewPicker returns a picker for markers of the given radius at scale 1. A
// non-positive radius selects DefaultMarkerRadius.
func NewPicker(markerRadius float32) *Picker {
	if markerRadius <= 0 {
		markerRadius = DefaultMarkerRadius
	}
	return &Picker{MarkerRadius: markerRadius}
}

// Pick returns the nearest marker the ray passes through. Slots that are
// hidden, zero-scaled or were never written cannot be hit.
func (p *Picker) Pick(ray Ray, b *render.Batch) (Hit, bool) {
	best := Hit{Index: -1, Distance: float32(math.Inf(1))}
	for i, s := range b.States() {
		if !s.Written || !s.Visible || s.Scale <= 0 {
			continue
		}
		d, ok := intersectSphere(ray, s.Position, p.MarkerRadius*s.Scale)
		if ok && d < best.Distance {
			best = Hit{Index: i, Distance: d}
		}
	}
	return best, best.Index >= 0
}

// PickAt runs the whole chain for a pointer event: viewport → NDC → camera
// ray → nearest marker.
func (p *Picker) PickAt(px, py float32, vp Viewport, cam Camera, b *render.Batch) (Hit, bool) {
	ndc, ok := vp.NDC(px, py)
	if !ok {
		return Hit{Index: -1}, false
	}
	ray, ok := cam.Ray(ndc, vp.Aspect())
	if !ok {
		return Hit{Index: -1}, false
	}
	return p.Pick(ray, b)
}

// intersectSphere returns the distance along the ray to the first point of
// the sphere in front of the origin.
func intersectSphere(ray Ray, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := ray.Origin.Sub(center)
	b := oc.Dot(ray.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
