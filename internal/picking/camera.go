package picking

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Zoom limits on the camera's distance from the globe centre, in render units.
const (
	MinDistance = 3
	MaxDistance = 10
	ZoomStep    = 0.5
)

// Camera is a perspective camera looking at the globe.
type Camera struct {
	Eye     mgl32.Vec3 `json:"eye"`
	Target  mgl32.Vec3 `json:"target"`
	Up      mgl32.Vec3 `json:"up"`
	FovYDeg float32    `json:"fov_y_deg"`
	Near    float32    `json:"near"`
	Far     float32    `json:"far"`
}

// DefaultCamera sits 5 units out on +Z with a 45° vertical field of view.
func DefaultCamera() Camera {
	return Camera{
		Eye:     mgl32.Vec3{0, 0, 5},
		Up:      mgl32.Vec3{0, 1, 0},
		FovYDeg: 45,
		Near:    0.1,
		Far:     1000,
	}
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the perspective matrix for the given aspect ratio.
func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovYDeg), aspect, c.Near, c.Far)
}

// ZoomIn moves the eye ZoomStep closer to the target, stopping at MinDistance.
func (c *Camera) ZoomIn() {
	c.setDistance(c.distance() - ZoomStep)
}

// ZoomOut moves the eye ZoomStep away from the target, stopping at MaxDistance.
func (c *Camera) ZoomOut() {
	c.setDistance(c.distance() + ZoomStep)
}

func (c *Camera) distance() float32 {
	return c.Eye.Sub(c.Target).Len()
}

func (c *Camera) setDistance(d float32) {
	d = mgl32.Clamp(d, MinDistance, MaxDistance)
	dir := c.Eye.Sub(c.Target)
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, 0, 1}
	}
	c.Eye = c.Target.Add(dir.Normalize().Mul(d))
}

// Ray is a half-line in render space. Dir is unit length.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// Ray unprojects a normalised device coordinate into a world-space ray by
// taking the near- and far-plane points through inverse(projection · view).
func (c Camera) Ray(ndc mgl32.Vec2, aspect float32) (Ray, bool) {
	inv := c.Projection(aspect).Mul4(c.View()).Inv()
	if inv == (mgl32.Mat4{}) {
		return Ray{}, false
	}

	near, ok := unproject(inv, ndc, -1)
	if !ok {
		return Ray{}, false
	}
	far, ok := unproject(inv, ndc, 1)
	if !ok {
		return Ray{}, false
	}

	dir := far.Sub(near)
	if dir.Len() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: near, Dir: dir.Normalize()}, true
}

func unproject(inv mgl32.Mat4, ndc mgl32.Vec2, z float32) (mgl32.Vec3, bool) {
	p := inv.Mul4x1(mgl32.Vec4{ndc.X(), ndc.Y(), z, 1})
	if p.W() == 0 {
		return mgl32.Vec3{}, false
	}
	return p.Vec3().Mul(1 / p.W()), true
}
