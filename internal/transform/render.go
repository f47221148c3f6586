package transform

import "github.com/go-gl/mathgl/mgl32"

// EarthRadiusKm is the mean Earth radius the render globe is scaled against.
const EarthRadiusKm = 6371.0

// RenderScale returns the factor that maps kilometres onto a globe of the
// given render radius.
func RenderScale(renderRadius float64) float64 {
	return renderRadius / EarthRadiusKm
}

// ToRender maps an inertial position (km) into render space for a globe of
// renderRadius units. The renderer is Y-up, so inertial Z becomes render Y
// and inertial Y becomes render -Z: (x, y, z) → (x, z, -y) · scale.
func ToRender(p Vec3, renderRadius float64) mgl32.Vec3 {
	s := RenderScale(renderRadius)
	return mgl32.Vec3{
		float32(p.X * s),
		float32(p.Z * s),
		float32(-p.Y * s),
	}
}
