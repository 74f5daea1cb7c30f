package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelEpsilon bounds how close a ray may be to parallel with the drag
// plane before projection is refused.
const parallelEpsilon = 1e-9

// Ray is a half-line in world space. Dir is unit length.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// PointerRay builds the world-space ray from the camera through a pointer
// position given in viewport pixels.
func (c *Camera) PointerRay(px, py, viewportW, viewportH float64) Ray {
	ndcX := 2*px/viewportW - 1
	ndcY := 1 - 2*py/viewportH
	tanHalf := math.Tan(mgl64.DegToRad(c.FOVDegrees) / 2)
	local := mgl64.Vec3{ndcX * tanHalf * c.Aspect, ndcY * tanHalf, -1}
	return Ray{
		Origin: c.Position,
		Dir:    c.Orientation.Rotate(local).Normalize(),
	}
}

// ProjectPointer intersects the pointer ray with the plane that passes
// through anchor and faces the camera (perpendicular to the view direction),
// which keeps projected motion consistent under camera tilt. ok is false for
// the degenerate near-parallel case; callers skip that frame.
func (c *Camera) ProjectPointer(px, py, viewportW, viewportH float64, anchor mgl64.Vec3) (mgl64.Vec3, bool) {
	if viewportW <= 0 || viewportH <= 0 {
		return mgl64.Vec3{}, false
	}
	ray := c.PointerRay(px, py, viewportW, viewportH)
	normal := c.Forward()

	denom := ray.Dir.Dot(normal)
	if math.Abs(denom) < parallelEpsilon {
		return mgl64.Vec3{}, false
	}
	t := anchor.Sub(ray.Origin).Dot(normal) / denom
	if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return mgl64.Vec3{}, false
	}
	return ray.Origin.Add(ray.Dir.Mul(t)), true
}
