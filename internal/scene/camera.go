package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is the server-side mirror of the client's perspective camera. The
// simulation needs it for pointer projection and frustum-derived bounds;
// rendering stays on the client.
type Camera struct {
	FOVDegrees  float64
	Aspect      float64
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// NewCamera places a camera on the +Z axis looking at the origin.
func NewCamera(fovDegrees, aspect, distance float64) *Camera {
	return &Camera{
		FOVDegrees:  fovDegrees,
		Aspect:      aspect,
		Position:    mgl64.Vec3{0, 0, distance},
		Orientation: mgl64.QuatIdent(),
	}
}

// Forward returns the view direction.
func (c *Camera) Forward() mgl64.Vec3 {
	return c.Orientation.Rotate(mgl64.Vec3{0, 0, -1})
}

// Resize updates the aspect ratio from a new viewport size.
func (c *Camera) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = width / height
}

// HalfExtentsAt derives the visible half-width and half-height of the
// frustum slice at the given distance in front of the camera.
func (c *Camera) HalfExtentsAt(distance float64) (halfW, halfH float64) {
	halfH = math.Tan(mgl64.DegToRad(c.FOVDegrees)/2) * distance
	halfW = halfH * c.Aspect
	return halfW, halfH
}

// SubjectDistance returns the distance from the camera to a world point
// measured along the view direction.
func (c *Camera) SubjectDistance(point mgl64.Vec3) float64 {
	return point.Sub(c.Position).Dot(c.Forward())
}
