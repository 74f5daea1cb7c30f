package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

// itemBounce is the fraction of velocity kept (and reversed) when an item
// hits the viewport edge.
const itemBounce = 0.5

// BoundaryClamp keeps bodies inside the camera frustum at the action plane.
type BoundaryClamp struct {
	cam    *scene.Camera
	margin float64
}

func NewBoundaryClamp(cam *scene.Camera, margin float64) *BoundaryClamp {
	return &BoundaryClamp{cam: cam, margin: margin}
}

// Extents returns the visible half-width and half-height at the plane
// passing through point, minus the configured margin.
func (bc *BoundaryClamp) Extents(point mgl64.Vec3) (halfW, halfH float64) {
	halfW, halfH = bc.cam.HalfExtentsAt(bc.cam.SubjectDistance(point))
	halfW -= bc.margin
	halfH -= bc.margin
	if halfW < 0 {
		halfW = 0
	}
	if halfH < 0 {
		halfH = 0
	}
	return halfW, halfH
}

// clampDragTarget limits a drag target so the model footprint stays
// visible. The bound is inset by half the model's half-extent on each axis.
func clampDragTarget(target mgl64.Vec3, halfW, halfH, halfModelW, halfModelH, groundY float64) mgl64.Vec3 {
	boundX := halfW - halfModelW*0.5
	boundY := halfH - halfModelH*0.5
	x := mgl64.Clamp(target.X(), -boundX, boundX)
	y := mgl64.Clamp(target.Y(), groundY, boundY)
	return mgl64.Vec3{x, y, 0}
}

// ClampCharacter pushes the body back inside the bounds and zeroes the
// velocity on each clamped axis. Idempotent: a body already inside (or
// exactly on a bound) is untouched.
func (bc *BoundaryClamp) ClampCharacter(body *physics.Body, halfFootW, halfFootH, groundY float64) bool {
	halfW, halfH := bc.Extents(body.Position)
	boundX := halfW - halfFootW*0.5
	boundY := halfH - halfFootH*0.5

	clamped := false
	pos := body.Position
	vel := body.Velocity

	if x := mgl64.Clamp(pos.X(), -boundX, boundX); x != pos.X() {
		pos[0] = x
		vel[0] = 0
		clamped = true
	}
	if y := mgl64.Clamp(pos.Y(), groundY+halfFootH, boundY); y != pos.Y() {
		pos[1] = y
		vel[1] = 0
		clamped = true
	}

	body.Position = pos
	body.Velocity = vel
	return clamped
}

// ClampItem pushes an item back inside the bounds, reflecting the velocity
// on the clamped axis so thrown items bounce off the viewport edges. The
// lower bound is left to the floor plane.
func (bc *BoundaryClamp) ClampItem(body *physics.Body, radius float64) bool {
	halfW, halfH := bc.Extents(body.Position)
	boundX := halfW - radius
	boundY := halfH - radius

	clamped := false
	pos := body.Position
	vel := body.Velocity

	if x := mgl64.Clamp(pos.X(), -boundX, boundX); x != pos.X() {
		pos[0] = x
		vel[0] = -vel[0] * itemBounce
		clamped = true
	}
	if pos.Y() > boundY {
		pos[1] = boundY
		vel[1] = -vel[1] * itemBounce
		clamped = true
	}

	body.Position = pos
	body.Velocity = vel
	return clamped
}
