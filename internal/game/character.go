package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

// State is the character's controller mode. Transitions are one-way per
// interaction: PHYSICS -> DRAG on grab, DRAG -> RECOVER on release,
// RECOVER -> PHYSICS once the body settles. RECOVER never goes straight
// to DRAG; grabs during recovery are ignored.
type State int

const (
	StatePhysics State = iota
	StateDrag
	StateRecover
)

func (s State) String() string {
	switch s {
	case StatePhysics:
		return "physics"
	case StateDrag:
		return "drag"
	case StateRecover:
		return "recover"
	default:
		return "unknown"
	}
}

// Character owns the ragdoll body, its scene node and the procedural pose
// state (limb springs plus velocity tilt).
type Character struct {
	Body *physics.Body
	Node *scene.Object

	// Skeleton is nil until the model asset resolves.
	Skeleton *scene.ResolvedSkeleton

	cfg    config.CharacterConfig
	logger *zap.Logger

	state      State
	dragOffset mgl64.Vec3
	desired    mgl64.Vec3
	hasDesired bool

	top    SpringState
	bottom SpringState
	tiltX  float64
	tiltZ  float64

	onTransition func(from, to State)
}

func NewCharacter(body *physics.Body, node *scene.Object, cfg config.CharacterConfig, logger *zap.Logger) *Character {
	return &Character{
		Body:   body,
		Node:   node,
		cfg:    cfg,
		logger: logger,
		state:  StatePhysics,
	}
}

func (c *Character) State() State { return c.state }

// OnTransition registers a hook called on every state change.
func (c *Character) OnTransition(fn func(from, to State)) {
	c.onTransition = fn
}

func (c *Character) setState(next State) {
	if next == c.state {
		return
	}
	prev := c.state
	c.state = next
	c.logger.Debug("character state change",
		zap.String("from", prev.String()),
		zap.String("to", next.String()))
	if c.onTransition != nil {
		c.onTransition(prev, next)
	}
}

// AttachSkeleton binds the resolved model rig and re-syncs the node and
// collision shape to the real model dimensions. Called once the asset
// library finishes loading, which may be well after the first ticks.
func (c *Character) AttachSkeleton(skel *scene.ResolvedSkeleton, model *scene.CharacterModel) {
	c.Skeleton = skel
	size := model.SizeVec()
	c.Node.Size = size
	c.Body.Shape = physics.NewBoxShape(size.X(), size.Y(), size.Z())
	c.logger.Info("character model resolved",
		zap.String("model", model.Name),
		zap.Float64("height", size.Y()))
}

// TryGrab runs the head hit-test chain and, on success, enters DRAG.
// rayHit reports whether the pointer ray intersected the character's
// bounding box at all; pointerWorld is the projected pointer position.
func (c *Character) TryGrab(pointerWorld mgl64.Vec3, rayHit bool) bool {
	if c.state == StateRecover {
		// Let the recovery finish; the next pointer press can grab.
		return false
	}
	if !c.hitHead(pointerWorld, rayHit) {
		return false
	}
	c.Body.Stop()
	c.dragOffset = c.Body.Position.Sub(pointerWorld)
	c.desired = pointerWorld.Add(c.dragOffset)
	c.hasDesired = true
	c.setState(StateDrag)
	return true
}

// hitHead checks, in order: distance from the resolved head bone, then a
// fractional-height region of the bounding box when the ray hit the box.
func (c *Character) hitHead(pointerWorld mgl64.Vec3, rayHit bool) bool {
	if c.Skeleton != nil {
		if head, ok := c.Skeleton.HeadWorldPosition(c.Body.Position, c.Body.Orientation); ok {
			return head.Sub(pointerWorld).Len() <= c.cfg.HeadGrabRadius
		}
	}
	if !rayHit {
		return false
	}
	half := c.Node.Size.Mul(0.5)
	dx := pointerWorld.X() - c.Body.Position.X()
	if math.Abs(dx) > half.X() {
		return false
	}
	// The head region starts at HeadHeightFraction of the body height,
	// measured from the feet.
	lowY := c.Body.Position.Y() + half.Y()*(2*c.cfg.HeadHeightFraction-1)
	highY := c.Body.Position.Y() + half.Y()
	return pointerWorld.Y() >= lowY && pointerWorld.Y() <= highY
}

// UpdateDragTarget records the latest pointer position; the spring chases
// it on the next tick. No-op outside DRAG.
func (c *Character) UpdateDragTarget(pointerWorld mgl64.Vec3) {
	if c.state != StateDrag {
		return
	}
	c.desired = pointerWorld.Add(c.dragOffset)
	c.hasDesired = true
}

// EndDrag releases the grab and starts upright recovery.
func (c *Character) EndDrag() {
	if c.state != StateDrag {
		return
	}
	c.hasDesired = false
	c.setState(StateRecover)
}

// ApplyForces runs the per-tick controller for the current state.
// halfW/halfH are the visible half-extents used to clamp the drag target.
func (c *Character) ApplyForces(dt, halfW, halfH, groundY float64) {
	switch c.state {
	case StateDrag:
		c.applyDragSpring(dt, halfW, halfH, groundY)
	case StateRecover:
		c.applyRecovery()
	}
}

// applyDragSpring pulls the body toward the clamped drag target with a
// critically tuned spring: F = (target - pos)*k - vel*c.
func (c *Character) applyDragSpring(dt, halfW, halfH, groundY float64) {
	if !c.hasDesired {
		return
	}
	half := c.Node.Size.Mul(0.5)
	target := clampDragTarget(c.desired, halfW, halfH, half.X(), half.Y(), groundY)

	force := target.Sub(c.Body.Position).Mul(c.cfg.DragStiffness).
		Sub(c.Body.Velocity.Mul(c.cfg.DragDamping))

	floorY := groundY + c.Body.HalfHeight()
	if c.Body.Position.Y() <= floorY+1e-6 && target.Y() <= floorY {
		// Resting on the floor while the target is at or below it: keep
		// the body planted and drag horizontally only.
		pos := c.Body.Position
		pos[1] = floorY
		c.Body.Position = pos

		vel := c.Body.Velocity
		vel[1] = 0
		c.Body.Velocity = vel

		force[1] = 0
	}

	c.Body.Velocity = c.Body.Velocity.Add(force.Mul(dt * c.Body.InvMass()))
}

// applyRecovery slerps the orientation toward upright and bleeds velocity
// with fixed per-tick factors until the body is at rest.
func (c *Character) applyRecovery() {
	c.Body.Orientation = mgl64.QuatSlerp(c.Body.Orientation, mgl64.QuatIdent(), c.cfg.RecoverSlerp).Normalize()
	c.Body.Velocity = c.Body.Velocity.Mul(c.cfg.RecoverLinearFactor)
	c.Body.AngularVelocity = c.Body.AngularVelocity.Mul(c.cfg.RecoverAngularFactor)

	eps := c.cfg.RestVelocityEpsilon
	if c.Body.Velocity.Len() < eps && c.Body.AngularVelocity.Len() < eps {
		c.Body.Orientation = mgl64.QuatIdent()
		c.Body.Stop()
		c.setState(StatePhysics)
	}
}

// UpdatePose advances the velocity tilt and the limb springs and writes
// the resulting local rotations into the skeleton. Tilt smoothing runs in
// every state; bone writes are skipped while a clip is playing so the
// procedural pose never fights the animation.
func (c *Character) UpdatePose(dt float64, posing bool) {
	vel := c.Body.Velocity

	targetTiltX := mgl64.Clamp(-vel.Y()*c.cfg.TiltGain, -c.cfg.TiltMaxAngle, c.cfg.TiltMaxAngle)
	targetTiltZ := mgl64.Clamp(vel.X()*c.cfg.TiltGain, -c.cfg.TiltMaxAngle, c.cfg.TiltMaxAngle)
	alpha := 1 - math.Exp(-c.cfg.TiltSmoothing*dt)
	c.tiltX += (targetTiltX - c.tiltX) * alpha
	c.tiltZ += (targetTiltZ - c.tiltZ) * alpha

	c.top.Update(dt, vel, c.cfg.SpringTop)
	c.bottom.Update(dt, vel, c.cfg.SpringBottom)

	if !posing || c.Skeleton == nil {
		return
	}

	xAxis := mgl64.Vec3{1, 0, 0}
	zAxis := mgl64.Vec3{0, 0, 1}

	if spine := c.Skeleton.Spine; spine != nil {
		spine.LocalRotation = spine.RestRotation.
			Mul(mgl64.QuatRotate(c.tiltX, xAxis)).
			Mul(mgl64.QuatRotate(c.tiltZ, zAxis)).
			Normalize()
	}
	applyLimb(c.Skeleton.ArmTopL, c.top, +1, xAxis, zAxis)
	applyLimb(c.Skeleton.ArmTopR, c.top, -1, xAxis, zAxis)
	applyLimb(c.Skeleton.ArmBottomL, c.bottom, +1, xAxis, zAxis)
	applyLimb(c.Skeleton.ArmBottomR, c.bottom, -1, xAxis, zAxis)
}

// applyLimb writes one spring's angles onto a bone, mirroring the Z swing
// across the body midline via sign.
func applyLimb(bone *scene.BoneRef, s SpringState, sign float64, xAxis, zAxis mgl64.Vec3) {
	if bone == nil {
		return
	}
	bone.LocalRotation = bone.RestRotation.
		Mul(mgl64.QuatRotate(sign*s.AngleZ, zAxis)).
		Mul(mgl64.QuatRotate(s.AngleX, xAxis)).
		Normalize()
}
