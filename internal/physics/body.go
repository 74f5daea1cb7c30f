package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType identifies the collision shape of a body.
type ShapeType int

const (
	ShapeBox ShapeType = iota
	ShapePlane
)

// Shape describes a body's collision geometry. Boxes carry half extents,
// planes are infinite and horizontal.
type Shape struct {
	Type        ShapeType
	HalfExtents mgl64.Vec3
}

// NewBoxShape builds a box shape from full width/height/depth.
func NewBoxShape(width, height, depth float64) Shape {
	return Shape{
		Type:        ShapeBox,
		HalfExtents: mgl64.Vec3{width / 2, height / 2, depth / 2},
	}
}

// NewPlaneShape builds an infinite static plane shape.
func NewPlaneShape() Shape {
	return Shape{Type: ShapePlane}
}

// Body is a rigid body advanced by World.Step. Position, velocity and
// orientation are mutable fields, matching the engine surface the
// controller drives directly.
type Body struct {
	ID              string
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Orientation     mgl64.Quat

	LinearDamping  float64
	AngularDamping float64

	Shape    Shape
	Material string

	// Kinematic bodies are driven externally (pointer drag) and skip
	// force integration but remain visible to queries and collisions.
	Kinematic bool

	mass    float64
	invMass float64
}

// BodyConfig carries the creation parameters for a rigid body.
type BodyConfig struct {
	ID             string
	Position       mgl64.Vec3
	Mass           float64
	Shape          Shape
	Material       string
	LinearDamping  float64
	AngularDamping float64
}

// NewBody creates a body at rest with an identity orientation.
func NewBody(cfg BodyConfig) *Body {
	b := &Body{
		ID:             cfg.ID,
		Position:       cfg.Position,
		Orientation:    mgl64.QuatIdent(),
		LinearDamping:  cfg.LinearDamping,
		AngularDamping: cfg.AngularDamping,
		Shape:          cfg.Shape,
		Material:       cfg.Material,
	}
	b.SetMass(cfg.Mass)
	return b
}

// SetMass updates the body mass. Zero mass suspends gravity and impulse
// response without removing the body from the world.
func (b *Body) SetMass(m float64) {
	b.mass = m
	if m > 0 {
		b.invMass = 1 / m
	} else {
		b.invMass = 0
	}
}

// Mass returns the current mass.
func (b *Body) Mass() float64 { return b.mass }

// InvMass returns 1/mass, or 0 for massless bodies.
func (b *Body) InvMass() float64 { return b.invMass }

// SetKinematic toggles between fully-simulated and pointer-driven modes.
func (b *Body) SetKinematic(kinematic bool) { b.Kinematic = kinematic }

// Stop zeroes linear and angular velocity.
func (b *Body) Stop() {
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
}

// HalfHeight returns the distance from the body center to the bottom of
// its bounding box.
func (b *Body) HalfHeight() float64 {
	if b.Shape.Type == ShapePlane {
		return 0
	}
	return b.Shape.HalfExtents.Y()
}

// BoundingRadius returns half the diagonal of the bounding box, used for
// sum-of-radii proximity tests.
func (b *Body) BoundingRadius() float64 {
	if b.Shape.Type == ShapePlane {
		return 0
	}
	return b.Shape.HalfExtents.Len()
}

// invInertia approximates the inverse moment of inertia with a solid-sphere
// model over the bounding radius. Good enough for throw spin.
func (b *Body) invInertia() float64 {
	if b.invMass == 0 {
		return 0
	}
	r := b.BoundingRadius()
	if r <= 0 {
		return 0
	}
	inertia := 0.4 * b.mass * r * r
	if inertia <= math.SmallestNonzeroFloat64 {
		return 0
	}
	return 1 / inertia
}
