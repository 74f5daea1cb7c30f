package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld() *World {
	w := NewWorld(mgl64.Vec3{0, -9.81, 0}, 2)
	w.GroundY = 0
	return w
}

func dropBody(t *testing.T, w *World, id string, height float64) *Body {
	t.Helper()
	b := NewBody(BodyConfig{
		ID:       id,
		Position: mgl64.Vec3{0, height, 0},
		Mass:     0.5,
		Shape:    NewBoxShape(0.4, 0.4, 0.4),
		Material: "crate",
	})
	require.NoError(t, w.AddBody(b))
	return b
}

func TestDroppedBodySettlesOnGround(t *testing.T) {
	w := newTestWorld()
	w.AddContactMaterial("crate", GroundMaterial, ContactMaterial{
		Friction:    0.4,
		Restitution: 0.3,
		Stiffness:   1,
	})
	b := dropBody(t, w, "crate-1", 3.0)

	// Ten simulated seconds at 60 frames per second.
	for i := 0; i < 600; i++ {
		w.Step(1.0/120.0, 1.0/60.0, 8)
	}

	assert.InDelta(t, b.HalfHeight(), b.Position.Y(), 0.02,
		"body should rest with its bottom on the ground plane")
	assert.InDelta(t, 0, b.Velocity.Y(), 0.05)
}

func TestAddBodyRejectsDuplicateID(t *testing.T) {
	w := newTestWorld()
	dropBody(t, w, "dup", 1)

	err := w.AddBody(NewBody(BodyConfig{ID: "dup", Shape: NewBoxShape(1, 1, 1)}))
	require.Error(t, err)
}

func TestRemoveBody(t *testing.T) {
	w := newTestWorld()
	dropBody(t, w, "gone", 1)

	assert.True(t, w.RemoveBody("gone"))
	_, ok := w.Body("gone")
	assert.False(t, ok)
	assert.False(t, w.RemoveBody("gone"), "second removal reports absence")
}

func TestApplyImpulseAtCenter(t *testing.T) {
	w := newTestWorld()
	b := NewBody(BodyConfig{
		ID:       "ball",
		Position: mgl64.Vec3{0, 5, 0},
		Mass:     2,
		Shape:    NewBoxShape(0.5, 0.5, 0.5),
	})
	require.NoError(t, w.AddBody(b))

	require.NoError(t, w.ApplyImpulse("ball", mgl64.Vec3{2, 0, 0}, b.Position))
	assert.InDelta(t, 1.0, b.Velocity.X(), 1e-9, "dv = impulse / mass")

	require.Error(t, w.ApplyImpulse("missing", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}))
}

func TestKinematicBodyIgnoresGravity(t *testing.T) {
	w := newTestWorld()
	b := dropBody(t, w, "held", 2)
	b.SetKinematic(true)

	for i := 0; i < 120; i++ {
		w.Step(1.0/120.0, 1.0/60.0, 8)
	}

	assert.InDelta(t, 2.0, b.Position.Y(), 1e-9)
	assert.Equal(t, mgl64.Vec3{}, b.Velocity)
}

func TestOrientationStaysNormalized(t *testing.T) {
	w := newTestWorld()
	b := dropBody(t, w, "spinner", 5)
	b.AngularVelocity = mgl64.Vec3{0, 0, 7}

	for i := 0; i < 300; i++ {
		w.Step(1.0/120.0, 1.0/60.0, 8)
	}

	assert.InDelta(t, 1.0, b.Orientation.Len(), 1e-6)
}
