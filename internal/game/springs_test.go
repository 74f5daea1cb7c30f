package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"ragdoll-sandbox/internal/config"
)

func springParams() config.SpringConfig {
	return config.Default().Character.SpringTop
}

func TestSpringAngleNeverExceedsLimit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := springParams()
		var s SpringState

		steps := rapid.IntRange(1, 500).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			vel := mgl64.Vec3{
				rapid.Float64Range(-100, 100).Draw(t, "vx"),
				rapid.Float64Range(-100, 100).Draw(t, "vy"),
				0,
			}
			s.Update(1.0/60.0, vel, p)

			if math.Abs(s.AngleZ) > p.MaxAngle || math.Abs(s.AngleX) > p.MaxAngle {
				t.Fatalf("angle escaped limit: z=%g x=%g max=%g", s.AngleZ, s.AngleX, p.MaxAngle)
			}
		}
	})
}

func TestSpringSettlesAtZeroForRestingBody(t *testing.T) {
	p := springParams()
	s := SpringState{AngleZ: 0.8, AngleX: -0.5}

	for i := 0; i < 600; i++ {
		s.Update(1.0/60.0, mgl64.Vec3{}, p)
	}

	assert.InDelta(t, 0, s.AngleZ, 0.01)
	assert.InDelta(t, 0, s.AngleX, 0.01)
	assert.InDelta(t, 0, s.VelZ, 0.05)
}

func TestSpringTracksVelocityTarget(t *testing.T) {
	p := springParams()
	var s SpringState

	// Constant rightward motion swings the limb toward the clamped target.
	vel := mgl64.Vec3{2, 0, 0}
	for i := 0; i < 600; i++ {
		s.Update(1.0/60.0, vel, p)
	}

	want := mgl64.Clamp(vel.X()*p.VelocityGain, -p.MaxAngle, p.MaxAngle)
	assert.InDelta(t, want, s.AngleZ, 0.05)
}

func TestSpringReset(t *testing.T) {
	s := SpringState{AngleZ: 1, VelZ: 2, AngleX: 3, VelX: 4}
	s.Reset()
	assert.Equal(t, SpringState{}, s)
}
