package game

import (
	"github.com/go-gl/mathgl/mgl64"

	"ragdoll-sandbox/internal/config"
)

// SpringState is a 2-axis damped harmonic oscillator driving one limb pair.
// AngleZ is the swing in the screen plane, AngleX the front/back swing.
type SpringState struct {
	AngleZ, VelZ float64
	AngleX, VelX float64
}

// Update advances the oscillator toward a velocity-derived target. The
// target and the resulting angle are both clamped to ±MaxAngle, so the
// output can never exceed the limit regardless of input magnitude.
func (s *SpringState) Update(dt float64, bodyVel mgl64.Vec3, p config.SpringConfig) {
	targetZ := mgl64.Clamp(bodyVel.X()*p.VelocityGain, -p.MaxAngle, p.MaxAngle)
	targetX := mgl64.Clamp(-bodyVel.Y()*p.VelocityGain, -p.MaxAngle, p.MaxAngle)

	accelZ := (targetZ-s.AngleZ)*p.Stiffness - s.VelZ*p.Damping
	s.VelZ += accelZ * dt
	s.AngleZ = mgl64.Clamp(s.AngleZ+s.VelZ*dt, -p.MaxAngle, p.MaxAngle)

	accelX := (targetX-s.AngleX)*p.Stiffness - s.VelX*p.Damping
	s.VelX += accelX * dt
	s.AngleX = mgl64.Clamp(s.AngleX+s.VelX*dt, -p.MaxAngle, p.MaxAngle)
}

// Reset zeroes the oscillator.
func (s *SpringState) Reset() {
	*s = SpringState{}
}
