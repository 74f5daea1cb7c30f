package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GroundMaterial is the implicit material of the world ground plane.
const GroundMaterial = "ground"

// restThreshold is the vertical speed under which a ground bounce settles
// to rest instead of jittering forever.
const restThreshold = 0.08

// World owns the rigid bodies and advances them with a fixed-substep
// integrator. All mutation happens on the simulation tick, so no locking.
type World struct {
	Gravity          mgl64.Vec3
	SolverIterations int
	GroundY          float64

	bodies   []*Body
	byID     map[string]*Body
	contacts map[string]ContactMaterial
	fallback ContactMaterial
}

// NewWorld creates a world with the given gravity and contact solver
// iteration count.
func NewWorld(gravity mgl64.Vec3, solverIterations int) *World {
	if solverIterations < 1 {
		solverIterations = 1
	}
	return &World{
		Gravity:          gravity,
		SolverIterations: solverIterations,
		byID:             make(map[string]*Body),
		contacts:         make(map[string]ContactMaterial),
		fallback:         ContactMaterial{Friction: 0.4, Restitution: 0.2, Stiffness: 1},
	}
}

// AddBody registers a body. Body IDs must be unique.
func (w *World) AddBody(b *Body) error {
	if _, exists := w.byID[b.ID]; exists {
		return fmt.Errorf("body %q already registered", b.ID)
	}
	w.bodies = append(w.bodies, b)
	w.byID[b.ID] = b
	return nil
}

// RemoveBody unregisters a body. A removed body is never stepped again.
func (w *World) RemoveBody(id string) bool {
	if _, exists := w.byID[id]; !exists {
		return false
	}
	delete(w.byID, id)
	for i := len(w.bodies) - 1; i >= 0; i-- {
		if w.bodies[i].ID == id {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	return true
}

// Body looks up a registered body by ID.
func (w *World) Body(id string) (*Body, bool) {
	b, ok := w.byID[id]
	return b, ok
}

// Bodies returns a snapshot slice of the registered bodies.
func (w *World) Bodies() []*Body {
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// AddContactMaterial registers the contact response for a material pair.
func (w *World) AddContactMaterial(a, b string, m ContactMaterial) {
	w.contacts[pairKey(a, b)] = m
}

// SetDefaultContactMaterial replaces the response used for unregistered pairs.
func (w *World) SetDefaultContactMaterial(m ContactMaterial) {
	w.fallback = m
}

func (w *World) contactFor(a, b string) ContactMaterial {
	if m, ok := w.contacts[pairKey(a, b)]; ok {
		return m
	}
	return w.fallback
}

// Step advances the world by dt, subdivided into fixed substeps of at most
// fixedStep seconds, capped at maxSubsteps. The cap bounds the work done
// after a long frame gap.
func (w *World) Step(fixedStep, dt float64, maxSubsteps int) {
	if dt <= 0 || fixedStep <= 0 {
		return
	}
	if maxSubsteps < 1 {
		maxSubsteps = 1
	}
	remaining := dt
	for i := 0; i < maxSubsteps && remaining > 0; i++ {
		h := fixedStep
		if remaining < h {
			h = remaining
		}
		w.substep(h)
		remaining -= h
	}
}

func (w *World) substep(h float64) {
	for _, b := range w.bodies {
		if b.Shape.Type == ShapePlane || b.Kinematic {
			continue
		}
		if b.InvMass() > 0 {
			b.Velocity = b.Velocity.Add(w.Gravity.Mul(h))
		}
		b.Velocity = b.Velocity.Mul(dampingFactor(b.LinearDamping, h))
		b.AngularVelocity = b.AngularVelocity.Mul(dampingFactor(b.AngularDamping, h))

		b.Position = b.Position.Add(b.Velocity.Mul(h))
		b.Orientation = integrateOrientation(b.Orientation, b.AngularVelocity, h)
	}

	for i := 0; i < w.SolverIterations; i++ {
		w.resolveGroundContacts(h)
	}
}

// resolveGroundContacts clamps penetrating bodies back onto the ground
// plane and applies the registered restitution/friction response.
func (w *World) resolveGroundContacts(h float64) {
	for _, b := range w.bodies {
		if b.Shape.Type == ShapePlane || b.Kinematic {
			continue
		}
		bottom := b.Position.Y() - b.HalfHeight()
		if bottom >= w.GroundY {
			continue
		}
		mat := w.contactFor(b.Material, GroundMaterial)

		b.Position = mgl64.Vec3{b.Position.X(), w.GroundY + b.HalfHeight(), b.Position.Z()}
		vy := b.Velocity.Y()
		if vy < 0 {
			vy = -vy * mat.Restitution
			if vy < restThreshold {
				vy = 0
			}
		}
		ground := mgl64.Clamp(1-mat.Friction*h*10, 0, 1)
		b.Velocity = mgl64.Vec3{b.Velocity.X() * ground, vy, b.Velocity.Z() * ground}
		b.AngularVelocity = b.AngularVelocity.Mul(ground)
	}
}

// ApplyImpulse applies an instantaneous impulse at a world point, imparting
// both linear and angular velocity change.
func (w *World) ApplyImpulse(id string, impulse, worldPoint mgl64.Vec3) error {
	b, ok := w.byID[id]
	if !ok {
		return fmt.Errorf("body %q not found", id)
	}
	if b.InvMass() == 0 {
		return nil
	}
	b.Velocity = b.Velocity.Add(impulse.Mul(b.InvMass()))

	lever := worldPoint.Sub(b.Position)
	angular := lever.Cross(impulse).Mul(b.invInertia())
	b.AngularVelocity = b.AngularVelocity.Add(angular)
	return nil
}

// dampingFactor converts a per-second damping coefficient into the velocity
// retention factor for a substep of h seconds.
func dampingFactor(damping, h float64) float64 {
	return math.Pow(mgl64.Clamp(1-damping, 0, 1), h)
}

// integrateOrientation advances a quaternion by an angular velocity over h
// seconds using the standard first-order update.
func integrateOrientation(q mgl64.Quat, omega mgl64.Vec3, h float64) mgl64.Quat {
	if omega.Len() < 1e-12 {
		return q
	}
	dq := mgl64.Quat{W: 0, V: omega}.Mul(q).Scale(0.5 * h)
	return q.Add(dq).Normalize()
}
