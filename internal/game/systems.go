package game

import (
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

// Tick order. Lower runs earlier: input first, transforms synced to the
// scene before the transport snapshots it.
const (
	PriorityAssets      = 5
	PriorityInput       = 10
	PriorityControllers = 20
	PriorityPhysics     = 30
	PriorityConstraints = 40
	PriorityPose        = 50
	PrioritySync        = 60
	PriorityBridge      = 70
	PriorityBroadcast   = 80
	PriorityTelemetry   = 90
)

// AssetSystem binds the character model once the asset library finishes
// its background load, then retires.
type AssetSystem struct {
	lib       *scene.Library
	char      *Character
	modelName string
	bc        Broadcaster
	logger    *zap.Logger
	done      bool
}

func NewAssetSystem(lib *scene.Library, char *Character, modelName string, bc Broadcaster, logger *zap.Logger) *AssetSystem {
	return &AssetSystem{lib: lib, char: char, modelName: modelName, bc: bc, logger: logger}
}

func (s *AssetSystem) Update(float64) error {
	if s.done || !s.lib.Loaded() {
		return nil
	}
	s.done = true

	model, ok := s.lib.Model(s.modelName)
	if !ok {
		s.logger.Warn("character model missing, keeping placeholder",
			zap.String("model", s.modelName))
		return nil
	}
	skel := scene.ResolveSkeleton(model, s.logger)
	s.char.AttachSkeleton(skel, model)
	// Re-announce so connected clients pick up the real dimensions.
	s.bc.ObjectCreated(s.char.Node)
	return nil
}

func (s *AssetSystem) GetName() string  { return "assets" }
func (s *AssetSystem) GetPriority() int { return PriorityAssets }

// InputSystem drains the event queue at the top of every tick.
type InputSystem struct {
	router *InputRouter
	clamp  *BoundaryClamp
	char   *Character
}

func NewInputSystem(router *InputRouter, clamp *BoundaryClamp, char *Character) *InputSystem {
	return &InputSystem{router: router, clamp: clamp, char: char}
}

func (s *InputSystem) Update(dt float64) error {
	halfW, _ := s.clamp.Extents(s.char.Body.Position)
	s.router.Process(dt, halfW)
	return nil
}

func (s *InputSystem) GetName() string  { return "input" }
func (s *InputSystem) GetPriority() int { return PriorityInput }

// ControllerSystem runs the character state machine and snaps dragged
// items to their pointer targets, ahead of integration.
type ControllerSystem struct {
	char    *Character
	items   *ItemManager
	clamp   *BoundaryClamp
	groundY float64
}

func NewControllerSystem(char *Character, items *ItemManager, clamp *BoundaryClamp, groundY float64) *ControllerSystem {
	return &ControllerSystem{char: char, items: items, clamp: clamp, groundY: groundY}
}

func (s *ControllerSystem) Update(dt float64) error {
	halfW, halfH := s.clamp.Extents(s.char.Body.Position)
	s.char.ApplyForces(dt, halfW, halfH, s.groundY)
	s.items.TickDragged()
	return nil
}

func (s *ControllerSystem) GetName() string  { return "controllers" }
func (s *ControllerSystem) GetPriority() int { return PriorityControllers }

// PhysicsSystem integrates the world.
type PhysicsSystem struct {
	world *physics.World
	cfg   config.PhysicsConfig
}

func NewPhysicsSystem(world *physics.World, cfg config.PhysicsConfig) *PhysicsSystem {
	return &PhysicsSystem{world: world, cfg: cfg}
}

func (s *PhysicsSystem) Update(dt float64) error {
	s.world.Step(s.cfg.FixedTimestep, dt, s.cfg.MaxSubsteps)
	return nil
}

func (s *PhysicsSystem) GetName() string  { return "physics" }
func (s *PhysicsSystem) GetPriority() int { return PriorityPhysics }

// ConstraintSystem enforces the post-integration invariants: everything
// stays on the z=0 plane, inside the viewport, out of each other, and
// items touching the trash zone are disposed of.
type ConstraintSystem struct {
	world   *physics.World
	char    *Character
	items   *ItemManager
	clamp   *BoundaryClamp
	trash   *scene.Object
	groundY float64
}

func NewConstraintSystem(world *physics.World, char *Character, items *ItemManager, clamp *BoundaryClamp, trash *scene.Object, groundY float64) *ConstraintSystem {
	return &ConstraintSystem{world: world, char: char, items: items, clamp: clamp, trash: trash, groundY: groundY}
}

func (s *ConstraintSystem) Update(float64) error {
	for _, b := range s.world.Bodies() {
		if b.Shape.Type == physics.ShapePlane {
			continue
		}
		b.Position[2] = 0
		b.Velocity[2] = 0
	}

	half := s.char.Node.Size.Mul(0.5)
	s.clamp.ClampCharacter(s.char.Body, half.X(), half.Y(), s.groundY)
	for _, it := range s.items.Items() {
		if it.Dragging {
			continue
		}
		s.clamp.ClampItem(it.Body, it.BoundingRadius())
	}

	s.items.SeparationPass(s.char)
	s.items.TrashPass(s.trash)
	return nil
}

func (s *ConstraintSystem) GetName() string  { return "constraints" }
func (s *ConstraintSystem) GetPriority() int { return PriorityConstraints }

// PoseSystem drives the procedural skeleton pose. Bone writes pause
// while the bridge is playing a clip.
type PoseSystem struct {
	char   *Character
	bridge *AnimationBridge
}

func NewPoseSystem(char *Character, bridge *AnimationBridge) *PoseSystem {
	return &PoseSystem{char: char, bridge: bridge}
}

func (s *PoseSystem) Update(dt float64) error {
	s.char.UpdatePose(dt, !s.bridge.Playing())
	return nil
}

func (s *PoseSystem) GetName() string  { return "pose" }
func (s *PoseSystem) GetPriority() int { return PriorityPose }

// SyncSystem copies body transforms to the scene nodes the transport
// snapshots.
type SyncSystem struct {
	char  *Character
	items *ItemManager
}

func NewSyncSystem(char *Character, items *ItemManager) *SyncSystem {
	return &SyncSystem{char: char, items: items}
}

func (s *SyncSystem) Update(float64) error {
	s.char.Node.Position = s.char.Body.Position
	s.char.Node.Rotation = s.char.Body.Orientation
	for _, it := range s.items.Items() {
		it.Node.Position = it.Body.Position
		it.Node.Rotation = it.Body.Orientation
	}
	return nil
}

func (s *SyncSystem) GetName() string  { return "sync" }
func (s *SyncSystem) GetPriority() int { return PrioritySync }

// BridgeSystem ticks the collision-to-animation bridge.
type BridgeSystem struct {
	bridge *AnimationBridge
}

func NewBridgeSystem(bridge *AnimationBridge) *BridgeSystem {
	return &BridgeSystem{bridge: bridge}
}

func (s *BridgeSystem) Update(dt float64) error {
	s.bridge.Update(dt)
	return nil
}

func (s *BridgeSystem) GetName() string  { return "bridge" }
func (s *BridgeSystem) GetPriority() int { return PriorityBridge }
