package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

// pipelineFixture wires every tick system onto a Ticker the way the
// server does, so cross-system ordering is exercised end to end. Ticks
// are driven manually with synthetic times for determinism.
type pipelineFixture struct {
	cfg     config.Config
	tk      *Ticker
	queue   *InputQueue
	char    *Character
	items   *ItemManager
	bridge  *AnimationBridge
	health  *Health
	world   *physics.World
	objects *scene.Manager
	cam     *scene.Camera
	clamp   *BoundaryClamp
	bc      *recordingBroadcaster
	now     time.Time
}

func newPipeline(t *testing.T) *pipelineFixture {
	t.Helper()
	cfg := config.Default()
	nop := zap.NewNop()

	world := physics.NewWorld(mgl64.Vec3{0, cfg.Physics.GravityY, 0}, cfg.Physics.SolverIterations)
	world.GroundY = cfg.Physics.GroundY
	world.AddContactMaterial("character", physics.GroundMaterial, physics.ContactMaterial{
		Friction:    0.8,
		Restitution: 0.05,
		Stiffness:   1,
	})

	objects := scene.NewManager()
	cam := scene.NewCamera(cfg.Camera.FOVDegrees, cfg.Camera.ViewportWidth/cfg.Camera.ViewportHeight, cfg.Camera.Distance)
	clamp := NewBoundaryClamp(cam, cfg.Camera.Margin)

	ground := physics.NewBody(physics.BodyConfig{
		ID:       "ground",
		Position: mgl64.Vec3{0, cfg.Physics.GroundY, 0},
		Shape:    physics.NewPlaneShape(),
		Material: physics.GroundMaterial,
	})
	require.NoError(t, world.AddBody(ground))
	objects.Add(&scene.Object{
		ID:       "ground",
		Kind:     scene.KindGround,
		Size:     mgl64.Vec3{100, 0.1, 100},
		Position: ground.Position,
		Rotation: mgl64.QuatIdent(),
	})

	charBody := physics.NewBody(physics.BodyConfig{
		ID:             "char",
		Position:       mgl64.Vec3{0, cfg.Physics.GroundY + 0.9, 0},
		Mass:           cfg.Character.Mass,
		Shape:          physics.NewBoxShape(0.8, 1.8, 0.4),
		Material:       "character",
		LinearDamping:  cfg.Character.LinearDamping,
		AngularDamping: cfg.Character.AngularDamping,
	})
	require.NoError(t, world.AddBody(charBody))
	charNode := &scene.Object{
		ID:       "char",
		Kind:     scene.KindCharacter,
		AssetID:  cfg.Character.Model,
		Size:     mgl64.Vec3{0.8, 1.8, 0.4},
		Position: charBody.Position,
		Rotation: mgl64.QuatIdent(),
	}
	objects.Add(charNode)
	char := NewCharacter(charBody, charNode, cfg.Character, nop)

	halfW, _ := clamp.Extents(charBody.Position)
	trash := &scene.Object{
		ID:       "trash",
		Kind:     scene.KindTrash,
		Size:     mgl64.Vec3{1, 1.2, 1},
		Position: mgl64.Vec3{halfW * 0.85, cfg.Physics.GroundY + 0.6, 0},
		Rotation: mgl64.QuatIdent(),
	}
	objects.Add(trash)

	lib := scene.NewLibrary("", nop)
	lib.PutItem(testItemAsset("crate", -10, "hit"))
	lib.PutClip(&scene.Clip{Name: "hit", Duration: 0.5})
	lib.PutModel(&scene.CharacterModel{
		Name: cfg.Character.Model,
		Size: [3]float64{0.8, 1.8, 0.4},
		Bones: []scene.BoneSpec{
			{Name: "Head", Offset: [3]float64{0, 0.78, 0}},
		},
	})

	health := NewHealth(cfg.Health.Max)
	queue := NewInputQueue()
	bc := &recordingBroadcaster{}
	items := NewItemManager(cfg.Items, world, objects, lib, bc, nop, rand.New(rand.NewSource(3)))
	bridge := NewAnimationBridge(cfg.Animation, lib, char, items, health, bc, nop)
	router := NewInputRouter(queue, cam, objects, char, items, trash,
		cfg.Camera.ViewportWidth, cfg.Camera.ViewportHeight, nop)

	tk := NewTicker(cfg.Game.TargetTPS, cfg.Physics.MaxFrameDelta, nop)
	tk.RegisterSystem(NewAssetSystem(lib, char, cfg.Character.Model, bc, nop))
	tk.RegisterSystem(NewInputSystem(router, clamp, char))
	tk.RegisterSystem(NewControllerSystem(char, items, clamp, cfg.Physics.GroundY))
	tk.RegisterSystem(NewPhysicsSystem(world, cfg.Physics))
	tk.RegisterSystem(NewConstraintSystem(world, char, items, clamp, trash, cfg.Physics.GroundY))
	tk.RegisterSystem(NewPoseSystem(char, bridge))
	tk.RegisterSystem(NewSyncSystem(char, items))
	tk.RegisterSystem(NewBridgeSystem(bridge))

	now := time.Unix(0, 0)
	tk.lastTickTime = now
	return &pipelineFixture{
		cfg: cfg, tk: tk, queue: queue, char: char, items: items,
		bridge: bridge, health: health, world: world, objects: objects,
		cam: cam, clamp: clamp, bc: bc, now: now,
	}
}

func (f *pipelineFixture) tick() {
	f.now = f.now.Add(f.tk.tickDuration)
	f.tk.executeTick(f.now)
}

// worldToPixel inverts the camera projection for a point on the z=0 plane.
func (f *pipelineFixture) worldToPixel(x, y float64) (float64, float64) {
	halfW, halfH := f.cam.HalfExtentsAt(f.cfg.Camera.Distance)
	px := (x/halfW + 1) / 2 * f.cfg.Camera.ViewportWidth
	py := (1 - y/halfH) / 2 * f.cfg.Camera.ViewportHeight
	return px, py
}

func TestPipelineSettlesOnPlaneAndSyncsNodes(t *testing.T) {
	f := newPipeline(t)

	for i := 0; i < 120; i++ {
		f.tick()

		// Post-tick invariants: the constraint pass pins everything to the
		// action plane, and sync publishes the clamped state to the nodes.
		for _, b := range f.world.Bodies() {
			if b.Shape.Type == physics.ShapePlane {
				continue
			}
			assert.Zero(t, b.Position.Z(), "tick %d: body %s off plane", i, b.ID)
		}
		assert.Equal(t, f.char.Body.Position, f.char.Node.Position,
			"tick %d: node lags body", i)
	}

	assert.Equal(t, uint64(120), f.tk.TickCount())
	assert.NotNil(t, f.char.Skeleton, "asset system binds the model on the first tick")
	assert.Equal(t, StatePhysics, f.char.State())
	assert.InDelta(t, f.cfg.Physics.GroundY+0.9, f.char.Body.Position.Y(), 0.05,
		"character rests on its feet")
}

func TestPipelineDragClampHoldsAcrossTicks(t *testing.T) {
	f := newPipeline(t)
	f.tick() // bind the skeleton so the head grab uses the bone

	px, py := f.worldToPixel(0, f.char.Body.Position.Y()+0.78)
	f.queue.Push(PointerEvent{Phase: PointerDown, X: px, Y: py})
	f.tick()
	require.Equal(t, StateDrag, f.char.State())

	// Drag far past the right edge and hold.
	px, py = f.worldToPixel(100, 3)
	f.queue.Push(PointerEvent{Phase: PointerMove, X: px, Y: py})
	for i := 0; i < 600; i++ {
		f.tick()
	}

	halfW, _ := f.clamp.Extents(f.char.Body.Position)
	bound := halfW - f.char.Node.Size.X()/2*0.5
	assert.Equal(t, StateDrag, f.char.State())
	assert.LessOrEqual(t, f.char.Body.Position.X(), bound+0.01,
		"drag target clamps inside the viewport")
	assert.Zero(t, f.char.Body.Position.Z())
	assert.Equal(t, f.char.Body.Position, f.char.Node.Position)

	f.queue.Push(PointerEvent{Phase: PointerUp, X: px, Y: py})
	f.tick()
	assert.Equal(t, StateRecover, f.char.State())
}

func TestPipelineContactRunsClipAndHealth(t *testing.T) {
	f := newPipeline(t)
	f.tick()

	it, err := f.items.Spawn("crate", mgl64.Vec3{0.5, 1.2, 0})
	require.NoError(t, err)

	var clips []string
	f.bc.onAnimation = func(clip string, duration float64) {
		clips = append(clips, clip)
	}

	f.tick()
	assert.True(t, f.bridge.Playing(), "overlapping item triggers on the next tick")
	assert.Equal(t, []string{"hit"}, clips)
	assert.InDelta(t, f.cfg.Health.Max-10, f.health.Current(), 1e-9)
	assert.Contains(t, f.bc.removed, it.ID, "consumed item leaves the world")
	assert.Zero(t, f.items.Count())

	// Clip (0.5s) plus cooldown both expire within a second of ticks.
	for i := 0; i < 90; i++ {
		f.tick()
	}
	assert.False(t, f.bridge.Playing())
	assert.Equal(t, StatePhysics, f.char.State())
}
