package game

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

type routerFixture struct {
	queue  *InputQueue
	router *InputRouter
	char   *Character
	items  *ItemManager
	cam    *scene.Camera
}

// 90-degree square camera 5m out: the z=0 plane spans ±5 in both axes,
// so pixel<->world mapping in tests is a simple linear rescale.
func newRouterFixture() *routerFixture {
	cam := scene.NewCamera(90, 1, 5)
	world := physics.NewWorld(mgl64.Vec3{0, -9.81, 0}, 2)
	objects := scene.NewManager()

	char := newTestCharacter()
	objects.Add(char.Node)

	lib := scene.NewLibrary("", zap.NewNop())
	lib.PutItem(testItemAsset("crate", -10, "hit"))
	items := NewItemManager(config.Default().Items, world, objects, lib, &recordingBroadcaster{}, zap.NewNop(), rand.New(rand.NewSource(7)))

	trash := &scene.Object{
		ID:       "trash",
		Kind:     scene.KindTrash,
		Position: mgl64.Vec3{4, 0.6, 0},
		Size:     mgl64.Vec3{1, 1.2, 1},
		Rotation: mgl64.QuatIdent(),
	}
	objects.Add(trash)

	queue := NewInputQueue()
	router := NewInputRouter(queue, cam, objects, char, items, trash, 1000, 1000, zap.NewNop())
	return &routerFixture{queue: queue, router: router, char: char, items: items, cam: cam}
}

// pixel maps a point on the z=0 plane back to screen coordinates for the
// fixture camera and viewport.
func pixel(x, y float64) (float64, float64) {
	return (x/5 + 1) / 2 * 1000, (1 - y/5) / 2 * 1000
}

func TestQueueDrainsInArrivalOrder(t *testing.T) {
	q := NewInputQueue()
	q.Push(SpawnEvent{Asset: "a"})
	q.Push(ClearEvent{})

	evs := q.Drain()
	require.Len(t, evs, 2)
	assert.Equal(t, SpawnEvent{Asset: "a"}, evs[0])
	assert.IsType(t, ClearEvent{}, evs[1])
	assert.Empty(t, q.Drain())
}

func TestPressBeginsItemDrag(t *testing.T) {
	f := newRouterFixture()
	it, err := f.items.Spawn("crate", mgl64.Vec3{1, 2, 0})
	require.NoError(t, err)

	px, py := pixel(1, 2)
	f.queue.Push(PointerEvent{Phase: PointerDown, X: px, Y: py})
	f.router.Process(testDT, 5)

	assert.True(t, it.Dragging)
	assert.Equal(t, StatePhysics, f.char.State(), "item press never grabs the character")

	// Moving the pointer retargets the dragged item.
	px, py = pixel(2, 3)
	f.queue.Push(PointerEvent{Phase: PointerMove, X: px, Y: py})
	f.router.Process(testDT, 5)
	f.items.TickDragged()

	assert.InDelta(t, 2, it.Body.Position.X(), 1e-9)
	assert.InDelta(t, 3, it.Body.Position.Y(), 1e-9)
}

func TestPressOnHeadGrabsCharacter(t *testing.T) {
	f := newRouterFixture()

	px, py := pixel(0, 1.6)
	f.queue.Push(PointerEvent{Phase: PointerDown, X: px, Y: py})
	f.router.Process(testDT, 5)

	assert.Equal(t, StateDrag, f.char.State())

	f.queue.Push(PointerEvent{Phase: PointerUp, X: px, Y: py})
	f.router.Process(testDT, 5)
	assert.Equal(t, StateRecover, f.char.State())
}

func TestReleaseThrowsDraggedItem(t *testing.T) {
	f := newRouterFixture()
	cfg := config.Default().Items
	it, err := f.items.Spawn("crate", mgl64.Vec3{1, 2, 0})
	require.NoError(t, err)

	px, py := pixel(1, 2)
	f.queue.Push(PointerEvent{Phase: PointerDown, X: px, Y: py})
	f.router.Process(testDT, 5)
	require.True(t, it.Dragging)

	// A 2m jump in one tick reads as a fast rightward swipe.
	px, py = pixel(3, 2)
	f.queue.Push(PointerEvent{Phase: PointerMove, X: px, Y: py})
	f.router.Process(testDT, 5)
	f.queue.Push(PointerEvent{Phase: PointerUp, X: px, Y: py})
	f.router.Process(testDT, 5)

	assert.False(t, it.Dragging)
	assert.InDelta(t, cfg.ThrowMaxSpeed, it.Body.Velocity.X(), 1e-6, "swipe speed caps at the max")
}

func TestResizeUpdatesProjection(t *testing.T) {
	f := newRouterFixture()

	f.queue.Push(ResizeEvent{Width: 2000, Height: 1000})
	f.router.Process(testDT, 5)

	halfW, halfH := f.cam.HalfExtentsAt(5)
	assert.InDelta(t, 2.0, halfW/halfH, 1e-9)

	// Zero-size viewports are ignored rather than poisoning the camera.
	f.queue.Push(ResizeEvent{Width: 0, Height: 0})
	f.router.Process(testDT, 5)
	halfW2, _ := f.cam.HalfExtentsAt(5)
	assert.Equal(t, halfW, halfW2)
}

func TestSpawnDropAndTrashEvents(t *testing.T) {
	f := newRouterFixture()

	f.queue.Push(SpawnEvent{Asset: "crate"})
	f.queue.Push(DropEvent{Asset: "crate", X: 500, Y: 300})
	f.queue.Push(SpawnEvent{Asset: "ufo"}) // unknown assets are logged and dropped
	f.router.Process(testDT, 5)
	assert.Equal(t, 2, f.items.Count())

	f.queue.Push(TrashClickEvent{})
	f.router.Process(testDT, 5)
	assert.Zero(t, f.items.Count())
}
