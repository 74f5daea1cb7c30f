package game

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/scene"
)

// PointerPhase is the stage of a pointer gesture.
type PointerPhase int

const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
)

// Input events as they arrive from the transport. Screen coordinates are
// pixels with the origin at the top-left.
type (
	PointerEvent struct {
		Phase PointerPhase
		X, Y  float64
	}
	ResizeEvent struct {
		Width, Height float64
	}
	SpawnEvent struct {
		Asset string
	}
	DropEvent struct {
		Asset string
		X, Y  float64
	}
	TrashClickEvent struct{}
	ClearEvent      struct{}
)

// InputQueue buffers events from connection goroutines until the tick
// loop drains them, so all world mutation happens on one goroutine.
type InputQueue struct {
	mu     sync.Mutex
	events []any
}

func NewInputQueue() *InputQueue {
	return &InputQueue{}
}

func (q *InputQueue) Push(ev any) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Drain returns the pending events in arrival order and empties the queue.
func (q *InputQueue) Drain() []any {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// InputRouter projects pointer events into the world and dispatches them
// to the character and item controllers. It also tracks pointer velocity
// for throw releases.
type InputRouter struct {
	queue   *InputQueue
	cam     *scene.Camera
	objects *scene.Manager
	char    *Character
	items   *ItemManager
	trash   *scene.Object
	logger  *zap.Logger

	viewportW, viewportH float64

	draggedItem string
	lastWorld   mgl64.Vec3
	lastAt      float64
	pointerVel  mgl64.Vec3
	now         float64
}

func NewInputRouter(queue *InputQueue, cam *scene.Camera, objects *scene.Manager, char *Character, items *ItemManager, trash *scene.Object, viewportW, viewportH float64, logger *zap.Logger) *InputRouter {
	return &InputRouter{
		queue:     queue,
		cam:       cam,
		objects:   objects,
		char:      char,
		items:     items,
		trash:     trash,
		logger:    logger,
		viewportW: viewportW,
		viewportH: viewportH,
	}
}

// Process drains the queue and applies every event. halfW is the visible
// half-width used for random spawn placement.
func (r *InputRouter) Process(dt, halfW float64) {
	r.now += dt
	for _, ev := range r.queue.Drain() {
		switch e := ev.(type) {
		case PointerEvent:
			r.handlePointer(e)
		case ResizeEvent:
			r.handleResize(e)
		case SpawnEvent:
			if _, err := r.items.SpawnRandom(e.Asset, halfW); err != nil {
				r.logger.Warn("spawn rejected", zap.String("asset", e.Asset), zap.Error(err))
			}
		case DropEvent:
			r.handleDrop(e)
		case TrashClickEvent:
			n := r.items.Clear()
			r.logger.Info("trash clicked, items cleared", zap.Int("removed", n))
		case ClearEvent:
			r.items.Clear()
		}
	}
}

// project maps screen pixels to the action plane through the character.
func (r *InputRouter) project(x, y float64) (mgl64.Vec3, bool) {
	return r.cam.ProjectPointer(x, y, r.viewportW, r.viewportH, r.char.Body.Position)
}

func (r *InputRouter) handlePointer(e PointerEvent) {
	world, ok := r.project(e.X, e.Y)
	if !ok {
		// Degenerate projection: drop the sample, keep the gesture state.
		return
	}

	switch e.Phase {
	case PointerDown:
		r.lastWorld = world
		r.lastAt = r.now
		r.pointerVel = mgl64.Vec3{}
		r.handlePress(e, world)

	case PointerMove:
		if dt := r.now - r.lastAt; dt > 1e-6 {
			r.pointerVel = world.Sub(r.lastWorld).Mul(1 / dt)
		}
		r.lastWorld = world
		r.lastAt = r.now
		if r.draggedItem != "" {
			r.items.DragTo(r.draggedItem, world)
		}
		r.char.UpdateDragTarget(world)

	case PointerUp:
		if r.draggedItem != "" {
			r.items.EndDrag(r.draggedItem, r.pointerVel)
			r.draggedItem = ""
		}
		r.char.EndDrag()
	}
}

// handlePress runs the hit-test chain: nearest raycast hit wins, item
// before character; the character additionally requires the head region.
func (r *InputRouter) handlePress(e PointerEvent, world mgl64.Vec3) {
	ray := r.cam.PointerRay(e.X, e.Y, r.viewportW, r.viewportH)
	hits := r.objects.Raycast(ray, scene.KindItem, scene.KindCharacter)

	charHit := false
	for _, h := range hits {
		if h.ObjectID == r.char.Node.ID {
			// Don't reach past the character to an occluded item.
			charHit = true
			break
		}
		if r.items.BeginDrag(h.ObjectID, world) {
			r.draggedItem = h.ObjectID
			return
		}
	}
	if r.char.TryGrab(world, charHit) {
		r.logger.Debug("character grabbed",
			zap.Float64("x", world.X()),
			zap.Float64("y", world.Y()))
	}
}

func (r *InputRouter) handleResize(e ResizeEvent) {
	if e.Width <= 0 || e.Height <= 0 {
		return
	}
	r.viewportW = e.Width
	r.viewportH = e.Height
	r.cam.Resize(e.Width, e.Height)
	r.logger.Debug("viewport resized",
		zap.Float64("width", e.Width),
		zap.Float64("height", e.Height))
}

// handleDrop spawns the asset at the projected drop point, falling back
// to the configured spawn height when projection fails.
func (r *InputRouter) handleDrop(e DropEvent) {
	world, ok := r.project(e.X, e.Y)
	if !ok {
		if _, err := r.items.SpawnRandom(e.Asset, 0); err != nil {
			r.logger.Warn("drop rejected", zap.String("asset", e.Asset), zap.Error(err))
		}
		return
	}
	if _, err := r.items.Spawn(e.Asset, world); err != nil {
		r.logger.Warn("drop rejected", zap.String("asset", e.Asset), zap.Error(err))
	}
}
