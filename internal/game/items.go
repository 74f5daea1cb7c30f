package game

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/physics"
	"ragdoll-sandbox/internal/scene"
)

// ItemMaterial keys the contact material used by spawned items.
const ItemMaterial = "item"

// Item is one live prop: a dynamic body plus its scene node and the asset
// it was spawned from.
type Item struct {
	ID    string
	Body  *physics.Body
	Node  *scene.Object
	Asset *scene.ItemAsset

	Dragging bool
	desired  mgl64.Vec3
}

// BoundingRadius is the item's half-diagonal, used for contact and trash
// proximity checks.
func (it *Item) BoundingRadius() float64 {
	return it.Node.BoundingRadius()
}

// ItemManager owns the item population: spawn, drag, throw, separation
// and disposal. All mutation happens on the tick goroutine.
type ItemManager struct {
	cfg     config.ItemsConfig
	world   *physics.World
	objects *scene.Manager
	lib     *scene.Library
	bc      Broadcaster
	logger  *zap.Logger
	rng     *rand.Rand

	items []*Item
	count atomic.Int64
}

func NewItemManager(cfg config.ItemsConfig, world *physics.World, objects *scene.Manager, lib *scene.Library, bc Broadcaster, logger *zap.Logger, rng *rand.Rand) *ItemManager {
	return &ItemManager{
		cfg:     cfg,
		world:   world,
		objects: objects,
		lib:     lib,
		bc:      bc,
		logger:  logger,
		rng:     rng,
	}
}

// Items returns the live items, oldest first.
func (m *ItemManager) Items() []*Item {
	out := make([]*Item, len(m.items))
	copy(out, m.items)
	return out
}

// Count is safe to call from any goroutine; the info endpoint reads it
// while the tick loop mutates the population.
func (m *ItemManager) Count() int { return int(m.count.Load()) }

// Find returns the item with the given scene id.
func (m *ItemManager) Find(id string) (*Item, bool) {
	for _, it := range m.items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// Spawn creates an item from a named asset at the given position. When
// the population is at the cap the oldest item is evicted first.
func (m *ItemManager) Spawn(assetName string, pos mgl64.Vec3) (*Item, error) {
	asset, ok := m.lib.Item(assetName)
	if !ok {
		return nil, fmt.Errorf("unknown item asset %q", assetName)
	}
	if m.cfg.MaxItems > 0 && len(m.items) >= m.cfg.MaxItems {
		oldest := m.items[0]
		m.logger.Debug("item cap reached, evicting oldest", zap.String("id", oldest.ID))
		m.Remove(oldest.ID)
	}

	size := asset.SizeVec()
	id := "item-" + uuid.NewString()
	pos[2] = 0

	// Bounciness is per asset, so each asset gets its own material pair
	// against the ground.
	material := ItemMaterial + ":" + asset.Name
	m.world.AddContactMaterial(material, physics.GroundMaterial, physics.ContactMaterial{
		Friction:    0.4,
		Restitution: asset.Restitution,
		Stiffness:   1,
	})

	body := physics.NewBody(physics.BodyConfig{
		ID:             id,
		Position:       pos,
		Mass:           asset.Mass,
		Shape:          physics.NewBoxShape(size.X(), size.Y(), size.Z()),
		Material:       material,
		LinearDamping:  asset.LinearDamping,
		AngularDamping: asset.AngularDamping,
	})
	if err := m.world.AddBody(body); err != nil {
		return nil, err
	}

	node := &scene.Object{
		ID:       id,
		Kind:     scene.KindItem,
		AssetID:  asset.Name,
		Size:     size,
		Color:    asset.Color,
		Position: pos,
		Rotation: mgl64.QuatIdent(),
	}
	m.objects.Add(node)

	it := &Item{ID: id, Body: body, Node: node, Asset: asset}
	m.items = append(m.items, it)
	m.count.Store(int64(len(m.items)))
	m.bc.ObjectCreated(node)
	m.logger.Info("item spawned",
		zap.String("id", id),
		zap.String("asset", asset.Name),
		zap.Int("population", len(m.items)))
	return it, nil
}

// SpawnRandom picks a random asset and a random x inside the visible
// bounds, dropping the item from the configured spawn height.
func (m *ItemManager) SpawnRandom(assetName string, halfW float64) (*Item, error) {
	if assetName == "" {
		names := m.lib.ItemNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("no item assets loaded")
		}
		assetName = names[m.rng.Intn(len(names))]
	}
	x := (m.rng.Float64()*2 - 1) * halfW * 0.8
	return m.Spawn(assetName, mgl64.Vec3{x, m.cfg.SpawnHeight, 0})
}

// BeginDrag switches the item to kinematic pointer tracking.
func (m *ItemManager) BeginDrag(id string, pointerWorld mgl64.Vec3) bool {
	it, ok := m.Find(id)
	if !ok {
		return false
	}
	it.Dragging = true
	it.desired = pointerWorld
	it.Body.SetKinematic(true)
	it.Body.Stop()
	return true
}

// DragTo records the pointer target for a dragged item.
func (m *ItemManager) DragTo(id string, pointerWorld mgl64.Vec3) {
	if it, ok := m.Find(id); ok && it.Dragging {
		it.desired = pointerWorld
	}
}

// EndDrag releases the item back to the simulation. When the pointer was
// moving faster than the throw threshold the release velocity is shaped
// non-linearly and applied as an impulse, with a random spin.
func (m *ItemManager) EndDrag(id string, releaseVel mgl64.Vec3) {
	it, ok := m.Find(id)
	if !ok || !it.Dragging {
		return
	}
	it.Dragging = false
	it.Body.SetKinematic(false)

	speed := releaseVel.Len()
	if speed < m.cfg.ThrowMinSpeed {
		return
	}
	scaled := math.Min(m.cfg.ThrowScale*math.Pow(speed, m.cfg.ThrowPower), m.cfg.ThrowMaxSpeed)
	dir := releaseVel.Mul(1 / speed)
	if err := m.world.ApplyImpulse(it.ID, dir.Mul(scaled*it.Body.Mass()), it.Body.Position); err != nil {
		// Live items are always registered; an error here means the
		// population and the world disagree.
		m.logger.Error("throw impulse failed", zap.String("id", it.ID), zap.Error(err))
		return
	}

	spin := (m.rng.Float64()*2 - 1) * m.cfg.SpinMax
	it.Body.AngularVelocity = it.Body.AngularVelocity.Add(mgl64.Vec3{0, 0, spin})

	m.logger.Debug("item thrown",
		zap.String("id", it.ID),
		zap.Float64("pointer_speed", speed),
		zap.Float64("throw_speed", scaled))
}

// TickDragged snaps kinematic items to their pointer targets.
func (m *ItemManager) TickDragged() {
	for _, it := range m.items {
		if !it.Dragging {
			continue
		}
		it.Body.Position = mgl64.Vec3{it.desired.X(), it.desired.Y(), 0}
		it.Body.Stop()
	}
}

// SeparationPass pushes overlapping items apart, and items out of the
// character, so nothing interpenetrates visually. Dragged items win: the
// other body moves.
func (m *ItemManager) SeparationPass(char *Character) {
	for i := 0; i < len(m.items); i++ {
		for j := i + 1; j < len(m.items); j++ {
			m.separate(m.items[i], m.items[j])
		}
	}
	if char == nil {
		return
	}
	charRadius := char.Node.BoundingRadius()
	for _, it := range m.items {
		if it.Dragging {
			continue
		}
		m.pushOut(it, char.Body.Position, charRadius+it.BoundingRadius())
	}
}

func (m *ItemManager) separate(a, b *Item) {
	minDist := math.Max(m.cfg.MinSeparation, a.BoundingRadius()+b.BoundingRadius())
	// The dragged item stays put.
	if a.Dragging && !b.Dragging {
		m.pushOut(b, a.Body.Position, minDist)
		return
	}
	if b.Dragging {
		m.pushOut(a, b.Body.Position, minDist)
		return
	}
	delta := b.Body.Position.Sub(a.Body.Position)
	dist := delta.Len()
	if dist >= minDist {
		return
	}
	dir := separationDir(delta, dist)
	shift := dir.Mul((minDist - dist) * 0.5)
	a.Body.Position = a.Body.Position.Sub(shift)
	b.Body.Position = b.Body.Position.Add(shift)
	a.Body.Velocity = a.Body.Velocity.Sub(dir.Mul(m.cfg.SeparationPush))
	b.Body.Velocity = b.Body.Velocity.Add(dir.Mul(m.cfg.SeparationPush))
}

// pushOut moves an item radially away from center until it clears minDist.
func (m *ItemManager) pushOut(it *Item, center mgl64.Vec3, minDist float64) {
	delta := it.Body.Position.Sub(center)
	dist := delta.Len()
	if dist >= minDist {
		return
	}
	dir := separationDir(delta, dist)
	it.Body.Position = center.Add(dir.Mul(minDist))
	it.Body.Velocity = it.Body.Velocity.Add(dir.Mul(m.cfg.SeparationPush))
}

// separationDir normalizes delta, falling back to +X for coincident
// positions so the push direction is always defined.
func separationDir(delta mgl64.Vec3, dist float64) mgl64.Vec3 {
	if dist < 1e-9 {
		return mgl64.Vec3{1, 0, 0}
	}
	d := delta.Mul(1 / dist)
	d[2] = 0
	if l := d.Len(); l > 1e-9 {
		return d.Mul(1 / l)
	}
	return mgl64.Vec3{1, 0, 0}
}

// TrashPass disposes of any item whose bounds overlap the trash zone.
func (m *ItemManager) TrashPass(trash *scene.Object) {
	if trash == nil {
		return
	}
	for i := len(m.items) - 1; i >= 0; i-- {
		it := m.items[i]
		if it.Dragging {
			continue
		}
		if it.Body.Position.Sub(trash.Position).Len() <= m.cfg.TrashRadius+it.BoundingRadius() {
			m.logger.Info("item trashed", zap.String("id", it.ID), zap.String("asset", it.Asset.Name))
			m.Remove(it.ID)
		}
	}
}

// Clear removes every item.
func (m *ItemManager) Clear() int {
	n := len(m.items)
	for i := n - 1; i >= 0; i-- {
		m.Remove(m.items[i].ID)
	}
	return n
}

// Remove deletes an item from the world, the scene and the population in
// one step so no pass ever sees a half-removed item.
func (m *ItemManager) Remove(id string) bool {
	for i, it := range m.items {
		if it.ID != id {
			continue
		}
		m.world.RemoveBody(id)
		m.objects.Remove(id)
		m.items = append(m.items[:i], m.items[i+1:]...)
		m.count.Store(int64(len(m.items)))
		m.bc.ObjectRemoved(id)
		return true
	}
	return false
}
