package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"ragdoll-sandbox/internal/config"
	"ragdoll-sandbox/internal/scene"
)

// HealthApplier is what the bridge needs from the health pool.
type HealthApplier interface {
	ApplyEffect(delta float64) HealthChange
}

// AnimationBridge turns character/item contact into a one-shot reaction:
// play the item's clip, apply its health effect once, and remove the item.
// A playing latch plus a cooldown window keeps a lingering contact from
// firing every tick.
type AnimationBridge struct {
	cfg    config.AnimationConfig
	lib    *scene.Library
	char   *Character
	items  *ItemManager
	health HealthApplier
	bc     Broadcaster
	logger *zap.Logger

	now        float64
	playing    bool
	completeAt float64
	cooldown   float64
	savedPose  map[string]mgl64.Quat
}

func NewAnimationBridge(cfg config.AnimationConfig, lib *scene.Library, char *Character, items *ItemManager, health HealthApplier, bc Broadcaster, logger *zap.Logger) *AnimationBridge {
	return &AnimationBridge{
		cfg:    cfg,
		lib:    lib,
		char:   char,
		items:  items,
		health: health,
		bc:     bc,
		logger: logger,
	}
}

// Playing reports whether a clip currently owns the skeleton.
func (b *AnimationBridge) Playing() bool { return b.playing }

// Update advances the bridge by one tick: finish a running clip, tick the
// cooldown, then look for new contacts.
func (b *AnimationBridge) Update(dt float64) {
	b.now += dt

	if b.playing {
		if b.now >= b.completeAt {
			b.finish()
		}
		return
	}
	if b.cooldown > 0 {
		b.cooldown -= dt
		return
	}
	b.checkContacts()
}

// finish hands the skeleton back to the procedural poser.
func (b *AnimationBridge) finish() {
	if b.char.Skeleton != nil && b.savedPose != nil {
		b.char.Skeleton.RestorePose(b.savedPose)
	}
	b.savedPose = nil
	b.playing = false
	b.cooldown = b.cfg.CooldownSeconds
	b.logger.Debug("clip finished, pose restored")
}

// checkContacts fires on the first item whose bounding sphere touches the
// character's. The threshold is the exact sum of radii, no slack.
func (b *AnimationBridge) checkContacts() {
	charPos := b.char.Body.Position
	charRadius := b.char.Node.BoundingRadius()
	for _, it := range b.items.Items() {
		if it.Dragging {
			continue
		}
		if charPos.Sub(it.Body.Position).Len() <= charRadius+it.BoundingRadius() {
			b.trigger(it)
			return
		}
	}
}

func (b *AnimationBridge) trigger(it *Item) {
	if it.Asset.Clip == "" {
		b.logger.Warn("item has no reaction clip, contact ignored",
			zap.String("asset", it.Asset.Name))
		b.cooldown = b.cfg.CooldownSeconds
		return
	}
	clip, err := b.lib.Clip(it.Asset.Clip)
	if err != nil {
		b.logger.Warn("reaction clip unavailable, contact ignored",
			zap.String("clip", it.Asset.Clip),
			zap.Error(err))
		b.cooldown = b.cfg.CooldownSeconds
		return
	}

	if b.char.Skeleton != nil {
		b.savedPose = b.char.Skeleton.SavePose()
	}
	b.playing = true
	b.completeAt = b.now + clip.Duration

	change := b.health.ApplyEffect(it.Asset.HealthDelta)
	b.items.Remove(it.ID)
	b.bc.AnimationStarted(clip.Name, clip.Duration)

	b.logger.Info("contact reaction",
		zap.String("item", it.Asset.Name),
		zap.String("clip", clip.Name),
		zap.Float64("duration", clip.Duration),
		zap.Float64("health_delta", it.Asset.HealthDelta),
		zap.Float64("health", change.Current))
}
