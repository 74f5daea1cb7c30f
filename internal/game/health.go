package game

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// HealthChange describes one applied effect, after clamping the pool.
type HealthChange struct {
	Current   float64
	Max       float64
	Delta     float64
	IsDamage  bool
	IsHealing bool
}

// Health is the character's health pool. Effects clamp to [0, max] and
// notify every registered listener, even when the pool was already at a
// bound and the effective change is zero. Effects apply on the tick loop;
// the pool may be read from other goroutines.
type Health struct {
	mu        sync.Mutex
	current   float64
	max       float64
	listeners []func(HealthChange)
}

func NewHealth(max float64) *Health {
	return &Health{current: max, max: max}
}

func (h *Health) Current() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *Health) Max() float64 { return h.max }

// OnChange registers a listener invoked on every ApplyEffect call.
func (h *Health) OnChange(fn func(HealthChange)) {
	h.listeners = append(h.listeners, fn)
}

// ApplyEffect shifts the pool by delta, clamped to [0, max]. Listeners
// run outside the lock so they may read the pool back.
func (h *Health) ApplyEffect(delta float64) HealthChange {
	h.mu.Lock()
	h.current = mgl64.Clamp(h.current+delta, 0, h.max)
	change := HealthChange{
		Current:   h.current,
		Max:       h.max,
		Delta:     delta,
		IsDamage:  delta < 0,
		IsHealing: delta > 0,
	}
	h.mu.Unlock()

	for _, fn := range h.listeners {
		fn(change)
	}
	return change
}
