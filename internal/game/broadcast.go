package game

import "ragdoll-sandbox/internal/scene"

// Broadcaster receives world events that every connected client must see.
// Per-tick transform streaming is handled by the transport's own tick
// system; only discrete events go through here.
type Broadcaster interface {
	ObjectCreated(obj *scene.Object)
	ObjectRemoved(id string)
	HealthChanged(change HealthChange)
	AnimationStarted(clip string, duration float64)
}

// NopBroadcaster discards all events.
type NopBroadcaster struct{}

func (NopBroadcaster) ObjectCreated(*scene.Object)        {}
func (NopBroadcaster) ObjectRemoved(string)               {}
func (NopBroadcaster) HealthChanged(HealthChange)         {}
func (NopBroadcaster) AnimationStarted(string, float64)   {}
