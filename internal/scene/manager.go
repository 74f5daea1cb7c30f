package scene

import "sync"

// Manager owns the scene objects by ID. The RWMutex guards the registry
// only: Object fields are live simulation state, mutated every tick, so
// they must be read on the tick goroutine.
type Manager struct {
	objects map[string]*Object
	order   []string
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{objects: make(map[string]*Object)}
}

// Add registers an object. Re-adding an existing ID replaces it in place.
func (m *Manager) Add(obj *Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[obj.ID]; !exists {
		m.order = append(m.order, obj.ID)
	}
	m.objects[obj.ID] = obj
}

// Remove drops an object from the scene. Returns false if it was absent.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[id]; !exists {
		return false
	}
	delete(m.objects, id)
	for i := len(m.order) - 1; i >= 0; i-- {
		if m.order[i] == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Object looks up a scene object by ID.
func (m *Manager) Object(id string) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[id]
	return obj, ok
}

// Objects returns the objects in insertion order. The slice is a snapshot;
// the pointed-to objects are shared.
func (m *Manager) Objects() []*Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Object, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.objects[id])
	}
	return out
}

// Len returns the number of registered objects.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
