package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// BoneSpec is one bone entry in a character model file.
type BoneSpec struct {
	Name   string     `json:"name"`
	Offset [3]float64 `json:"offset"`
}

// CharacterModel is the parsed skeletal model descriptor.
type CharacterModel struct {
	Name  string     `json:"name"`
	Size  [3]float64 `json:"size"`
	Color string     `json:"color"`
	Bones []BoneSpec `json:"bones"`
}

// SizeVec returns the model bounding box as a vector.
func (m *CharacterModel) SizeVec() mgl64.Vec3 {
	return mgl64.Vec3{m.Size[0], m.Size[1], m.Size[2]}
}

// ItemAsset describes a throwable item: visual bounds, physics response and
// the stat/animation payload applied when it reaches the character.
type ItemAsset struct {
	Name           string     `json:"name"`
	Size           [3]float64 `json:"size"`
	Color          string     `json:"color"`
	Mass           float64    `json:"mass"`
	Restitution    float64    `json:"restitution"`
	LinearDamping  float64    `json:"linear_damping"`
	AngularDamping float64    `json:"angular_damping"`
	HealthDelta    float64    `json:"health_delta"`
	Clip           string     `json:"clip"`
}

// SizeVec returns the item bounding box as a vector.
func (a *ItemAsset) SizeVec() mgl64.Vec3 {
	return mgl64.Vec3{a.Size[0], a.Size[1], a.Size[2]}
}

// GroundOffset is the distance from the item's geometric center to the
// bottom of its bounding box.
func (a *ItemAsset) GroundOffset() float64 {
	return a.Size[1] / 2
}

// Clip is a one-shot skeletal animation descriptor. The keyframes live on
// the client; the server only needs the duration and affected bones to
// gate procedural posing and schedule the pose restore.
type Clip struct {
	Name     string   `json:"name"`
	Duration float64  `json:"duration"`
	Bones    []string `json:"bones"`
}

// Library loads asset descriptors from disk. Load runs off the frame loop;
// readers poll through the mutex-guarded accessors, so a load that resolves
// late (or after teardown) never races the simulation.
type Library struct {
	dir    string
	logger *zap.Logger

	mu        sync.RWMutex
	models    map[string]*CharacterModel
	items     map[string]*ItemAsset
	clips     map[string]*Clip
	clipPaths map[string]string
	loaded    bool
}

func NewLibrary(dir string, logger *zap.Logger) *Library {
	return &Library{
		dir:       dir,
		logger:    logger,
		models:    make(map[string]*CharacterModel),
		items:     make(map[string]*ItemAsset),
		clips:     make(map[string]*Clip),
		clipPaths: make(map[string]string),
	}
}

// Load parses the models/ and items/ subdirectories and indexes clips/ for
// lazy parsing. Per-file failures are logged and skipped; the demo keeps
// running with whatever resolved. A load finishing after ctx is canceled
// publishes nothing.
func (l *Library) Load(ctx context.Context) error {
	models := make(map[string]*CharacterModel)
	items := make(map[string]*ItemAsset)
	clipPaths := make(map[string]string)

	for _, path := range listJSON(filepath.Join(l.dir, "models")) {
		var m CharacterModel
		if err := readJSON(path, &m); err != nil {
			l.logger.Warn("skipping unreadable model", zap.String("path", path), zap.Error(err))
			continue
		}
		models[m.Name] = &m
	}
	for _, path := range listJSON(filepath.Join(l.dir, "items")) {
		var it ItemAsset
		if err := readJSON(path, &it); err != nil {
			l.logger.Warn("skipping unreadable item", zap.String("path", path), zap.Error(err))
			continue
		}
		items[it.Name] = &it
	}
	for _, path := range listJSON(filepath.Join(l.dir, "clips")) {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		clipPaths[name] = path
	}

	if err := ctx.Err(); err != nil {
		// Teardown happened while loading; leave the library untouched.
		return err
	}

	l.mu.Lock()
	l.models = models
	l.items = items
	l.clipPaths = clipPaths
	l.loaded = true
	l.mu.Unlock()

	l.logger.Info("asset library loaded",
		zap.Int("models", len(models)),
		zap.Int("items", len(items)),
		zap.Int("clips", len(clipPaths)))
	return nil
}

// Loaded reports whether Load has published a result.
func (l *Library) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Model returns a character model by name.
func (l *Library) Model(name string) (*CharacterModel, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.models[name]
	return m, ok
}

// Item returns an item asset by name.
func (l *Library) Item(name string) (*ItemAsset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	it, ok := l.items[name]
	return it, ok
}

// ItemNames lists the loaded item assets.
func (l *Library) ItemNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.items))
	for name := range l.items {
		names = append(names, name)
	}
	return names
}

// Clip returns a one-shot clip by name, parsing and caching it on first use.
func (l *Library) Clip(name string) (*Clip, error) {
	l.mu.RLock()
	if c, ok := l.clips[name]; ok {
		l.mu.RUnlock()
		return c, nil
	}
	path, ok := l.clipPaths[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no clip named %q", name)
	}

	var c Clip
	if err := readJSON(path, &c); err != nil {
		return nil, fmt.Errorf("loading clip %q: %w", name, err)
	}
	if c.Name == "" {
		c.Name = name
	}

	l.mu.Lock()
	l.clips[name] = &c
	l.mu.Unlock()
	return &c, nil
}

// PutClip inserts a clip directly, used by tests and embedded defaults.
func (l *Library) PutClip(c *Clip) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clips[c.Name] = c
}

// PutItem inserts an item asset directly.
func (l *Library) PutItem(a *ItemAsset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[a.Name] = a
	l.loaded = true
}

// PutModel inserts a character model directly.
func (l *Library) PutModel(m *CharacterModel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models[m.Name] = m
	l.loaded = true
}

func listJSON(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
