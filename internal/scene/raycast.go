package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Hit is one ray intersection, ordered nearest-first by Raycast.
type Hit struct {
	ObjectID string
	Point    mgl64.Vec3
	Distance float64
}

// Raycast intersects a ray with the axis-aligned bounding boxes of the
// given kinds of scene objects and returns hits ordered by distance.
// Rotation is ignored on purpose: the boxes here are pick regions, not
// collision geometry.
func (m *Manager) Raycast(ray Ray, kinds ...Kind) []Hit {
	wanted := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var hits []Hit
	for _, obj := range m.Objects() {
		if len(wanted) > 0 && !wanted[obj.Kind] {
			continue
		}
		if obj.Kind == KindGround {
			continue
		}
		t, ok := rayBoxIntersect(ray, obj.Position, obj.Size.Mul(0.5))
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			ObjectID: obj.ID,
			Point:    ray.Origin.Add(ray.Dir.Mul(t)),
			Distance: t,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// rayBoxIntersect is the slab test against an AABB centered at center with
// the given half extents. Returns the entry distance along the ray.
func rayBoxIntersect(ray Ray, center, half mgl64.Vec3) (float64, bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		lo := center[axis] - half[axis]
		hi := center[axis] + half[axis]
		d := ray.Dir[axis]
		o := ray.Origin[axis]

		if math.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		// Ray starts inside the box.
		return 0, true
	}
	return tMin, true
}
