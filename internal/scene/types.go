package scene

import "github.com/go-gl/mathgl/mgl64"

// Kind classifies a scene object for serialization and hit-testing.
type Kind string

const (
	KindCharacter Kind = "character"
	KindItem      Kind = "item"
	KindTrash     Kind = "trash"
	KindGround    Kind = "ground"
)

// Object is one renderable node mirrored to clients. Size is the bounding
// box of the visual asset (or the placeholder until the asset resolves).
type Object struct {
	ID       string
	Kind     Kind
	AssetID  string
	Size     mgl64.Vec3
	Color    string
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// HalfFootprint returns half the horizontal extents of the object, used by
// the boundary clamp to keep the whole model on screen.
func (o *Object) HalfFootprint() (halfW, halfH float64) {
	return o.Size.X() / 2, o.Size.Y() / 2
}

// BoundingRadius is half the bounding box diagonal.
func (o *Object) BoundingRadius() float64 {
	return o.Size.Mul(0.5).Len()
}
