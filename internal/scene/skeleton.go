package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// BoneRef is one resolved skeleton bone. Offset is the bone pivot relative
// to the model origin; LocalRotation is what the procedural posing and
// one-shot clips drive each tick; RestRotation is recorded at resolve time.
type BoneRef struct {
	Name          string
	Offset        mgl64.Vec3
	RestRotation  mgl64.Quat
	LocalRotation mgl64.Quat
}

// ResolvedSkeleton is the best-effort bone set of the character, resolved
// once when the model asset loads. Any field may be nil; dependent
// behaviors degrade per bone (hit-test falls back to the bounding box,
// posing for a missing limb is skipped).
type ResolvedSkeleton struct {
	Spine      *BoneRef
	Head       *BoneRef
	ArmTopL    *BoneRef
	ArmBottomL *BoneRef
	ArmTopR    *BoneRef
	ArmBottomR *BoneRef

	byName map[string]*BoneRef
}

// Candidate bone names per slot, tried in order. Covers the common export
// conventions of the rigs the demo ships with.
var boneCandidates = map[string][]string{
	"spine":      {"Spine", "spine", "mixamorigSpine", "Bip01_Spine", "torso"},
	"head":       {"Head", "head", "mixamorigHead", "Bip01_Head"},
	"armTopL":    {"ArmTop_L", "UpperArm_L", "mixamorigLeftArm", "arm_upper_l"},
	"armBottomL": {"ArmBottom_L", "LowerArm_L", "mixamorigLeftForeArm", "arm_lower_l"},
	"armTopR":    {"ArmTop_R", "UpperArm_R", "mixamorigRightArm", "arm_upper_r"},
	"armBottomR": {"ArmBottom_R", "LowerArm_R", "mixamorigRightForeArm", "arm_lower_r"},
}

// ResolveSkeleton performs the one-time name lookup against a loaded model.
// Missing bones are logged and left nil.
func ResolveSkeleton(model *CharacterModel, logger *zap.Logger) *ResolvedSkeleton {
	byName := make(map[string]*BoneRef, len(model.Bones))
	for _, spec := range model.Bones {
		byName[spec.Name] = &BoneRef{
			Name:          spec.Name,
			Offset:        mgl64.Vec3{spec.Offset[0], spec.Offset[1], spec.Offset[2]},
			RestRotation:  mgl64.QuatIdent(),
			LocalRotation: mgl64.QuatIdent(),
		}
	}

	resolve := func(slot string) *BoneRef {
		for _, name := range boneCandidates[slot] {
			if ref, ok := byName[name]; ok {
				return ref
			}
		}
		logger.Warn("bone not found in model, dependent behavior degrades",
			zap.String("slot", slot), zap.String("model", model.Name))
		return nil
	}

	return &ResolvedSkeleton{
		Spine:      resolve("spine"),
		Head:       resolve("head"),
		ArmTopL:    resolve("armTopL"),
		ArmBottomL: resolve("armBottomL"),
		ArmTopR:    resolve("armTopR"),
		ArmBottomR: resolve("armBottomR"),
		byName:     byName,
	}
}

// Bones returns every resolved bone, including ones not mapped to a slot.
func (s *ResolvedSkeleton) Bones() []*BoneRef {
	out := make([]*BoneRef, 0, len(s.byName))
	for _, ref := range s.byName {
		out = append(out, ref)
	}
	return out
}

// Bone looks up a bone by its model name.
func (s *ResolvedSkeleton) Bone(name string) (*BoneRef, bool) {
	ref, ok := s.byName[name]
	return ref, ok
}

// SavePose snapshots every bone's current local rotation.
func (s *ResolvedSkeleton) SavePose() map[string]mgl64.Quat {
	saved := make(map[string]mgl64.Quat, len(s.byName))
	for name, ref := range s.byName {
		saved[name] = ref.LocalRotation
	}
	return saved
}

// RestorePose reinstates a snapshot taken with SavePose, so procedural
// posing resumes from a clean state after a one-shot clip.
func (s *ResolvedSkeleton) RestorePose(saved map[string]mgl64.Quat) {
	for name, rot := range saved {
		if ref, ok := s.byName[name]; ok {
			ref.LocalRotation = rot
		}
	}
}

// HeadWorldPosition computes the head pivot in world space from the body
// transform. Returns ok=false when the head bone did not resolve.
func (s *ResolvedSkeleton) HeadWorldPosition(bodyPos mgl64.Vec3, bodyRot mgl64.Quat) (mgl64.Vec3, bool) {
	if s == nil || s.Head == nil {
		return mgl64.Vec3{}, false
	}
	return bodyPos.Add(bodyRot.Rotate(s.Head.Offset)), true
}
