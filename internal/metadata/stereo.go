package metadata

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"

	"spatialphoto/internal/geometry"
)

// Role is the eye a view belongs to.
type Role int

const (
	RoleLeft Role = iota
	RoleRight
)

func (r Role) String() string {
	if r == RoleRight {
		return "right"
	}
	return "left"
}

// Position returns the camera center for role given the stereo baseline.
// The left camera sits at the origin.
func Position(role Role, baselineMeters float64) r3.Vector {
	if role == RoleRight {
		return r3.Vector{X: baselineMeters}
	}
	return r3.Vector{}
}

// BuildStereo returns a clone of base carrying the stereo group membership,
// camera model and extrinsics for one view. Existing entries under those keys
// are overwritten; base is not modified.
func BuildStereo(role Role, g geometry.Resolved, position r3.Vector, base *Bag) *Bag {
	out := base.Clone()
	if out == nil {
		out = NewBag()
	}

	group := NewBag()
	group.Set(GroupIndex, int64(0))
	group.Set(GroupType, GroupTypeStereoPair)
	if role == RoleRight {
		group.Set(GroupImageIsRight, true)
	} else {
		group.Set(GroupImageIsLeft, true)
	}
	group.Set(GroupDisparityAdjustment, g.DisparityFixedPoint)
	out.Set(KeyGroups, group)

	intrinsics := g.Intrinsics
	if intrinsics == nil {
		intrinsics = geometry.Intrinsics(g.FocalLengthPixels, g.Width, g.Height)
	}
	model := NewBag()
	model.Set(CameraModelIntrinsics, geometry.RowMajor(intrinsics))
	model.Set(CameraModelType, CameraModelTypeSimplifiedPinhole)

	extrinsics := NewBag()
	extrinsics.Set(ExtrinsicsCoordinateSystemID, int64(0))
	extrinsics.Set(ExtrinsicsPosition, []float64{position.X, position.Y, position.Z})
	extrinsics.Set(ExtrinsicsRotation, geometry.RowMajor(geometry.Identity()))

	heif := out.EnsureSub(KeyHEIF)
	heif.Set(CameraModel, model)
	heif.Set(CameraExtrinsics, extrinsics)

	out.Set(KeyHasAlpha, false)
	return out
}

// Stereo is the parsed form of the block written by BuildStereo.
type Stereo struct {
	GroupIndex          int64
	GroupType           string
	Role                Role
	DisparityFixedPoint int64
	Intrinsics          []float64
	ModelType           string
	CoordinateSystemID  int64
	Position            r3.Vector
	Rotation            []float64
	HasAlpha            bool
}

// ErrNoStereo is returned by ParseStereo when the bag lacks a stereo block.
var ErrNoStereo = errors.New("no stereo metadata")

// ParseStereo reads the stereo block back out of b.
func ParseStereo(b *Bag) (Stereo, error) {
	group := b.Sub(KeyGroups)
	heif := b.Sub(KeyHEIF)
	if group == nil || heif == nil {
		return Stereo{}, ErrNoStereo
	}
	model := heif.Sub(CameraModel)
	extrinsics := heif.Sub(CameraExtrinsics)
	if model == nil || extrinsics == nil {
		return Stereo{}, fmt.Errorf("%w: camera model or extrinsics missing", ErrNoStereo)
	}

	var s Stereo
	s.GroupIndex, _ = group.Int(GroupIndex)
	s.GroupType, _ = group.String(GroupType)
	left, _ := group.Bool(GroupImageIsLeft)
	right, _ := group.Bool(GroupImageIsRight)
	switch {
	case left && !right:
		s.Role = RoleLeft
	case right && !left:
		s.Role = RoleRight
	default:
		return Stereo{}, fmt.Errorf("%w: ambiguous eye role", ErrNoStereo)
	}
	s.DisparityFixedPoint, _ = group.Int(GroupDisparityAdjustment)

	var ok bool
	if s.Intrinsics, ok = model.Floats(CameraModelIntrinsics); !ok || len(s.Intrinsics) != 9 {
		return Stereo{}, fmt.Errorf("%w: intrinsics must be 9 values", ErrNoStereo)
	}
	s.ModelType, _ = model.String(CameraModelType)
	s.CoordinateSystemID, _ = extrinsics.Int(ExtrinsicsCoordinateSystemID)

	pos, ok := extrinsics.Floats(ExtrinsicsPosition)
	if !ok || len(pos) != 3 {
		return Stereo{}, fmt.Errorf("%w: position must be 3 values", ErrNoStereo)
	}
	s.Position = r3.Vector{X: pos[0], Y: pos[1], Z: pos[2]}
	if s.Rotation, ok = extrinsics.Floats(ExtrinsicsRotation); !ok || len(s.Rotation) != 9 {
		return Stereo{}, fmt.Errorf("%w: rotation must be 9 values", ErrNoStereo)
	}
	s.HasAlpha, _ = b.Bool(KeyHasAlpha)
	return s, nil
}
