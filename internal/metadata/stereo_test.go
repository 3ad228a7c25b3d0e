package metadata_test

import (
	"errors"
	"testing"

	"spatialphoto/internal/geometry"
	"spatialphoto/internal/metadata"
)

func resolved(t *testing.T) geometry.Resolved {
	t.Helper()
	r, _ := geometry.Resolve(geometry.Params{
		HFOVDegrees:         geometry.Float(60),
		DisparityAdjustment: geometry.Float(0.02),
	}, geometry.Defaults{HFOVDegrees: 48, BaselineMM: 64}, 800, 600)
	return r
}

func TestBuildStereoComplementaryRoles(t *testing.T) {
	g := resolved(t)
	base := metadata.NewBag()
	base.EnsureSub(metadata.KeyTIFF).Set(metadata.TIFFMake, "Acme")

	left := metadata.BuildStereo(metadata.RoleLeft, g, metadata.Position(metadata.RoleLeft, g.BaselineMeters), base)
	right := metadata.BuildStereo(metadata.RoleRight, g, metadata.Position(metadata.RoleRight, g.BaselineMeters), base)

	ls, err := metadata.ParseStereo(left)
	if err != nil {
		t.Fatalf("parse left: %v", err)
	}
	rs, err := metadata.ParseStereo(right)
	if err != nil {
		t.Fatalf("parse right: %v", err)
	}

	if ls.Role != metadata.RoleLeft || rs.Role != metadata.RoleRight {
		t.Fatalf("roles: got %v/%v", ls.Role, rs.Role)
	}
	if _, ok := left.Sub(metadata.KeyGroups).Get(metadata.GroupImageIsRight); ok {
		t.Fatal("left block should not carry the right flag")
	}
	for _, s := range []metadata.Stereo{ls, rs} {
		if s.GroupIndex != 0 || s.GroupType != metadata.GroupTypeStereoPair {
			t.Fatalf("group: got %d %q", s.GroupIndex, s.GroupType)
		}
		if s.DisparityFixedPoint != 200 {
			t.Fatalf("disparity: got %d want 200", s.DisparityFixedPoint)
		}
		if s.ModelType != metadata.CameraModelTypeSimplifiedPinhole {
			t.Fatalf("model type: got %q", s.ModelType)
		}
		if s.HasAlpha {
			t.Fatal("HasAlpha should be false")
		}
		want := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
		for i := range want {
			if s.Rotation[i] != want[i] {
				t.Fatalf("rotation: got %v", s.Rotation)
			}
		}
		if s.Intrinsics[2] != 400 || s.Intrinsics[5] != 300 || s.Intrinsics[0] != g.FocalLengthPixels {
			t.Fatalf("intrinsics: got %v", s.Intrinsics)
		}
	}
	if ls.Position.X != 0 || ls.Position.Y != 0 || ls.Position.Z != 0 {
		t.Fatalf("left position: got %v", ls.Position)
	}
	if rs.Position.X != 0.064 || rs.Position.Y != 0 || rs.Position.Z != 0 {
		t.Fatalf("right position: got %v", rs.Position)
	}

	if got, _ := right.Sub(metadata.KeyTIFF).String(metadata.TIFFMake); got != "Acme" {
		t.Fatalf("base entries should be kept: got %q", got)
	}
	if base.Sub(metadata.KeyGroups) != nil || base.Sub(metadata.KeyHEIF) != nil {
		t.Fatal("base bag was modified")
	}
}

func TestBuildStereoOverwritesExistingBlock(t *testing.T) {
	g := resolved(t)
	base := metadata.BuildStereo(metadata.RoleLeft, g, metadata.Position(metadata.RoleLeft, 1), nil)
	base.Set(metadata.KeyHasAlpha, true)

	out := metadata.BuildStereo(metadata.RoleRight, g, metadata.Position(metadata.RoleRight, 0.05), base)
	s, err := metadata.ParseStereo(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Role != metadata.RoleRight {
		t.Fatalf("role: got %v want right", s.Role)
	}
	if s.HasAlpha {
		t.Fatal("HasAlpha should be reset to false")
	}
	if s.Position.X != 0.05 {
		t.Fatalf("position: got %v", s.Position)
	}
}

func TestParseStereoMissingBlock(t *testing.T) {
	if _, err := metadata.ParseStereo(metadata.NewBag()); !errors.Is(err, metadata.ErrNoStereo) {
		t.Fatalf("expected ErrNoStereo, got %v", err)
	}
}
