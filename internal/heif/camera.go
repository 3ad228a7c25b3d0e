package heif

import "math"

// Intrinsics are pinhole camera parameters in pixels.
type Intrinsics struct {
	FocalLengthX   float64
	FocalLengthY   float64
	PrincipalPoint [2]float64
	Skew           float64
}

// Extrinsics place the camera in a shared world coordinate system. Position
// is in meters. Rotation is always identity for the views written here.
type Extrinsics struct {
	CoordinateSystemID uint32
	Position           [3]float64
}

// cmin stores values relative to the image size as fixed point numbers with
// a 2^denominatorShift denominator.
const (
	cminDenominatorShift = 16
	cminSkewShift        = 16
	cminFullMatrix       = 0x10000
)

// cmex flags.
const (
	cmexPosX      = 0x01
	cmexPosY      = 0x02
	cmexPosZ      = 0x04
	cmexIDPresent = 0x20
)

// micrometersPerMeter scales cmex positions.
const micrometersPerMeter = 1e6

func cminBox(in Intrinsics, width, height int) *box {
	flags := uint32(cminFullMatrix | cminDenominatorShift<<8 | cminSkewShift)
	b := newFullBox("cmin", 0, flags)
	den := float64(uint32(1) << cminDenominatorShift)
	w, h := float64(width), float64(height)
	b.i32(fixed(in.FocalLengthX/w, den))
	b.i32(fixed(in.PrincipalPoint[0]/w, den))
	b.i32(fixed(in.PrincipalPoint[1]/h, den))
	b.i32(fixed(in.FocalLengthY/h, den))
	b.i32(fixed(in.Skew, float64(uint32(1)<<cminSkewShift)))
	return b
}

func cmexBox(ex Extrinsics) *box {
	b := newFullBox("cmex", 0, cmexPosX|cmexPosY|cmexPosZ|cmexIDPresent)
	for _, p := range ex.Position {
		b.i32(int32(math.Round(p * micrometersPerMeter)))
	}
	b.u32(ex.CoordinateSystemID)
	return b
}

func fixed(v, den float64) int32 {
	scaled := math.Round(v * den)
	switch {
	case scaled > math.MaxInt32:
		return math.MaxInt32
	case scaled < math.MinInt32:
		return math.MinInt32
	default:
		return int32(scaled)
	}
}
