package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// HFOVFromSensor returns the horizontal field of view in degrees for a sensor
// of the given width behind a lens of the given focal length.
func HFOVFromSensor(sensorWidthMM, focalLengthMM float64) float64 {
	return 2 * (180 / math.Pi) * math.Atan(sensorWidthMM/(2*focalLengthMM))
}

// FocalLengthPixels converts a horizontal field of view into a focal length
// expressed in pixels for an image of the given width.
func FocalLengthPixels(width int, hfovDegrees float64) float64 {
	radians := hfovDegrees * (math.Pi / 180)
	return 0.5 * float64(width) / math.Tan(0.5*radians)
}

// Intrinsics builds the pinhole projection matrix
//
//	[f 0 w/2]
//	[0 f h/2]
//	[0 0  1 ]
func Intrinsics(focalPixels float64, width, height int) *mat.Dense {
	w := float64(width)
	h := float64(height)
	return mat.NewDense(3, 3, []float64{
		focalPixels, 0, w / 2,
		0, focalPixels, h / 2,
		0, 0, 1,
	})
}

// Identity returns a fresh 3×3 identity rotation.
func Identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

// RowMajor flattens a matrix into a row-major slice.
func RowMajor(m mat.Matrix) []float64 {
	if m == nil {
		return nil
	}
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

const disparityScale = 1e4

// EncodeDisparity stores a disparity adjustment in [-1, 1] as a fixed-point
// integer scaled by 10^4. Values outside the range are clamped.
func EncodeDisparity(adjustment float64) int64 {
	if math.IsNaN(adjustment) {
		return 0
	}
	adjustment = math.Max(-1, math.Min(1, adjustment))
	return int64(math.Round(adjustment * disparityScale))
}

// DecodeDisparity reverses EncodeDisparity.
func DecodeDisparity(value int64) float64 {
	return float64(value) / disparityScale
}
