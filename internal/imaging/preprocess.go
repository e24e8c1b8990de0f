package imaging

import (
	"gocv.io/x/gocv"
)

// SmoothParams configures the bilateral filter applied before edge detection.
//
// The filter blurs flat regions while keeping sharp intensity transitions,
// so plate borders survive and paint texture or sensor noise does not.
type SmoothParams struct {
	// Diameter of the pixel neighbourhood. Larger values blur more and
	// are slower.
	Diameter int

	// SigmaColor controls how different two intensities may be and still
	// be mixed. Small values preserve more edges.
	SigmaColor float64

	// SigmaSpace controls how far apart two pixels may be and still
	// influence each other.
	SigmaSpace float64
}

// Grayscale converts a BGR matrix to a single-channel luma matrix using
// OpenCV's BT.601 weights (0.299 R + 0.587 G + 0.114 B).
//
// The caller owns the returned matrix.
func Grayscale(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray
}

// Smooth applies an edge-preserving bilateral filter to a grayscale matrix.
//
// The caller owns the returned matrix.
func Smooth(gray gocv.Mat, p SmoothParams) gocv.Mat {
	smoothed := gocv.NewMat()
	gocv.BilateralFilter(gray, &smoothed, p.Diameter, p.SigmaColor, p.SigmaSpace)
	return smoothed
}
