package imaging

import (
	"gocv.io/x/gocv"
)

// EdgeParams holds the Canny hysteresis thresholds.
//
// Gradients above High are always edges. Gradients between Low and High
// are kept only when connected to a strong edge. The thresholds are fixed
// values, not derived from image statistics, so low-contrast photographs
// simply produce fewer edges.
type EdgeParams struct {
	Low  float64
	High float64
}

// DetectEdges runs Canny edge detection on a smoothed grayscale matrix.
//
// The result is a binary CV_8UC1 matrix with the same dimensions as the
// input: 255 on edges, 0 elsewhere. The caller owns the returned matrix.
func DetectEdges(smoothed gocv.Mat, p EdgeParams) gocv.Mat {
	edges := gocv.NewMat()
	gocv.Canny(smoothed, &edges, float32(p.Low), float32(p.High))
	return edges
}

// CountEdgePixels returns the number of non-zero pixels in an edge map.
func CountEdgePixels(edges gocv.Mat) int {
	if edges.Empty() {
		return 0
	}
	return gocv.CountNonZero(edges)
}
