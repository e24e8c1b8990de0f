package imaging

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// ParseColor parses a "#RRGGBB" hex string into an opaque RGBA colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid overlay color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawContours draws closed polylines on a copy of src and returns the
// copy as an image. src is not modified.
//
// Each entry of contours is one closed curve. stroke is the line width in
// pixels. An empty contour list returns a plain copy of src.
func DrawContours(src gocv.Mat, contours [][]image.Point, c color.RGBA, stroke int) (image.Image, error) {
	canvas := src.Clone()
	defer canvas.Close()

	if len(contours) > 0 {
		pv := gocv.NewPointsVectorFromPoints(contours)
		defer pv.Close()
		gocv.DrawContours(&canvas, pv, -1, c, stroke)
	}

	return MatToImage(canvas)
}
