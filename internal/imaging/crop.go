package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Crop extracts a rectangular region from an image.
//
// The region uses image.Rectangle conventions: Min is inclusive, Max is
// exclusive. The returned image has its origin at (0, 0).
//
// # Errors
//
//   - The region is empty
//   - The region is not fully contained in the image bounds
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	bounds := img.Bounds()

	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: must have positive width and height", r)
	}
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	return imaging.Crop(img, r), nil
}

// Upscale resizes an image by factor using Lanczos resampling.
// A factor of 1 (or anything not greater than zero) returns img unchanged.
func Upscale(img image.Image, factor float64) image.Image {
	if factor == 1.0 || factor <= 0 {
		return img
	}
	w := int(float64(img.Bounds().Dx()) * factor)
	h := int(float64(img.Bounds().Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
