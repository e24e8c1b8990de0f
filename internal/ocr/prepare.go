package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/imaging"
)

// Prepare conditions a plate crop for recognition.
//
// With Scale 1 and Binarize off the crop is returned as is. Otherwise it is
// resized by Scale (Lanczos) and, when Binarize is set, converted to
// grayscale and thresholded at Threshold: pixels at or above the level
// become white, the rest black.
func Prepare(img image.Image, opts Options) image.Image {
	out := imaging.Upscale(img, opts.Scale)

	if !opts.Binarize {
		return out
	}

	level := opts.Threshold
	if level <= 0 || level > 255 {
		level = DefaultOptions().Threshold
	}
	return segment.Threshold(effect.Grayscale(out), uint8(level))
}
