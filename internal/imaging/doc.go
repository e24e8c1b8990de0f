// Package imaging provides the raster stages of the plate reader.
//
// It decodes uploaded bytes into a source raster and derives the images the
// detector and the result page need: grayscale, bilateral smoothing, Canny
// edges, contour overlays and crops. The pixel work is done by OpenCV
// through gocv; decoding, cropping and encoding use disintegration/imaging.
//
// # Coordinate System
//
// All coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions follow
// image.Rectangle conventions: Min is inclusive, Max is exclusive.
//
// # Matrix Ownership
//
// Functions returning a gocv.Mat hand ownership to the caller, who must
// Close it. Functions returning image.Image copy the pixels out, so the
// result stays valid after every matrix is closed.
//
// # Dimensions
//
// Grayscale, Smooth and DetectEdges never resize: their outputs have the
// same width and height as their inputs.
//
// # Error Handling
//
// Decode wraps every failure in ErrDecode. The numeric stages have no
// error conditions; they run on rasters that already decoded.
package imaging
