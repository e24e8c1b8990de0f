// Package pipeline runs one uploaded photograph through plate detection
// and OCR.
//
// # Stages
//
//  1. Decode the upload into a BGR raster
//  2. Grayscale, then bilateral smoothing
//  3. Canny edge detection
//  4. Contour extraction, ranked by area
//  5. Plate location: first quadrilateral among the ranked contours
//  6. OCR on the plate crop
//
// Every stage contributes a titled image to Result.Stages so the caller
// can show the whole chain. When no plate is located the run ends after
// stage 5 with OutcomeNotFound and OCR is never called.
//
// # Concurrency
//
// A Pipeline processes one image at a time. Concurrent calls to Run queue
// on an internal mutex. The context is checked between stages only.
//
// # Resources
//
// All OpenCV matrices are created and closed inside Run. Result holds only
// Go images, which remain valid after Run returns.
package pipeline
