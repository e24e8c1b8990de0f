// Package ocr reads the text of a located licence plate with Tesseract.
//
// Engine wraps gosseract/v2. Every call builds its own Tesseract client from
// the configured tessdata directory, language and page segmentation mode,
// recognises one image and closes the client again.
//
// # Prerequisites
//
// Tesseract and the language model must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The tessdata directory (the one containing eng.traineddata) is passed in
// Options.TessdataPath. Engine.Check verifies it at start-up so a missing
// model is reported before the first upload.
//
// # Conditioning
//
// Prepare can upscale the crop and binarise it before recognition. Both
// steps are off by default and the crop reaches Tesseract unchanged.
//
// # Error Handling
//
// Failures wrap one of two sentinels:
//   - ErrEngineUnavailable: the model is missing or Tesseract would not
//     initialise
//   - ErrRecognition: anything that went wrong with the image itself
//
// Empty text is not an error. Result.Empty reports it.
package ocr
