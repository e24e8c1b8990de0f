package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"gocv.io/x/gocv"
)

// ErrDecode is returned when uploaded bytes are not a decodable JPEG or PNG.
var ErrDecode = errors.New("image could not be decoded")

// supportedTypes lists the MIME types Decode accepts.
var supportedTypes = []string{"image/jpeg", "image/png"}

// Raster is a decoded source image held in two forms.
//
// Mat is the 3-channel BGR matrix the OpenCV stages consume. Image is the
// same pixels as an *image.NRGBA with its origin at (0, 0), used for
// cropping and presentation.
//
// A Raster owns Mat; call Close when done.
type Raster struct {
	Mat    gocv.Mat
	Image  image.Image
	Format string
}

// Decode turns an uploaded byte buffer into a Raster.
//
// Only JPEG and PNG are accepted; the content type is sniffed from the
// bytes, not taken from a filename. EXIF orientation is applied so the
// raster matches what a viewer shows. No resizing is done.
//
// # Errors
//
// Every failure wraps ErrDecode: empty input, unsupported formats, and
// truncated or corrupt data.
func Decode(data []byte) (*Raster, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrDecode)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), supportedTypes...) {
		return nil, fmt.Errorf("%w: unsupported format %s", ErrDecode, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Normalise to NRGBA at origin (0,0) so crop coordinates and matrix
	// coordinates agree.
	nrgba := imaging.Clone(img)

	mat, err := gocv.ImageToMatRGB(nrgba)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: empty raster", ErrDecode)
	}

	return &Raster{
		Mat:    mat,
		Image:  nrgba,
		Format: mtype.Extension(),
	}, nil
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int {
	return r.Image.Bounds().Dx()
}

// Height returns the raster height in pixels.
func (r *Raster) Height() int {
	return r.Image.Bounds().Dy()
}

// Bounds returns the raster bounds, always anchored at (0, 0).
func (r *Raster) Bounds() image.Rectangle {
	return r.Image.Bounds()
}

// Close releases the OpenCV matrix.
func (r *Raster) Close() error {
	return r.Mat.Close()
}

// MatToImage converts a CV_8UC1 or CV_8UC3 matrix to an image.Image.
// Single-channel matrices become *image.Gray; BGR matrices become RGBA.
func MatToImage(m gocv.Mat) (image.Image, error) {
	if m.Empty() {
		return nil, fmt.Errorf("cannot convert empty matrix")
	}
	img, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert matrix: %w", err)
	}
	return img, nil
}
