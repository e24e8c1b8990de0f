package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/imaging"
)

var (
	// ErrEngineUnavailable means Tesseract or its language model could not
	// be initialised. Nothing was recognised.
	ErrEngineUnavailable = errors.New("OCR engine unavailable")

	// ErrRecognition means the engine started but failed on the image.
	ErrRecognition = errors.New("OCR failed")
)

// Backend names the OCR implementation in Info.
const Backend = "gosseract (tesseract)"

// Options configures an Engine.
type Options struct {
	// TessdataPath is the directory holding <Language>.traineddata. Empty
	// uses Tesseract's compiled-in default.
	TessdataPath string

	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// PageSegMode is Tesseract's page segmentation mode. 3 is fully
	// automatic segmentation; 7 treats the image as a single text line.
	PageSegMode int

	// Pre-OCR conditioning, see Prepare.
	Scale     float64
	Binarize  bool
	Threshold int
}

// DefaultOptions returns English, automatic page segmentation, and no
// conditioning of the crop.
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		PageSegMode: int(gosseract.PSM_AUTO),
		Scale:       1.0,
		Threshold:   128,
	}
}

// Result is the text read from a plate crop.
type Result struct {
	// Text is the engine output as returned, including line breaks.
	Text string `json:"text"`

	// Normalized is Text upper-cased with everything but letters and
	// digits removed.
	Normalized string `json:"normalized"`
}

// Empty reports whether the engine returned no visible characters.
func (r *Result) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// NewResult builds a Result from raw engine output.
func NewResult(text string) *Result {
	return &Result{Text: text, Normalized: Normalize(text)}
}

// Normalize upper-cases plate text and drops whitespace, punctuation and
// any other non-alphanumeric runes.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Engine runs Tesseract on plate crops. It holds no native resources: each
// call creates and closes its own client, so an Engine is safe for
// concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an Engine for opts. Zero fields take their
// DefaultOptions values.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Language == "" {
		opts.Language = def.Language
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = def.PageSegMode
	}
	if opts.Scale <= 0 {
		opts.Scale = def.Scale
	}
	if opts.Threshold <= 0 || opts.Threshold > 255 {
		opts.Threshold = def.Threshold
	}
	return &Engine{opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Recognize reads the text of a plate crop.
//
// The crop is conditioned by Prepare, encoded as PNG and handed to a fresh
// Tesseract client. An empty string is a valid result; callers decide how
// to present it.
//
// Returns:
//   - *Result: Raw and normalised text.
//   - error: Wraps ErrEngineUnavailable when Tesseract cannot start,
//     ErrRecognition for any other failure, or ctx.Err() when ctx is
//     already done.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrRecognition)
	}

	if err := checkTessdata(e.opts.TessdataPath, e.opts.Language); err != nil {
		return nil, err
	}

	prepared := Prepare(img, e.opts)
	data, err := imaging.EncodePNG(prepared)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode crop: %v", ErrRecognition, err)
	}

	text, err := e.run(data)
	if err != nil {
		return nil, err
	}
	return NewResult(text), nil
}

// Check verifies that the language model exists and that Tesseract
// initialises with it, by recognising a small blank image.
func (e *Engine) Check() error {
	if err := checkTessdata(e.opts.TessdataPath, e.opts.Language); err != nil {
		return err
	}

	probe := image.NewGray(image.Rect(0, 0, 32, 16))
	for i := range probe.Pix {
		probe.Pix[i] = 0xff
	}
	data, err := imaging.EncodePNG(probe)
	if err != nil {
		return fmt.Errorf("failed to encode probe image: %w", err)
	}

	if _, err := e.run(data); err != nil {
		return err
	}
	return nil
}

// Version returns the linked Tesseract version.
func (e *Engine) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Info describes the OCR subsystem for health reporting.
type Info struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Error        string `json:"error,omitempty"`
	Backend      string `json:"backend"`
	Language     string `json:"language"`
	TessdataPath string `json:"tessdata_path,omitempty"`
}

// Info runs Check and reports the result.
func (e *Engine) Info() Info {
	info := Info{
		Backend:      Backend,
		Language:     e.opts.Language,
		TessdataPath: e.opts.TessdataPath,
	}
	if err := e.Check(); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	info.Version = e.Version()
	return info
}

// run recognises PNG bytes with a client configured from e.opts.
func (e *Engine) run(png []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.opts.TessdataPath != "" {
		if err := client.SetTessdataPrefix(e.opts.TessdataPath); err != nil {
			return "", fmt.Errorf("%w: failed to set tessdata path: %v", ErrEngineUnavailable, err)
		}
	}
	if err := client.SetLanguage(e.opts.Language); err != nil {
		return "", fmt.Errorf("%w: failed to set language: %v", ErrEngineUnavailable, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(e.opts.PageSegMode)); err != nil {
		return "", fmt.Errorf("%w: failed to set page segmentation mode: %v", ErrRecognition, err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("%w: failed to set image: %v", ErrRecognition, err)
	}

	text, err := client.Text()
	if err != nil {
		if isInitError(err) {
			return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	return text, nil
}

// isInitError reports whether a gosseract error came from TessBaseAPI
// initialisation rather than from recognition.
func isInitError(err error) bool {
	return strings.Contains(err.Error(), "TessBaseAPI")
}

// checkTessdata confirms dir holds the language model. An empty dir
// defers to Tesseract's default lookup.
func checkTessdata(dir, lang string) error {
	if dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: OCR engine not found at %s: %v", ErrEngineUnavailable, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: OCR engine not found at %s: not a directory", ErrEngineUnavailable, dir)
	}

	model := filepath.Join(dir, lang+".traineddata")
	if _, err := os.Stat(model); err != nil {
		return fmt.Errorf("%w: OCR language model %s not found in %s", ErrEngineUnavailable, lang, dir)
	}
	return nil
}
