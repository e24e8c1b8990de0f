package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/detection"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/imaging"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/ocr"
)

// Recognizer reads text from a plate crop. *ocr.Engine implements it.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (*ocr.Result, error)
}

// Outcome is the end state of a run that did not fail.
type Outcome int

const (
	// OutcomeNotFound means no contour approximated to a quadrilateral.
	OutcomeNotFound Outcome = iota

	// OutcomeFound means a plate was located and text was read.
	OutcomeFound

	// OutcomeEmptyText means a plate was located but OCR returned nothing.
	OutcomeEmptyText
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFound:
		return "found"
	case OutcomeEmptyText:
		return "empty_text"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Stage names, in presentation order.
const (
	StageOriginal    = "original"
	StageGrayscale   = "grayscale"
	StageSmoothed    = "smoothed"
	StageEdges       = "edges"
	StageAllContours = "all_contours"
	StageTopContours = "top_contours"
	StagePlate       = "plate"
	StageMarked      = "marked"
)

// Stage is one intermediate image shown to the user.
type Stage struct {
	Name  string      `json:"name"`
	Title string      `json:"title"`
	Image image.Image `json:"-"`
}

// Result is everything a run produced, in order.
type Result struct {
	RequestID string  `json:"request_id"`
	Outcome   Outcome `json:"outcome"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Format    string  `json:"format"`

	// Stages holds the rendered intermediates. Six stages always, two
	// more when a plate was located.
	Stages []Stage `json:"stages"`

	EdgePixels   int                 `json:"edge_pixels"`
	ContourCount int                 `json:"contour_count"`
	RankedCount  int                 `json:"ranked_count"`
	Location     *detection.Location `json:"location"`

	// Plate is the cropped plate region, nil unless located.
	Plate image.Image `json:"-"`

	// Text is nil unless OCR ran and succeeded.
	Text *ocr.Result `json:"text,omitempty"`

	Duration time.Duration `json:"duration_ns"`
}

// Stage returns the stage with the given name.
func (r *Result) Stage(name string) (Stage, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

func (r *Result) add(name, title string, img image.Image) {
	r.Stages = append(r.Stages, Stage{Name: name, Title: title, Image: img})
}

// Pipeline runs uploads through decode, preprocessing, edge detection,
// contour ranking, plate location and OCR.
//
// Runs are serialised: one image is processed at a time, whatever the
// number of concurrent callers.
type Pipeline struct {
	mu     sync.Mutex
	params Params
	ocr    Recognizer
	debug  bool
}

// New returns a Pipeline. Debug enables per-stage log lines.
func New(params Params, recognizer Recognizer, debug bool) *Pipeline {
	return &Pipeline{
		params: params,
		ocr:    recognizer,
		debug:  debug,
	}
}

// Params returns the run parameters.
func (p *Pipeline) Params() Params {
	return p.params
}

// Run processes one uploaded image.
//
// The stages run strictly in order and every failure halts the run. ctx is
// checked between stages; a stage in progress is never interrupted.
//
// Returns:
//   - (nil, err) when data does not decode (wraps imaging.ErrDecode) or
//     ctx is done before OCR.
//   - (result, nil) with Outcome NotFound, Found or EmptyText.
//   - (result, err) when OCR fails: err wraps ocr.ErrEngineUnavailable or
//     ocr.ErrRecognition and result still holds every detection stage.
func (p *Pipeline) Run(ctx context.Context, data []byte) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	id := RequestID(ctx)

	raster, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	defer raster.Close()

	res := &Result{
		RequestID: id,
		Width:     raster.Width(),
		Height:    raster.Height(),
		Format:    raster.Format,
	}
	defer func() { res.Duration = time.Since(start) }()

	p.debugf(id, "decoded %dx%d %s (%d bytes)", res.Width, res.Height, raster.Format, len(data))
	res.add(StageOriginal, "Original Image", raster.Image)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(raster.Mat)
	defer gray.Close()
	grayImg, err := imaging.MatToImage(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to render grayscale stage: %w", err)
	}
	res.add(StageGrayscale, "Grayscale Image", grayImg)

	smoothed := imaging.Smooth(gray, p.params.Smooth)
	defer smoothed.Close()
	smoothedImg, err := imaging.MatToImage(smoothed)
	if err != nil {
		return nil, fmt.Errorf("failed to render smoothed stage: %w", err)
	}
	res.add(StageSmoothed, "Smoothed Image", smoothedImg)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edges := imaging.DetectEdges(smoothed, p.params.Edges)
	defer edges.Close()
	edgesImg, err := imaging.MatToImage(edges)
	if err != nil {
		return nil, fmt.Errorf("failed to render edge stage: %w", err)
	}
	res.EdgePixels = imaging.CountEdgePixels(edges)
	res.add(StageEdges, "Edge Detection", edgesImg)
	p.debugf(id, "edges: %d pixels", res.EdgePixels)

	contours := detection.ExtractContours(edges, p.params.TopContours)
	res.ContourCount = len(contours.All)
	res.RankedCount = len(contours.Ranked)
	p.debugf(id, "contours: %d extracted, %d ranked", res.ContourCount, res.RankedCount)

	allImg, err := imaging.DrawContours(raster.Mat, detection.Points(contours.All), p.params.OverlayColor, p.params.ContourStroke)
	if err != nil {
		return nil, fmt.Errorf("failed to render contour overlay: %w", err)
	}
	res.add(StageAllContours, "All Contours", allImg)

	topImg, err := imaging.DrawContours(raster.Mat, detection.Points(contours.Ranked), p.params.OverlayColor, p.params.ContourStroke)
	if err != nil {
		return nil, fmt.Errorf("failed to render contour overlay: %w", err)
	}
	res.add(StageTopContours, fmt.Sprintf("Top %d Contours", p.topN()), topImg)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc := detection.Locate(contours.Ranked, raster.Bounds(), p.params.Locator)
	res.Location = loc
	if !loc.Found() {
		res.Outcome = OutcomeNotFound
		p.debugf(id, "no plate among %d ranked contours", res.RankedCount)
		return res, nil
	}
	p.debugf(id, "plate at rank %d, bounds %v", loc.Rank, loc.Bounds)

	plate, err := loc.Crop(raster.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to crop plate: %w", err)
	}
	res.Plate = plate
	res.add(StagePlate, "Detected License Plate", plate)

	marked, err := imaging.DrawContours(raster.Mat, [][]image.Point{loc.Polygon}, p.params.OverlayColor, p.params.OutlineStroke)
	if err != nil {
		return nil, fmt.Errorf("failed to render plate outline: %w", err)
	}
	res.add(StageMarked, "Image with Plate Marked", marked)

	// A plate was located; OCR failures below keep res.
	res.Outcome = OutcomeFound

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := p.ocr.Recognize(ctx, plate)
	if err != nil {
		log.Printf("[%s] OCR failed: %v", id, err)
		return res, fmt.Errorf("failed to read plate text: %w", err)
	}
	res.Text = text

	if text.Empty() {
		res.Outcome = OutcomeEmptyText
	}
	p.debugf(id, "outcome %s, text %q", res.Outcome, text.Normalized)

	return res, nil
}

func (p *Pipeline) topN() int {
	if p.params.TopContours < 1 {
		return detection.DefaultContourLimit
	}
	return p.params.TopContours
}

func (p *Pipeline) debugf(id, format string, args ...any) {
	if !p.debug {
		return
	}
	log.Printf("[%s] "+format, append([]any{id}, args...)...)
}
