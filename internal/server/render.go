package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"image"
	"net/http"
	"time"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/detection"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/imaging"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/ocr"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/pipeline"
)

// Banner messages.
const (
	msgNotFound       = "No license plate detected!"
	msgEmptyText      = "Plate detected, but no text could be read"
	msgFound          = "License plate detected"
	msgDecode         = "The uploaded file is not a readable JPG or PNG image."
	msgEngine         = "OCR engine not found. Set OCR_ENGINE_PATH to the Tesseract tessdata directory."
	msgRecognition    = "Text recognition failed."
	msgCanceled       = "The request was canceled before processing finished."
	msgInternal       = "Processing failed."
	msgMissingFile    = "Choose a JPG or PNG image to upload."
	msgTooLargeFormat = "File too large (max %d MB)."
)

// Banner kinds, used as CSS classes.
const (
	kindError   = "error"
	kindWarning = "warning"
	kindSuccess = "success"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge, exclusive
	Y2 int `json:"y2"` // Bottom edge, exclusive
}

func boundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type banner struct {
	Kind    string
	Message string
	Detail  string
}

type stageView struct {
	Name  string
	Title string
	Src   template.URL
}

// page is the view model of index.html and result.html.
type page struct {
	RequestID   string
	MaxUploadMB int
	TopContours int

	Filename string
	Banner   *banner
	Stages   []stageView
	Text     *ocr.Result

	Width   int
	Height  int
	Elapsed string
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, imaging.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, ocr.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// bannerFor picks the message shown above the stages.
func bannerFor(res *pipeline.Result, err error) *banner {
	switch {
	case errors.Is(err, imaging.ErrDecode):
		return &banner{Kind: kindError, Message: msgDecode, Detail: err.Error()}
	case errors.Is(err, ocr.ErrEngineUnavailable):
		return &banner{Kind: kindError, Message: msgEngine, Detail: err.Error()}
	case errors.Is(err, ocr.ErrRecognition):
		return &banner{Kind: kindError, Message: msgRecognition, Detail: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &banner{Kind: kindError, Message: msgCanceled}
	case err != nil:
		return &banner{Kind: kindError, Message: msgInternal, Detail: err.Error()}
	case res == nil:
		return &banner{Kind: kindError, Message: msgInternal}
	}

	switch res.Outcome {
	case pipeline.OutcomeNotFound:
		return &banner{Kind: kindError, Message: msgNotFound}
	case pipeline.OutcomeEmptyText:
		return &banner{Kind: kindWarning, Message: msgEmptyText}
	default:
		return &banner{Kind: kindSuccess, Message: msgFound}
	}
}

// fill renders a pipeline outcome into p and returns the HTTP status.
// Stages are shown whenever the pipeline produced them, including when OCR
// failed after the plate was located.
func (p *page) fill(res *pipeline.Result, err error) int {
	status := statusFor(err)
	p.Banner = bannerFor(res, err)

	if res == nil {
		return status
	}

	p.Width, p.Height = res.Width, res.Height
	p.Elapsed = res.Duration.Round(time.Millisecond).String()
	if err == nil {
		p.Text = res.Text
	}

	for _, s := range res.Stages {
		src, encErr := dataURI(s.Image)
		if encErr != nil {
			p.Stages = nil
			p.Text = nil
			p.Banner = &banner{Kind: kindError, Message: msgInternal, Detail: encErr.Error()}
			return http.StatusInternalServerError
		}
		p.Stages = append(p.Stages, stageView{Name: s.Name, Title: s.Title, Src: src})
	}
	return status
}

func dataURI(img image.Image) (template.URL, error) {
	b64, err := imaging.EncodeBase64PNG(img)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + b64), nil
}

// plateJSON describes the located plate.
type plateJSON struct {
	Rank    int     `json:"rank"`
	Bounds  Bounds  `json:"bounds"`
	Polygon []Point `json:"polygon"`
}

type stageJSON struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	PNG   string `json:"png,omitempty"`
}

// detectResponse is the body of POST /api/detect.
type detectResponse struct {
	RequestID string `json:"request_id"`
	Outcome   string `json:"outcome,omitempty"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`

	Width        int `json:"width,omitempty"`
	Height       int `json:"height,omitempty"`
	EdgePixels   int `json:"edge_pixels"`
	ContourCount int `json:"contour_count"`
	RankedCount  int `json:"ranked_count"`

	Plate    *plateJSON            `json:"plate,omitempty"`
	Text     *ocr.Result           `json:"text,omitempty"`
	Rejected []detection.Rejection `json:"rejected,omitempty"`
	Stages   []stageJSON           `json:"stages,omitempty"`

	DurationMS int64 `json:"duration_ms"`
}

// newDetectResponse renders a pipeline outcome as JSON. Stage images are
// included as base64 PNG only when withImages is set.
func newDetectResponse(requestID string, res *pipeline.Result, err error, withImages bool) (*detectResponse, int) {
	status := statusFor(err)
	b := bannerFor(res, err)

	resp := &detectResponse{
		RequestID: requestID,
		Message:   b.Message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	if res == nil {
		return resp, status
	}

	resp.Outcome = res.Outcome.String()
	resp.Width, resp.Height = res.Width, res.Height
	resp.EdgePixels = res.EdgePixels
	resp.ContourCount = res.ContourCount
	resp.RankedCount = res.RankedCount
	resp.DurationMS = res.Duration.Milliseconds()
	if err == nil {
		resp.Text = res.Text
	}

	if loc := res.Location; loc != nil {
		resp.Rejected = loc.Rejected
		if loc.Found() {
			poly := make([]Point, len(loc.Polygon))
			for i, pt := range loc.Polygon {
				poly[i] = Point{X: pt.X, Y: pt.Y}
			}
			resp.Plate = &plateJSON{Rank: loc.Rank, Bounds: boundsOf(loc.Bounds), Polygon: poly}
		}
	}

	for _, s := range res.Stages {
		sj := stageJSON{Name: s.Name, Title: s.Title}
		if withImages {
			b64, encErr := imaging.EncodeBase64PNG(s.Image)
			if encErr != nil {
				resp.Error = fmt.Sprintf("failed to encode stage %s: %v", s.Name, encErr)
				resp.Message = msgInternal
				return resp, http.StatusInternalServerError
			}
			sj.PNG = b64
		}
		resp.Stages = append(resp.Stages, sj)
	}
	return resp, status
}
