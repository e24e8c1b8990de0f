package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/detection"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/ocr"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/pipeline"
)

// stubRunner returns a canned result and records what it received.
type stubRunner struct {
	res *pipeline.Result
	err error

	mu    sync.Mutex
	calls int
	data  []byte
	ctxID string
}

func (s *stubRunner) Run(ctx context.Context, data []byte) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.data = data
	s.ctxID = pipeline.RequestID(ctx)
	return s.res, s.err
}

type stubHealth struct {
	info ocr.Info
}

func (h stubHealth) Info() ocr.Info {
	return h.info
}

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// detectionStages returns the six stages every successful decode produces.
func detectionStages() []pipeline.Stage {
	img := solidImage(8, 6, color.Gray{Y: 128})
	return []pipeline.Stage{
		{Name: pipeline.StageOriginal, Title: "Original Image", Image: img},
		{Name: pipeline.StageGrayscale, Title: "Grayscale Image", Image: img},
		{Name: pipeline.StageSmoothed, Title: "Smoothed Image", Image: img},
		{Name: pipeline.StageEdges, Title: "Edge Detection", Image: img},
		{Name: pipeline.StageAllContours, Title: "All Contours", Image: img},
		{Name: pipeline.StageTopContours, Title: "Top 30 Contours", Image: img},
	}
}

func foundResult(text string) *pipeline.Result {
	plate := solidImage(4, 2, color.White)
	stages := append(detectionStages(),
		pipeline.Stage{Name: pipeline.StagePlate, Title: "Detected License Plate", Image: plate},
		pipeline.Stage{Name: pipeline.StageMarked, Title: "Image with Plate Marked", Image: solidImage(8, 6, color.Black)},
	)

	res := &pipeline.Result{
		Outcome: pipeline.OutcomeFound,
		Width:   8,
		Height:  6,
		Stages:  stages,
		Location: &detection.Location{
			State:   detection.StateFound,
			Rank:    1,
			Polygon: []image.Point{{1, 1}, {1, 3}, {5, 3}, {5, 1}},
			Bounds:  image.Rect(1, 1, 5, 3),
		},
		Plate:    plate,
		Text:     ocr.NewResult(text),
		Duration: 12 * time.Millisecond,
	}
	if strings.TrimSpace(text) == "" {
		res.Outcome = pipeline.OutcomeEmptyText
	}
	return res
}

func notFoundResult() *pipeline.Result {
	return &pipeline.Result{
		Outcome:  pipeline.OutcomeNotFound,
		Width:    8,
		Height:   6,
		Stages:   detectionStages(),
		Location: &detection.Location{State: detection.StateNotFound, Rank: -1},
	}
}

func newTestServer(t *testing.T, runner Runner, health HealthChecker) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if health == nil {
		health = stubHealth{info: ocr.Info{Available: true, Version: "5.3.0", Backend: ocr.Backend, Language: "eng"}}
	}
	s, err := New(Options{MaxUploadMB: 1, Version: "test", TopContours: 30}, runner, health)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

// multipartBody builds a form with a single file field.
func multipartBody(t *testing.T, field, filename string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	} else if err := w.WriteField("note", "no file"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func performRequest(h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	s := newTestServer(t, &stubRunner{}, nil)
	if s.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}

func TestNew_DefaultUploadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, err := New(Options{}, &stubRunner{}, stubHealth{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.maxUploadBytes() != 20<<20 {
		t.Errorf("max upload: got %d, want %d", s.maxUploadBytes(), 20<<20)
	}
}

func TestRequestID_Generated(t *testing.T) {
	runner := &stubRunner{res: notFoundResult()}
	s := newTestServer(t, runner, nil)

	body, ct := multipartBody(t, "file", "car.png", []byte("png bytes"))
	rec := performRequest(s.Handler(), http.MethodPost, "/api/detect", body, ct)

	id := rec.Header().Get(requestIDHeader)
	if len(id) != 36 {
		t.Fatalf("expected a UUID request id, got %q", id)
	}
	if runner.ctxID != id {
		t.Errorf("pipeline saw request id %q, want %q", runner.ctxID, id)
	}
}

func TestRequestID_FromClient(t *testing.T) {
	s := newTestServer(t, &stubRunner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "client-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "client-123" {
		t.Errorf("request id: got %q, want client-123", got)
	}
	if !strings.Contains(rec.Body.String(), "client-123") {
		t.Error("page footer should show the request id")
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		info       ocr.Info
		wantStatus int
		wantState  string
	}{
		{"available", ocr.Info{Available: true, Version: "5.3.0", Backend: ocr.Backend}, http.StatusOK, "ok"},
		{"unavailable", ocr.Info{Available: false, Error: "OCR engine not found at /x", Backend: ocr.Backend}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubRunner{}, stubHealth{info: tt.info})

			rec := performRequest(s.Handler(), http.MethodGet, "/healthz", nil, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}

			var body struct {
				Status  string   `json:"status"`
				Version string   `json:"version"`
				OCR     ocr.Info `json:"ocr"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Status != tt.wantState {
				t.Errorf("status field: got %q, want %q", body.Status, tt.wantState)
			}
			if body.Version != "test" {
				t.Errorf("version: got %q, want test", body.Version)
			}
			if body.OCR.Available != tt.info.Available || body.OCR.Error != tt.info.Error {
				t.Errorf("ocr info: got %+v, want %+v", body.OCR, tt.info)
			}
		})
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &stubRunner{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	s := newTestServer(t, &stubRunner{}, nil)

	err := s.Run(context.Background(), "127.0.0.1:-1")
	if err == nil {
		t.Fatal("expected an error for an invalid address")
	}
	if !strings.Contains(err.Error(), "server error") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMethodNotAllowedIsNotFound(t *testing.T) {
	s := newTestServer(t, &stubRunner{}, nil)

	rec := performRequest(s.Handler(), http.MethodGet, "/api/detect", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}
