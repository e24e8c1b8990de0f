package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/ocr"
	"github.com/partha814482/License-Plate-Detection-OCR-App/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

// Runner processes one uploaded image. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, data []byte) (*pipeline.Result, error)
}

// HealthChecker reports OCR availability. *ocr.Engine implements it.
type HealthChecker interface {
	Info() ocr.Info
}

// Options configures a Server.
type Options struct {
	// MaxUploadMB caps the size of an uploaded image.
	MaxUploadMB int

	// Version is reported by /healthz.
	Version string

	// TopContours is the ranked contour limit, shown on the form.
	TopContours int
}

// Server is the HTTP front end: an upload form, the result page, a JSON
// endpoint and a health check.
type Server struct {
	opts   Options
	runner Runner
	health HealthChecker
	engine *gin.Engine
}

// New creates a server and registers its routes.
func New(opts Options, runner Runner, health HealthChecker) (*Server, error) {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 20
	}

	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		opts:   opts,
		runner: runner,
		health: health,
	}

	r := gin.New()
	r.Use(requestID(), accessLog(), gin.Recovery())
	r.MaxMultipartMemory = s.maxUploadBytes() + 1<<20
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.handleIndex)
	r.POST("/", s.limitBody(), s.handleUpload)
	r.POST("/api/detect", s.limitBody(), s.handleDetect)
	r.GET("/healthz", s.handleHealth)

	s.engine = r
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func (s *Server) maxUploadBytes() int64 {
	return int64(s.opts.MaxUploadMB) << 20
}
